package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/complyflow-labs/complyflow/internal/domain"
)

// DiscoveryRepository persists the dedup ledger of documents the watchers
// have already processed.
type DiscoveryRepository struct {
	db dbtx
}

func NewDiscoveryRepository(pool *pgxpool.Pool) *DiscoveryRepository {
	return &DiscoveryRepository{db: pool}
}

func NewDiscoveryRepositoryWithTx(tx pgx.Tx) *DiscoveryRepository {
	return &DiscoveryRepository{db: tx}
}

// ExistsByName reports whether a ledger record exists for the document name.
func (r *DiscoveryRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM discovered_documents WHERE name = $1)`,
		name,
	).Scan(&exists)
	return exists, err
}

// Record inserts a ledger record. A concurrent double-insert for the same
// name is tolerated: the second insert is a no-op, not an error.
func (r *DiscoveryRepository) Record(ctx context.Context, d *domain.DiscoveredDocument) error {
	if err := domain.ValidateDiscoveredDocument(d); err != nil {
		return err
	}

	discoveredAt := d.DiscoveredAt
	if discoveredAt.IsZero() {
		discoveredAt = time.Now().UTC()
	}

	_, err := r.db.Exec(ctx,
		`INSERT INTO discovered_documents (id, name, source_id, discovered_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (name) DO NOTHING`,
		d.ID, d.Name, nullableString(d.SourceID), discoveredAt,
	)
	return err
}
