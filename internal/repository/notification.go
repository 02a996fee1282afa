package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/complyflow-labs/complyflow/internal/domain"
)

var ErrNotificationNotFound = errors.New("notification not found")

// NotificationRepository persists discovery notifications, read-ordered by
// recency for the polling and streaming consumers.
type NotificationRepository struct {
	db dbtx
}

func NewNotificationRepository(pool *pgxpool.Pool) *NotificationRepository {
	return &NotificationRepository{db: pool}
}

func NewNotificationRepositoryWithTx(tx pgx.Tx) *NotificationRepository {
	return &NotificationRepository{db: tx}
}

// Create inserts a notification and fills in its assigned ID and timestamp.
func (r *NotificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	if n != nil && n.ImpactLevel == "" {
		n.ImpactLevel = domain.ImpactLow
	}
	if err := domain.ValidateNotification(n); err != nil {
		return err
	}

	createdAt := n.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	err := r.db.QueryRow(ctx,
		`INSERT INTO notifications (title, message, doc_name, source_url, impact_level, action_draft, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at`,
		n.Title, n.Message, n.DocName, nullableString(n.SourceURL), n.ImpactLevel, nullableString(n.ActionDraft), createdAt,
	).Scan(&n.ID, &n.CreatedAt)
	return err
}

// ListRecent returns up to limit notifications, newest first.
func (r *NotificationRepository) ListRecent(ctx context.Context, limit int) ([]*domain.Notification, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := r.db.Query(ctx,
		`SELECT id, title, message, doc_name, source_url, impact_level, action_draft, created_at
		 FROM notifications
		 ORDER BY created_at DESC, id DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanNotificationRows(rows)
}

// ListAfter returns notifications with an ID greater than afterID, oldest
// first. The notification stream uses it to push only what is new.
func (r *NotificationRepository) ListAfter(ctx context.Context, afterID int64) ([]*domain.Notification, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, title, message, doc_name, source_url, impact_level, action_draft, created_at
		 FROM notifications
		 WHERE id > $1
		 ORDER BY id ASC`,
		afterID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanNotificationRows(rows)
}

// LatestID returns the highest notification ID, or 0 when there are none.
func (r *NotificationRepository) LatestID(ctx context.Context) (int64, error) {
	var id int64
	err := r.db.QueryRow(ctx, `SELECT COALESCE(MAX(id), 0) FROM notifications`).Scan(&id)
	return id, err
}

// FindByDocName returns the most recent notification for a document name,
// or ErrNotificationNotFound.
func (r *NotificationRepository) FindByDocName(ctx context.Context, docName string) (*domain.Notification, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, title, message, doc_name, source_url, impact_level, action_draft, created_at
		 FROM notifications
		 WHERE doc_name = $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT 1`,
		docName,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results, err := scanNotificationRows(rows)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, ErrNotificationNotFound
	}
	return results[0], nil
}

// Delete removes a notification by ID.
func (r *NotificationRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM notifications WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func scanNotificationRows(rows pgx.Rows) ([]*domain.Notification, error) {
	var results []*domain.Notification
	for rows.Next() {
		var n domain.Notification
		var sourceURL, actionDraft *string
		var impactLevel string
		if err := rows.Scan(&n.ID, &n.Title, &n.Message, &n.DocName, &sourceURL, &impactLevel, &actionDraft, &n.CreatedAt); err != nil {
			return nil, err
		}
		n.ImpactLevel = domain.ImpactLevel(impactLevel)
		if sourceURL != nil {
			n.SourceURL = *sourceURL
		}
		if actionDraft != nil {
			n.ActionDraft = *actionDraft
		}
		results = append(results, &n)
	}
	return results, rows.Err()
}
