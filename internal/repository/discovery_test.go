//go:build integration

package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/complyflow-labs/complyflow/internal/domain"
	"github.com/complyflow-labs/complyflow/internal/testutil"
)

func TestDiscoveryRepository_RecordAndExists(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewDiscoveryRepository(pool)

	exists, err := repo.ExistsByName(ctx, "Circular_99.pdf")
	require.NoError(t, err)
	assert.False(t, exists)

	doc := domain.NewDiscoveredDocument(uuid.NewString(), "Circular_99.pdf", "drive-file-123", time.Now().UTC())
	require.NoError(t, repo.Record(ctx, doc))

	exists, err = repo.ExistsByName(ctx, "Circular_99.pdf")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestDiscoveryRepository_Record_DuplicateNameIsNoop(t *testing.T) {
	ctx := context.Background()
	pc := testutil.NewPostgresContainer(ctx, t)
	defer pc.Terminate(ctx)

	pool := testutil.NewTestPool(ctx, t, pc, "../../migrations")
	defer pool.Close()

	repo := NewDiscoveryRepository(pool)

	first := domain.NewDiscoveredDocument(uuid.NewString(), "Notification_12.pdf", "", time.Now().UTC())
	require.NoError(t, repo.Record(ctx, first))

	second := domain.NewDiscoveredDocument(uuid.NewString(), "Notification_12.pdf", "other-id", time.Now().UTC())
	require.NoError(t, repo.Record(ctx, second))

	var count int
	err := pool.QueryRow(ctx, "SELECT COUNT(*) FROM discovered_documents WHERE name = $1", "Notification_12.pdf").Scan(&count)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}
