package watcher

import (
	"context"

	"github.com/complyflow-labs/complyflow/internal/domain"
)

// LedgerRepositoryInterface records discovered documents for deduplication.
type LedgerRepositoryInterface interface {
	ExistsByName(ctx context.Context, name string) (bool, error)
	Record(ctx context.Context, doc *domain.DiscoveredDocument) error
}

// NotificationRepositoryInterface creates notifications for new documents.
type NotificationRepositoryInterface interface {
	Create(ctx context.Context, n *domain.Notification) error
}

// TxRepositories provides transaction-bound repositories.
type TxRepositories interface {
	Ledger() LedgerRepositoryInterface
	Notifications() NotificationRepositoryInterface
}

// TxRunner executes a function within a transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(repos TxRepositories) error) error
}
