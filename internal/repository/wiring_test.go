package repository

import (
	"github.com/complyflow-labs/complyflow/internal/service"
	"github.com/complyflow-labs/complyflow/internal/watcher"
)

// Compile-time checks that the repositories satisfy the consumer-side
// interfaces they are wired against.
var (
	_ service.IngestChunkRepository           = (*ChunkRepository)(nil)
	_ service.SearchChunkRepository           = (*ChunkRepository)(nil)
	_ watcher.LedgerRepositoryInterface       = (*DiscoveryRepository)(nil)
	_ watcher.NotificationRepositoryInterface = (*NotificationRepository)(nil)
	_ watcher.TxRunner                        = (*TxRunner)(nil)
)
