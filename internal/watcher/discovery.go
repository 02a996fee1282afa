package watcher

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/complyflow-labs/complyflow/internal/domain"
	"github.com/complyflow-labs/complyflow/internal/service"
	"github.com/complyflow-labs/complyflow/internal/sources"
)

// Ingester defines the ingestion interface the discovery path hands
// downloaded documents to.
type Ingester interface {
	Ingest(ctx context.Context, path string, category domain.Category, sourceURL string) (int, error)
}

// Classifier defines the impact-classification interface. Classification
// never fails; it degrades internally.
type Classifier interface {
	Classify(ctx context.Context, documentText, documentName string) service.Assessment
}

// DiscoveryProcessor runs one poll cycle against a document source: list
// candidates, gate on the dedup ledger, download, ingest, classify and
// notify. The ledger record and the notification are committed in one
// transaction, only after ingestion has succeeded.
type DiscoveryProcessor struct {
	source     sources.Source
	ledger     LedgerRepositoryInterface
	tx         TxRunner
	ingester   Ingester
	classifier Classifier
	loader     service.TextLoader
	category   domain.Category
	stagingDir string
	startTime  time.Time
}

// DiscoveryConfig holds the dependencies and settings for a DiscoveryProcessor
type DiscoveryConfig struct {
	Source   sources.Source
	Ledger   LedgerRepositoryInterface
	Tx       TxRunner
	Ingester Ingester
	// Classifier may be nil; candidates then get a generic notification.
	Classifier Classifier
	Loader     service.TextLoader
	Category   domain.Category
	StagingDir string
}

// NewDiscoveryProcessor creates a new DiscoveryProcessor instance
func NewDiscoveryProcessor(cfg DiscoveryConfig) *DiscoveryProcessor {
	return &DiscoveryProcessor{
		source:     cfg.Source,
		ledger:     cfg.Ledger,
		tx:         cfg.Tx,
		ingester:   cfg.Ingester,
		classifier: cfg.Classifier,
		loader:     cfg.Loader,
		category:   cfg.Category,
		stagingDir: cfg.StagingDir,
		startTime:  time.Now().UTC(),
	}
}

// Poll runs one discovery cycle. A failure on one candidate is logged and
// the cycle proceeds; a failure listing the source is returned so the worker
// retries on the next tick.
func (p *DiscoveryProcessor) Poll(ctx context.Context) error {
	candidates, err := p.source.ListNew(ctx, p.startTime)
	if err != nil {
		return fmt.Errorf("failed to list %s: %w", p.source.Name(), err)
	}

	for _, candidate := range candidates {
		if err := p.processCandidate(ctx, candidate); err != nil {
			log.Printf("discovery: failed to process %s from %s: %v", candidate.Name, p.source.Name(), err)
		}
	}
	return nil
}

func (p *DiscoveryProcessor) processCandidate(ctx context.Context, candidate sources.Candidate) error {
	exists, err := p.ledger.ExistsByName(ctx, candidate.Name)
	if err != nil {
		return fmt.Errorf("failed to check ledger: %w", err)
	}
	if exists {
		return nil
	}

	path, err := p.source.Download(ctx, candidate, p.stagingDir)
	if err != nil {
		return fmt.Errorf("failed to download: %w", err)
	}

	count, err := p.ingester.Ingest(ctx, path, p.category, candidate.URL)
	if err != nil {
		return fmt.Errorf("failed to ingest: %w", err)
	}
	log.Printf("discovery: ingested %s (%d chunks, category %s)", candidate.Name, count, p.category)

	notification := p.buildNotification(ctx, candidate, path)

	// Ledger record and notification commit together: a crash mid-cycle can
	// never leave a notification without its dedup record, or vice versa.
	err = p.tx.WithTx(ctx, func(repos TxRepositories) error {
		record := domain.NewDiscoveredDocument(uuid.NewString(), candidate.Name, candidate.ID, time.Now().UTC())
		if err := repos.Ledger().Record(ctx, record); err != nil {
			return err
		}
		return repos.Notifications().Create(ctx, notification)
	})
	if err != nil {
		return fmt.Errorf("failed to record discovery: %w", err)
	}
	return nil
}

func (p *DiscoveryProcessor) buildNotification(ctx context.Context, candidate sources.Candidate, path string) *domain.Notification {
	notification := &domain.Notification{
		Title:       "New Document: " + candidate.Name,
		Message:     "A new document has been discovered and indexed.",
		DocName:     candidate.Name,
		SourceURL:   candidate.URL,
		ImpactLevel: domain.ImpactLow,
	}

	if p.classifier == nil {
		return notification
	}

	text, err := p.loader.Load(ctx, path)
	if err != nil {
		log.Printf("discovery: failed to load %s for classification: %v", candidate.Name, err)
		return notification
	}

	assessment := p.classifier.Classify(ctx, text, candidate.Name)
	notification.Message = assessment.AnalysisSummary
	notification.ImpactLevel = assessment.ImpactLevel
	notification.ActionDraft = assessment.ActionDraft
	return notification
}
