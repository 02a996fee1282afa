package domain

import (
	"fmt"
	"time"
)

// DiscoveredDocument is one row of the durable dedup ledger. A watcher writes
// a record after a document has been ingested; the record's existence is the
// sole gate preventing re-ingestion of the same document name. Records are
// never deleted by the pipeline.
type DiscoveredDocument struct {
	ID           string
	Name         string
	SourceID     string
	DiscoveredAt time.Time
}

// NewDiscoveredDocument creates a new DiscoveredDocument instance
func NewDiscoveredDocument(id, name, sourceID string, discoveredAt time.Time) *DiscoveredDocument {
	return &DiscoveredDocument{
		ID:           id,
		Name:         name,
		SourceID:     sourceID,
		DiscoveredAt: discoveredAt,
	}
}

// ValidateDiscoveredDocument validates a DiscoveredDocument instance
func ValidateDiscoveredDocument(d *DiscoveredDocument) error {
	if d == nil {
		return fmt.Errorf("discovered document cannot be nil")
	}

	if d.ID == "" {
		return fmt.Errorf("discovered document ID is required")
	}

	if d.Name == "" {
		return fmt.Errorf("discovered document Name is required")
	}

	return nil
}
