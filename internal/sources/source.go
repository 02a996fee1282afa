// Package sources holds the document source connectors the discovery
// watchers poll: an S3-compatible inbox folder and a public web portal.
package sources

import (
	"context"
	"time"
)

// Candidate is a document a source offers for ingestion.
type Candidate struct {
	ID        string
	Name      string
	URL       string
	CreatedAt time.Time
}

// Source lists newly published documents and downloads them to staging.
type Source interface {
	// Name identifies the source in logs and ledger records.
	Name() string
	// ListNew returns candidates created after since, filtered to supported
	// document types.
	ListNew(ctx context.Context, since time.Time) ([]Candidate, error)
	// Download fetches one candidate into destDir and returns the local path.
	Download(ctx context.Context, candidate Candidate, destDir string) (string, error)
}
