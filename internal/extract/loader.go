package extract

import (
	"context"
	"os"
	"path/filepath"
	"strings"
)

// Loader adapts the extraction service into a plain text loader for the
// ingestion path. Files that are already text are read directly; everything
// else goes through the extractor.
type Loader struct {
	extractor Extractor
}

// NewLoader creates a new Loader instance
func NewLoader(extractor Extractor) *Loader {
	return &Loader{extractor: extractor}
}

// Load returns the text content of the file at path.
func (l *Loader) Load(ctx context.Context, path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".txt" || ext == ".md" || l.extractor == nil {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}

	doc, err := l.extractor.Extract(ctx, path)
	if err != nil {
		return "", err
	}
	return doc.Text, nil
}
