// Package extract wraps the external OCR/extraction service that turns
// stored documents into normalized text plus detected entities.
package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/complyflow-labs/complyflow/internal/domain"
)

// Extractor converts a document into text and entities.
type Extractor interface {
	Extract(ctx context.Context, uri string) (*domain.ExtractedDocument, error)
}

// HTTPExtractor calls a remote extraction service over JSON.
type HTTPExtractor struct {
	baseURL string
	client  *http.Client
}

// NewHTTPExtractor creates a new HTTPExtractor instance
func NewHTTPExtractor(baseURL string) *HTTPExtractor {
	return &HTTPExtractor{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

type extractRequest struct {
	URI string `json:"uri"`
}

type extractResponse struct {
	Text     string `json:"text"`
	Entities []struct {
		Type       string  `json:"type"`
		Value      string  `json:"value"`
		Confidence float64 `json:"confidence"`
	} `json:"entities"`
}

// Extract sends the document URI to the extraction service and decodes the
// structured result.
func (e *HTTPExtractor) Extract(ctx context.Context, uri string) (*domain.ExtractedDocument, error) {
	body, err := json.Marshal(extractRequest{URI: uri})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/extract", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrExtractionFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("%w: extractor returned %d: %s", domain.ErrExtractionFailed, resp.StatusCode, payload)
	}

	var decoded extractResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%w: malformed extractor response: %v", domain.ErrExtractionFailed, err)
	}
	if decoded.Text == "" {
		return nil, fmt.Errorf("%w: extractor returned no text", domain.ErrExtractionFailed)
	}

	doc := &domain.ExtractedDocument{Text: decoded.Text}
	for _, ent := range decoded.Entities {
		doc.Entities = append(doc.Entities, domain.Entity{
			Type:       ent.Type,
			Value:      ent.Value,
			Confidence: ent.Confidence,
		})
	}
	return doc, nil
}
