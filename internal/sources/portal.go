package sources

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

var pdfLinkRegex = regexp.MustCompile(`href="([^"]+\.pdf)"`)

// PortalSource scrapes a public regulatory portal page for links to newly
// published PDF documents. The portal exposes no creation timestamps, so
// ListNew relies entirely on the caller's dedup ledger.
type PortalSource struct {
	pageURL string
	client  *http.Client
}

// NewPortalSource creates a new PortalSource instance
func NewPortalSource(pageURL string) *PortalSource {
	return &PortalSource{
		pageURL: pageURL,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// Name identifies the source in logs and ledger records.
func (p *PortalSource) Name() string {
	return "portal:" + p.pageURL
}

// ListNew fetches the portal page and extracts its PDF links.
func (p *PortalSource) ListNew(ctx context.Context, since time.Time) ([]Candidate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "complyflow-watcher/1.0")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch portal page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("portal returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, err
	}

	base, err := url.Parse(p.pageURL)
	if err != nil {
		return nil, err
	}

	matches := pdfLinkRegex.FindAllStringSubmatch(string(body), -1)
	seen := make(map[string]bool)
	var candidates []Candidate
	for _, m := range matches {
		ref, err := url.Parse(m[1])
		if err != nil {
			continue
		}
		absolute := base.ResolveReference(ref).String()
		if seen[absolute] {
			continue
		}
		seen[absolute] = true

		name := filepath.Base(ref.Path)
		if name == "" || !strings.HasSuffix(strings.ToLower(name), ".pdf") {
			continue
		}
		candidates = append(candidates, Candidate{
			ID:   absolute,
			Name: name,
			URL:  absolute,
		})
	}

	return candidates, nil
}

// Download fetches one linked PDF into destDir.
func (p *PortalSource) Download(ctx context.Context, candidate Candidate, destDir string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, candidate.ID, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "complyflow-watcher/1.0")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to download %s: %w", candidate.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download of %s returned status %d", candidate.Name, resp.StatusCode)
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return "", err
	}

	dest := filepath.Join(destDir, candidate.Name)
	file, err := os.Create(dest)
	if err != nil {
		return "", err
	}
	defer file.Close()

	if _, err := io.Copy(file, resp.Body); err != nil {
		os.Remove(dest)
		return "", fmt.Errorf("failed to write %s: %w", dest, err)
	}
	return dest, nil
}
