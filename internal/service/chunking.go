package service

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/complyflow-labs/complyflow/internal/domain"
)

// ChunkConfig controls text splitting for vector embeddings.
type ChunkConfig struct {
	MaxChars int
	MinChars int
	Overlap  int
}

// ChunkConfigFor returns the splitting configuration for a document category.
// Acts are long statutory texts and get larger windows than notifications,
// circulars and other instruments.
func ChunkConfigFor(category domain.Category) ChunkConfig {
	if category == domain.CategoryActs {
		return ChunkConfig{MaxChars: 2000, MinChars: 400, Overlap: 200}
	}
	return ChunkConfig{MaxChars: 1000, MinChars: 200, Overlap: 100}
}

var (
	pageArtifactRe = regexp.MustCompile(`Page \d+ of \d+`)
	bareNumberRe   = regexp.MustCompile(`^\s*\d+\s*$`)
)

// NormalizeText strips pagination artifacts left by PDF text extraction:
// "Page N of M" markers and lines that hold nothing but a number. Applying
// it to already-normalized text changes nothing.
func NormalizeText(text string) string {
	text = pageArtifactRe.ReplaceAllString(text, "")

	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if bareNumberRe.MatchString(line) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.TrimSpace(strings.Join(kept, "\n"))
}

// SplitText chunks text into overlapping windows. Cuts prefer a word boundary
// near the window end; the trailing remainder always becomes a final chunk.
func SplitText(text string, cfg ChunkConfig) []string {
	clean := strings.TrimSpace(text)
	if clean == "" {
		return nil
	}
	if cfg.MaxChars <= 0 {
		cfg = ChunkConfigFor("")
	}
	if cfg.Overlap >= cfg.MaxChars {
		cfg.Overlap = cfg.MaxChars / 2
	}

	runes := []rune(clean)
	if len(runes) <= cfg.MaxChars {
		return []string{clean}
	}

	chunks := make([]string, 0, 8)
	start := 0
	for start < len(runes) {
		end := start + cfg.MaxChars
		if end > len(runes) {
			end = len(runes)
		}

		if end < len(runes) {
			cut := end
			minCut := start + cfg.MinChars
			if minCut > end {
				minCut = start
			}
			for i := end; i > minCut; i-- {
				if unicode.IsSpace(runes[i-1]) {
					cut = i
					break
				}
			}
			end = cut
		}

		if end <= start {
			break
		}

		chunk := strings.TrimSpace(string(runes[start:end]))
		if chunk != "" {
			chunks = append(chunks, chunk)
		}

		if end >= len(runes) {
			break
		}

		nextStart := end
		if cfg.Overlap > 0 && end-start > cfg.Overlap {
			nextStart = end - cfg.Overlap
		}
		if nextStart <= start {
			nextStart = end
		}
		start = nextStart
	}

	return chunks
}
