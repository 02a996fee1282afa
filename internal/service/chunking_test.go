package service

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/complyflow-labs/complyflow/internal/domain"
)

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "strips page markers",
			input:    "Section 16 applies. Page 3 of 12 The credit shall",
			expected: "Section 16 applies.  The credit shall",
		},
		{
			name:     "drops bare number lines",
			input:    "intro text\n42\nmore text",
			expected: "intro text\nmore text",
		},
		{
			name:     "keeps lines with numbers and words",
			input:    "rule 42 applies\nsection 17(5)",
			expected: "rule 42 applies\nsection 17(5)",
		},
		{
			name:     "trims surrounding whitespace",
			input:    "  \n  body  \n ",
			expected: "body",
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, NormalizeText(tt.input))
		})
	}
}

func TestNormalizeText_Idempotent(t *testing.T) {
	input := "Heading\nPage 1 of 9\n7\nBody of the rule continues here."
	once := NormalizeText(input)
	twice := NormalizeText(once)
	assert.Equal(t, once, twice)
}

func TestChunkConfigFor(t *testing.T) {
	acts := ChunkConfigFor(domain.CategoryActs)
	assert.Equal(t, 2000, acts.MaxChars)
	assert.Equal(t, 200, acts.Overlap)

	notif := ChunkConfigFor(domain.CategoryNotifications)
	assert.Equal(t, 1000, notif.MaxChars)
	assert.Equal(t, 100, notif.Overlap)
}

func TestSplitText_ShortTextSingleChunk(t *testing.T) {
	chunks := SplitText("short text", ChunkConfigFor(domain.CategoryCirculars))
	require.Len(t, chunks, 1)
	assert.Equal(t, "short text", chunks[0])
}

func TestSplitText_Empty(t *testing.T) {
	assert.Nil(t, SplitText("   \n ", ChunkConfigFor(domain.CategoryActs)))
}

func TestSplitText_WindowsRespectMaxAndOverlap(t *testing.T) {
	var sb strings.Builder
	for i := 0; i < 500; i++ {
		sb.WriteString("word ")
	}
	text := strings.TrimSpace(sb.String())

	cfg := ChunkConfig{MaxChars: 100, MinChars: 20, Overlap: 10}
	chunks := SplitText(text, cfg)
	require.Greater(t, len(chunks), 1)

	for _, c := range chunks {
		assert.LessOrEqual(t, len([]rune(c)), cfg.MaxChars)
		assert.NotEmpty(t, c)
	}
}

func TestSplitText_NoTrailingLoss(t *testing.T) {
	text := strings.Repeat("alpha beta gamma ", 200) + "FINAL-TOKEN"
	chunks := SplitText(text, ChunkConfig{MaxChars: 300, MinChars: 50, Overlap: 30})
	require.NotEmpty(t, chunks)
	assert.True(t, strings.HasSuffix(chunks[len(chunks)-1], "FINAL-TOKEN"))
}

func TestSplitText_CoverageReconstruction(t *testing.T) {
	// With overlapping windows every piece of the input appears in some chunk.
	// Unique tokens make each chunk's position in the input unambiguous, so
	// the scan below locates true starts rather than earlier repetitions.
	var b strings.Builder
	for i := 0; i < 600; i++ {
		fmt.Fprintf(&b, "token%03d ", i)
	}
	text := strings.TrimSpace(b.String())
	chunks := SplitText(text, ChunkConfig{MaxChars: 200, MinChars: 40, Overlap: 40})
	require.Greater(t, len(chunks), 1)

	covered := 0
	pos := 0
	for _, c := range chunks {
		idx := strings.Index(text[pos:], c)
		require.GreaterOrEqual(t, idx, 0, "chunk must appear at or after the previous chunk's start")
		start := pos + idx
		assert.LessOrEqual(t, start, covered, "gap between consecutive chunks")
		if start+len(c) > covered {
			covered = start + len(c)
		}
		pos = start + 1
	}
	assert.Equal(t, len(text), covered)
}

func TestSplitText_OverlapClampedBelowSize(t *testing.T) {
	text := strings.Repeat("x y z ", 500)
	chunks := SplitText(text, ChunkConfig{MaxChars: 50, MinChars: 10, Overlap: 50})
	// Overlap equal to the window would never advance; the splitter clamps it.
	require.NotEmpty(t, chunks)
	assert.Greater(t, len(chunks), 1)
}
