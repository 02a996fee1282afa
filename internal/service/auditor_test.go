package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/complyflow-labs/complyflow/internal/domain"
)

// MockRuleRetriever is a mock implementation of RuleRetriever
type MockRuleRetriever struct {
	mock.Mock
}

func (m *MockRuleRetriever) Search(ctx context.Context, query string, k int, filter domain.ChunkFilter) ([]Snippet, error) {
	args := m.Called(ctx, query, k, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Snippet), args.Error(1)
}

func financialInvoice(text string) *domain.ExtractedDocument {
	return &domain.ExtractedDocument{
		Text: text,
		Entities: []domain.Entity{
			{Type: domain.EntityTotalTaxAmount, Value: "36,000", Confidence: 0.98},
			{Type: domain.EntityNetAmount, Value: "2,00,000", Confidence: 0.97},
		},
	}
}

func TestAuditorService_Audit_Flagged(t *testing.T) {
	completions := new(MockCompletionClient)
	svc := NewAuditorService(completions, nil)

	completions.On("Complete", mock.Anything, mock.Anything, true).Return(
		`{"is_flagged": true, "reason": "ITC claimed on gifted goods is blocked under section 17(5)."}`, nil)

	verdict := svc.Audit(context.Background(), financialInvoice("invoice for luxury watches as corporate gifts"), "Section 17(5): ITC not available on goods disposed of as gifts.")
	assert.True(t, verdict.IsFlagged)
	assert.Contains(t, verdict.Reason, "17(5)")
}

func TestAuditorService_Audit_FailsOpen(t *testing.T) {
	completions := new(MockCompletionClient)
	svc := NewAuditorService(completions, nil)

	completions.On("Complete", mock.Anything, mock.Anything, true).Return("", domain.ErrCompletionFailed)

	verdict := svc.Audit(context.Background(), financialInvoice("text"), "rule")
	assert.False(t, verdict.IsFlagged)
	assert.Empty(t, verdict.Reason)
}

func TestAuditorService_Audit_MalformedResponseFailsOpen(t *testing.T) {
	completions := new(MockCompletionClient)
	svc := NewAuditorService(completions, nil)

	completions.On("Complete", mock.Anything, mock.Anything, true).Return("not json at all", nil)

	verdict := svc.Audit(context.Background(), financialInvoice("text"), "rule")
	assert.False(t, verdict.IsFlagged)
}

func TestAuditorService_Verify_GiftInvoiceFlagged(t *testing.T) {
	completions := new(MockCompletionClient)
	retriever := new(MockRuleRetriever)
	svc := NewAuditorService(completions, retriever)

	doc := financialInvoice("Invoice: 100 luxury watches purchased as corporate gifts for clients. ITC claimed.")

	retriever.On("Search", mock.Anything, mock.MatchedBy(func(q string) bool {
		return len(q) > 0
	}), 2, domain.ChunkFilter{}).Return([]Snippet{
		{Content: "ITC shall not be available in respect of goods disposed of by way of gift.", Source: "cgst_act.pdf", Category: domain.CategoryActs},
		{Content: "supplementary circular text", Source: "circular_92.pdf", Category: domain.CategoryCirculars},
	}, nil)

	completions.On("Complete", mock.Anything, mock.Anything, true).Return(
		`{"is_flagged": true, "reason": "ITC claimed on goods given as gifts."}`, nil)

	result, err := svc.Verify(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, OutcomeFlagged, result.Outcome)
	assert.Equal(t, "cgst_act.pdf", result.RuleSource)
	assert.NotEmpty(t, result.Reason)
}

func TestAuditorService_Verify_ValidInvoice(t *testing.T) {
	completions := new(MockCompletionClient)
	retriever := new(MockRuleRetriever)
	svc := NewAuditorService(completions, retriever)

	retriever.On("Search", mock.Anything, mock.Anything, 2, domain.ChunkFilter{}).Return([]Snippet{
		{Content: "Exports of services are zero-rated.", Source: "igst_act.pdf", Category: domain.CategoryActs},
	}, nil)
	completions.On("Complete", mock.Anything, mock.Anything, true).Return(
		`{"is_flagged": false, "reason": ""}`, nil)

	result, err := svc.Verify(context.Background(), financialInvoice("export of consulting services"))
	require.NoError(t, err)
	assert.Equal(t, OutcomeValid, result.Outcome)
	assert.Equal(t, "igst_act.pdf", result.RuleSource)
}

func TestAuditorService_Verify_NonFinancialIsReference(t *testing.T) {
	completions := new(MockCompletionClient)
	retriever := new(MockRuleRetriever)
	svc := NewAuditorService(completions, retriever)

	doc := &domain.ExtractedDocument{Text: "internal memo about office relocation"}

	result, err := svc.Verify(context.Background(), doc)
	require.NoError(t, err)
	assert.Equal(t, OutcomeReference, result.Outcome)

	retriever.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	completions.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything)
}

func TestAuditorService_Verify_NoRelevantRule(t *testing.T) {
	completions := new(MockCompletionClient)
	retriever := new(MockRuleRetriever)
	svc := NewAuditorService(completions, retriever)

	retriever.On("Search", mock.Anything, mock.Anything, 2, domain.ChunkFilter{}).Return([]Snippet{}, nil)

	_, err := svc.Verify(context.Background(), financialInvoice("obscure transaction"))
	assert.ErrorIs(t, err, domain.ErrNoRelevantRule)
}

func TestBuildRuleQuery_KeywordHints(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		contains []string
	}{
		{
			name:     "gift hint",
			text:     "100 luxury watches as corporate gifts",
			contains: []string{"Corporate Gift"},
		},
		{
			name:     "itc hint",
			text:     "input tax credit claimed on purchases",
			contains: []string{"ITC Restricted Items"},
		},
		{
			name:     "export hint",
			text:     "export of services to foreign client",
			contains: []string{"Export of Services"},
		},
		{
			name:     "multiple hints",
			text:     "ITC claimed on gifts for export clients",
			contains: []string{"Corporate Gift", "ITC Restricted Items", "Export of Services"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query := buildRuleQuery(tt.text)
			for _, want := range tt.contains {
				assert.Contains(t, query, want)
			}
		})
	}
}

func TestBuildRuleQuery_NoHintsUsesPreview(t *testing.T) {
	query := buildRuleQuery("plain invoice for stationery supplies")
	assert.Equal(t, "plain invoice for stationery supplies", query)
}
