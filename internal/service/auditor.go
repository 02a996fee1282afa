package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/complyflow-labs/complyflow/internal/domain"
)

// auditPreviewChars bounds how much extracted text is sent to the model.
const auditPreviewChars = 1000

// VerificationOutcome is the result of checking an uploaded document against
// the indexed rules.
type VerificationOutcome string

const (
	// OutcomeFlagged means the document appears to violate a rule.
	OutcomeFlagged VerificationOutcome = "flagged"
	// OutcomeValid means the document was audited and no violation was found.
	OutcomeValid VerificationOutcome = "valid"
	// OutcomeReference means the document carries no financial entities and
	// was filed as reference material without auditing.
	OutcomeReference VerificationOutcome = "reference"
)

// VerificationResult carries the outcome plus the rule that was applied.
type VerificationResult struct {
	Outcome    VerificationOutcome
	Reason     string
	RuleSource string
}

// RuleRetriever defines the retrieval interface the auditor selects rules with
type RuleRetriever interface {
	Search(ctx context.Context, query string, k int, filter domain.ChunkFilter) ([]Snippet, error)
}

// AuditorService checks uploaded documents against retrieved compliance
// rules. Auditing fails open: an inability to confirm a violation is never
// reported as one.
type AuditorService struct {
	completions CompletionClient
	retriever   RuleRetriever
}

// NewAuditorService creates a new AuditorService instance
func NewAuditorService(completions CompletionClient, retriever RuleRetriever) *AuditorService {
	return &AuditorService{completions: completions, retriever: retriever}
}

type auditResponse struct {
	IsFlagged bool   `json:"is_flagged"`
	Reason    string `json:"reason"`
}

// Audit asks the model whether a document violates one rule. Any failure
// returns an unflagged verdict with an empty reason.
func (s *AuditorService) Audit(ctx context.Context, doc *domain.ExtractedDocument, ruleText string) domain.AuditVerdict {
	prompt := fmt.Sprintf(`You are a GST compliance auditor. Decide whether the document below violates the given rule. Respond with a JSON object containing exactly two fields: "is_flagged" (boolean) and "reason" (string, empty when not flagged).

Rule:
%s

Extracted entities:
%s

Document excerpt:
%s`, ruleText, summarizeEntities(doc.Entities), truncateRunes(doc.Text, auditPreviewChars))

	raw, err := s.completions.Complete(ctx, prompt, true)
	if err != nil {
		log.Printf("auditor: completion failed: %v", err)
		return domain.AuditVerdict{}
	}

	var resp auditResponse
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &resp); err != nil {
		log.Printf("auditor: malformed response: %v", err)
		return domain.AuditVerdict{}
	}

	return domain.AuditVerdict{IsFlagged: resp.IsFlagged, Reason: resp.Reason}
}

// Verify classifies the document, selects the most relevant rule from the
// index and audits against it. Documents without financial entities are filed
// as reference material. When the index holds nothing relevant the caller
// gets domain.ErrNoRelevantRule instead of a pass or a flag.
func (s *AuditorService) Verify(ctx context.Context, doc *domain.ExtractedDocument) (*VerificationResult, error) {
	if !doc.IsFinancial() {
		return &VerificationResult{Outcome: OutcomeReference}, nil
	}

	query := buildRuleQuery(doc.Text)
	snippets, err := s.retriever.Search(ctx, query, 2, domain.ChunkFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve rules: %w", err)
	}
	if len(snippets) == 0 {
		log.Printf("auditor: no relevant rules found for query %q", query)
		return nil, domain.ErrNoRelevantRule
	}

	rule := snippets[0]
	verdict := s.Audit(ctx, doc, rule.Content)
	if verdict.IsFlagged {
		return &VerificationResult{Outcome: OutcomeFlagged, Reason: verdict.Reason, RuleSource: rule.Source}, nil
	}
	return &VerificationResult{Outcome: OutcomeValid, RuleSource: rule.Source}, nil
}

// buildRuleQuery combines keyword hints found in the document with a bounded
// text preview, steering retrieval toward the rule family most likely to
// apply.
func buildRuleQuery(text string) string {
	lower := strings.ToLower(text)

	var hints []string
	if strings.Contains(lower, "gift") || strings.Contains(lower, "watch") {
		hints = append(hints, "Corporate Gift")
	}
	if strings.Contains(lower, "itc") || strings.Contains(lower, "input tax") {
		hints = append(hints, "ITC Restricted Items")
	}
	if strings.Contains(lower, "export") {
		hints = append(hints, "Export of Services")
	}

	preview := truncateRunes(text, 200)
	if len(hints) == 0 {
		return preview
	}
	return strings.Join(hints, " ") + " " + preview
}

func summarizeEntities(entities []domain.Entity) string {
	if len(entities) == 0 {
		return "(none)"
	}
	parts := make([]string, 0, len(entities))
	for _, e := range entities {
		parts = append(parts, fmt.Sprintf("%s=%s", e.Type, e.Value))
	}
	return strings.Join(parts, ", ")
}
