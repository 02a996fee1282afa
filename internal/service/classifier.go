package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/complyflow-labs/complyflow/internal/domain"
)

// classifierPreviewChars bounds how much document text is sent to the model.
const classifierPreviewChars = 5000

const (
	fallbackActionDraft     = "New document discovered. Click 'Discuss' to learn more."
	fallbackAnalysisSummary = "Default fallback due to processing error."
)

// CompletionClient defines the interface for generative text completion
type CompletionClient interface {
	Complete(ctx context.Context, prompt string, jsonMode bool) (string, error)
}

// Assessment is the classifier's judgement of a newly discovered document.
type Assessment struct {
	ImpactLevel     domain.ImpactLevel
	ActionDraft     string
	AnalysisSummary string
}

// ClassifierService assigns an urgency tier and drafts a response for newly
// discovered regulatory documents. It never fails: any model or parse error
// degrades to a LOW-impact generic assessment, because discovery must not
// stall on classifier outages.
type ClassifierService struct {
	completions CompletionClient
}

// NewClassifierService creates a new ClassifierService instance
func NewClassifierService(completions CompletionClient) *ClassifierService {
	return &ClassifierService{completions: completions}
}

type classifierResponse struct {
	ImpactLevel string `json:"impact_level"`
	ActionDraft string `json:"action_draft"`
	AIAnalysis  string `json:"ai_analysis"`
}

// Classify assesses a document from a bounded preview of its text.
func (s *ClassifierService) Classify(ctx context.Context, documentText, documentName string) Assessment {
	preview := truncateRunes(documentText, classifierPreviewChars)

	prompt := fmt.Sprintf(`You are a GST compliance analyst. A new regulatory document named %q has been published. Analyze the following excerpt and respond with a JSON object containing exactly three fields:
- "impact_level": one of "LOW", "MEDIUM" or "HIGH"
- "action_draft": a short draft of the action a business should take
- "ai_analysis": a one-paragraph summary of what changed and who is affected

Document excerpt:
%s`, documentName, preview)

	raw, err := s.completions.Complete(ctx, prompt, true)
	if err != nil {
		log.Printf("classifier: completion failed for %s: %v", documentName, err)
		return fallbackAssessment()
	}

	var resp classifierResponse
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &resp); err != nil {
		log.Printf("classifier: malformed response for %s: %v", documentName, err)
		return fallbackAssessment()
	}
	if resp.ActionDraft == "" || resp.AIAnalysis == "" {
		return fallbackAssessment()
	}

	return Assessment{
		ImpactLevel:     domain.ParseImpactLevel(resp.ImpactLevel),
		ActionDraft:     resp.ActionDraft,
		AnalysisSummary: resp.AIAnalysis,
	}
}

func fallbackAssessment() Assessment {
	return Assessment{
		ImpactLevel:     domain.ImpactLow,
		ActionDraft:     fallbackActionDraft,
		AnalysisSummary: fallbackAnalysisSummary,
	}
}

// stripCodeFence removes a ```json ... ``` wrapper some models emit even in
// JSON mode.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
