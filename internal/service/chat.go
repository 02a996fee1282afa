package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/complyflow-labs/complyflow/internal/domain"
)

const (
	// chatSearchK is the number of snippets retrieved for a chat answer.
	chatSearchK = 5
	// citationMaxChars bounds citation content for display.
	citationMaxChars = 300
	// historyTurns is how many prior exchanges are included in the prompt.
	historyTurns = 3
	// shortQueryTokens marks a message as needing follow-up expansion.
	shortQueryTokens = 8
	// irrelevantSentinel is the token the model emits when the question is
	// outside the compliance domain.
	irrelevantSentinel = "FALLBACK_IRRELEVANT"
)

const (
	greetingReply = "Hello! I'm your GST compliance assistant. Ask me about notifications, circulars, input tax credit, invoicing rules or anything else under the GST framework."
	refusalReply  = "I can only help with GST and tax compliance questions. Please ask me something related to your compliance obligations."
	outageReply   = "The compliance assistant is temporarily unavailable. Please try again in a few minutes."
)

var greetingWords = map[string]struct{}{
	"hi": {}, "hello": {}, "hey": {}, "yo": {}, "namaste": {}, "greetings": {},
}

var referencePronouns = map[string]struct{}{
	"this": {}, "that": {}, "it": {}, "them": {}, "those": {}, "they": {},
}

// ConversationHints carries caller-supplied targeting for the conversation.
type ConversationHints struct {
	// TargetDocName scopes retrieval to one document's chunks.
	TargetDocName string
	// PriorAnalysis is previously computed classifier or audit output,
	// injected into the prompt as grounding.
	PriorAnalysis string
}

// Citation is one retrieved snippet backing an answer.
type Citation struct {
	Index   int
	Source  string
	Content string
}

// ChatResponse is the orchestrator's answer to one user message.
type ChatResponse struct {
	Text        string
	Citations   []Citation
	Suggestions []string
}

// ConversationRetriever defines the retrieval interface the orchestrator uses
type ConversationRetriever interface {
	Search(ctx context.Context, query string, k int, filter domain.ChunkFilter) ([]Snippet, error)
}

// ChatService assembles conversation context, retrieves grounding snippets
// and produces a cited answer. Generation failures degrade to deterministic
// fallbacks; the only error it returns is for invalid input.
type ChatService struct {
	retriever   ConversationRetriever
	completions CompletionClient
}

// NewChatService creates a new ChatService instance
func NewChatService(retriever ConversationRetriever, completions CompletionClient) *ChatService {
	return &ChatService{retriever: retriever, completions: completions}
}

// Respond answers one user message given the conversation so far.
func (s *ChatService) Respond(ctx context.Context, message string, history []domain.Turn, hints ConversationHints) (*ChatResponse, error) {
	if strings.TrimSpace(message) == "" {
		return nil, domain.ErrEmptyMessage
	}

	// Greeting short-circuit happens before any network call.
	if isGreeting(message) {
		return &ChatResponse{
			Text:        greetingReply,
			Suggestions: defaultSuggestions(),
		}, nil
	}

	searchQuery := s.expandQuery(message, history, hints)
	snippets := s.retrieve(ctx, searchQuery, hints)

	citations := buildCitations(snippets)
	prompt := s.buildPrompt(message, history, hints, snippets)

	answer, err := s.completions.Complete(ctx, prompt, false)
	if err != nil {
		log.Printf("chat: generation failed: %v", err)
		return &ChatResponse{
			Text:        partialReview(snippets),
			Citations:   citations,
			Suggestions: buildSuggestions(message, snippets),
		}, nil
	}

	if strings.Contains(answer, irrelevantSentinel) {
		return &ChatResponse{
			Text:        refusalReply,
			Suggestions: defaultSuggestions(),
		}, nil
	}

	return &ChatResponse{
		Text:        strings.TrimSpace(answer),
		Citations:   citations,
		Suggestions: buildSuggestions(message, snippets),
	}, nil
}

func isGreeting(message string) bool {
	tokens := tokenize(message)
	if len(tokens) == 0 || len(tokens) > 3 {
		return false
	}
	for _, tok := range tokens {
		if _, ok := greetingWords[tok]; !ok {
			return false
		}
	}
	return true
}

// expandQuery prepends the prior user turn when the message is short or
// leans on a reference pronoun. Single-turn lookback only; targeted-document
// conversations skip expansion since the filter already scopes retrieval.
func (s *ChatService) expandQuery(message string, history []domain.Turn, hints ConversationHints) string {
	if hints.TargetDocName != "" || len(history) == 0 {
		return message
	}

	tokens := tokenize(message)
	needsContext := len(tokens) < shortQueryTokens
	if !needsContext {
		for _, tok := range tokens {
			if _, ok := referencePronouns[tok]; ok {
				needsContext = true
				break
			}
		}
	}
	if !needsContext {
		return message
	}

	prior := domain.LastUserTurn(history)
	if prior == "" {
		return message
	}
	return prior + "\n" + message
}

// retrieve runs the search, retrying once without the document filter when a
// targeted search comes back empty. Retrieval failures yield no snippets
// rather than an error; the fallback path covers the rest.
func (s *ChatService) retrieve(ctx context.Context, query string, hints ConversationHints) []Snippet {
	filter := domain.ChunkFilter{}
	if hints.TargetDocName != "" {
		filter.Source = hints.TargetDocName
	}

	snippets, err := s.retriever.Search(ctx, query, chatSearchK, filter)
	if err != nil {
		log.Printf("chat: retrieval failed: %v", err)
		return nil
	}
	if len(snippets) == 0 && !filter.IsZero() {
		snippets, err = s.retriever.Search(ctx, query, chatSearchK, domain.ChunkFilter{})
		if err != nil {
			log.Printf("chat: fallback retrieval failed: %v", err)
			return nil
		}
	}
	return snippets
}

func (s *ChatService) buildPrompt(message string, history []domain.Turn, hints ConversationHints, snippets []Snippet) string {
	var sb strings.Builder
	sb.WriteString("You are a GST compliance assistant for Indian businesses. Answer using only the provided context.\n")
	sb.WriteString(fmt.Sprintf("First decide whether the question is about GST or tax compliance; if it is not, reply with exactly %s and nothing else. Otherwise give a structured answer citing the context.\n\n", irrelevantSentinel))

	if hints.PriorAnalysis != "" {
		sb.WriteString("Prior analysis of the document under discussion:\n")
		sb.WriteString(hints.PriorAnalysis)
		sb.WriteString("\n\n")
	}

	recent := history
	if len(recent) > historyTurns*2 {
		recent = recent[len(recent)-historyTurns*2:]
	}
	if len(recent) > 0 {
		sb.WriteString("Conversation so far:\n")
		for _, turn := range recent {
			sb.WriteString(fmt.Sprintf("%s: %s\n", turn.Role, turn.Content))
		}
		sb.WriteString("\n")
	}

	if len(snippets) > 0 {
		sb.WriteString("Context:\n")
		for i, sn := range snippets {
			sb.WriteString(fmt.Sprintf("[%d] (%s) %s\n", i+1, sn.Source, sn.Content))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("Question: ")
	sb.WriteString(message)
	return sb.String()
}

func buildCitations(snippets []Snippet) []Citation {
	citations := make([]Citation, 0, len(snippets))
	for i, sn := range snippets {
		citations = append(citations, Citation{
			Index:   i + 1,
			Source:  sn.Source,
			Content: truncateRunes(sn.Content, citationMaxChars),
		})
	}
	return citations
}

// partialReview is the deterministic answer used when generation fails but
// retrieval produced material: snippets grouped by source document.
func partialReview(snippets []Snippet) string {
	if len(snippets) == 0 {
		return outageReply
	}

	var sb strings.Builder
	sb.WriteString("Partial Document Review\n\nI could not generate a full answer right now, but these passages look relevant:\n")

	var order []string
	bySource := make(map[string][]string)
	for _, sn := range snippets {
		if _, seen := bySource[sn.Source]; !seen {
			order = append(order, sn.Source)
		}
		bySource[sn.Source] = append(bySource[sn.Source], truncateRunes(sn.Content, citationMaxChars))
	}

	for _, source := range order {
		sb.WriteString(fmt.Sprintf("\nFrom %s:\n", source))
		for _, excerpt := range bySource[source] {
			sb.WriteString("- " + excerpt + "\n")
		}
	}
	return strings.TrimSpace(sb.String())
}

func tokenize(message string) []string {
	fields := strings.Fields(strings.ToLower(message))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		tok := strings.Trim(f, ".,!?;:'\"")
		if tok != "" {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}
