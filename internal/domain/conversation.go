package domain

// Role identifies which side of a conversation a turn belongs to.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one message in a conversation. The ordered sequence of turns forms
// the history the orchestrator consumes for prompt assembly; persistence is
// owned by the caller.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// LastUserTurn returns the content of the most recent user turn, or "" when
// the history holds none.
func LastUserTurn(history []Turn) string {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == RoleUser {
			return history[i].Content
		}
	}
	return ""
}
