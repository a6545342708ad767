package model

import "github.com/catalpa-lab/dynagent/pkg/domain/types"

// Message is one entry of a conversation transcript
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Name    string `json:"name,omitempty"` // tool name on tool messages
}

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// TurnContext carries the inputs of one conversational turn
type TurnContext struct {
	Messages       []Message
	ConversationID types.ConversationID
	RunID          types.RunID
	Params         map[string]any
	Metadata       map[string]any
}

// UserID returns the user id from turn metadata, empty when unknown
func (t *TurnContext) UserID() types.UserID {
	if t.Metadata == nil {
		return ""
	}
	if v, ok := t.Metadata["user_id"].(string); ok {
		return types.UserID(v)
	}
	return ""
}

// ModelOverride returns the per-call model override, empty when unset
func (t *TurnContext) ModelOverride() string {
	if t.Params == nil {
		return ""
	}
	if v, ok := t.Params["model"].(string); ok {
		return v
	}
	return ""
}

// LastUserMessage returns the content of the most recent user message,
// scanning from the end. Empty when the turn carries no user message.
func (t *TurnContext) LastUserMessage() string {
	for i := len(t.Messages) - 1; i >= 0; i-- {
		if t.Messages[i].Role == RoleUser {
			return t.Messages[i].Content
		}
	}
	return ""
}

// TurnResult is the outcome of one turn: the final assistant text and the
// full transcript including tool exchanges.
type TurnResult struct {
	FinalContent string
	Messages     []Message
}
