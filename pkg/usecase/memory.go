package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/catalpa-lab/dynagent/pkg/domain/interfaces"
	"github.com/catalpa-lab/dynagent/pkg/domain/model"
	"github.com/catalpa-lab/dynagent/pkg/domain/types"
	"github.com/catalpa-lab/dynagent/pkg/utils/logging"
)

// memoryScope is a conversation memory handle bound to one
// (user, conversation) pair for the duration of a turn.
type memoryScope struct {
	repo           interfaces.MemoryRepository
	userID         types.UserID
	conversationID types.ConversationID
}

// acquireMemoryScope returns the memory handle for this turn, or nil when
// memory is unavailable: no repository configured, or the turn lacks a
// user identity or conversation id. Absence is not an error; dependent
// behavior silently no-ops.
func (r *Runtime) acquireMemoryScope(ctx context.Context, turn *model.TurnContext) *memoryScope {
	if r.repo == nil {
		return nil
	}

	userID := turn.UserID()
	if userID == "" || turn.ConversationID == "" {
		logging.From(ctx).Debug("memory not available for turn",
			"userID", string(userID),
			"conversationID", string(turn.ConversationID),
		)
		return nil
	}

	return &memoryScope{
		repo:           r.repo.Memory(),
		userID:         userID,
		conversationID: turn.ConversationID,
	}
}

// recall fetches all records in scope and formats them for the prompt,
// one line per key/value in store order. Failures degrade to empty.
func (s *memoryScope) recall(ctx context.Context) string {
	if s == nil {
		return ""
	}

	records, err := s.repo.List(ctx, s.userID, s.conversationID)
	if err != nil {
		logging.From(ctx).Warn("failed to recall memories", "error", err.Error())
		return ""
	}
	if len(records) == 0 {
		return ""
	}

	logging.From(ctx).Info("recalled memories", "count", len(records))

	var sb strings.Builder
	sb.WriteString("## Conversation Memory\n")
	for _, rec := range records {
		fmt.Fprintf(&sb, "- %s: %s\n", rec.Key, rec.Value)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// executeRemember handles the built-in remember tool. Every outcome is a
// structured payload returned as the tool's result text; nothing here is
// raised past the tool-call boundary.
func (r *Runtime) executeRemember(ctx context.Context, scope *memoryScope, args map[string]any) string {
	if scope == nil {
		return jsonPayload(map[string]any{
			"error": "Memory not available for this conversation",
			"hint":  "Memory requires a logged-in user and conversation context",
		})
	}

	key := strings.TrimSpace(stringArg(args, "key"))
	value := strings.TrimSpace(stringArg(args, "value"))

	if key == "" {
		return errorPayload("Missing required parameter: key")
	}
	if value == "" {
		return errorPayload("Missing required parameter: value")
	}

	rec := &model.MemoryRecord{
		Key:    key,
		Value:  value,
		Source: types.MemorySourceAgent,
	}
	if _, err := scope.repo.Append(ctx, scope.userID, scope.conversationID, rec); err != nil {
		logging.From(ctx).Error("failed to store memory", "key", key, "error", err.Error())
		return errorPayload(err.Error())
	}

	logging.From(ctx).Info("stored memory", "key", key)
	return jsonPayload(map[string]any{
		"success": true,
		"message": "Remembered: " + key,
	})
}

func stringArg(args map[string]any, name string) string {
	if args == nil {
		return ""
	}
	if v, ok := args[name].(string); ok {
		return v
	}
	return ""
}
