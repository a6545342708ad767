package usecase

import (
	"context"

	"github.com/catalpa-lab/dynagent/pkg/domain/model"
	"github.com/catalpa-lab/dynagent/pkg/domain/types"
	"github.com/catalpa-lab/dynagent/pkg/utils/logging"
)

// retrieveContext fetches retrieval-augmented knowledge for the latest
// user utterance. It is a no-op unless the config carries at least one
// indexed retrieval-mode entry and the turn has a user message. Retriever
// failures degrade to empty context; they never abort the turn.
func (r *Runtime) retrieveContext(ctx context.Context, cfg *model.AgentConfig, turn *model.TurnContext) string {
	if r.retriever == nil {
		return ""
	}

	indexed := false
	for _, entry := range cfg.Knowledge {
		if entry.InclusionMode == types.IncludeRAG && entry.RAGStatus == types.RAGStatusIndexed {
			indexed = true
			break
		}
	}
	if !indexed {
		return ""
	}

	query := turn.LastUserMessage()
	if query == "" {
		return ""
	}

	text, err := r.retriever.RetrieveForAgent(ctx, r.agentID, query, cfg.RAGConfig)
	if err != nil {
		logging.From(ctx).Warn("failed to retrieve knowledge context",
			"agentID", string(r.agentID),
			"error", err.Error(),
		)
		return ""
	}
	return text
}
