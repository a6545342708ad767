package interfaces

import (
	"context"

	"github.com/catalpa-lab/dynagent/pkg/domain/model"
	"github.com/catalpa-lab/dynagent/pkg/domain/types"
)

// AgentStore resolves effective agent configurations from the
// authoritative definition store.
type AgentStore interface {
	GetEffectiveConfig(ctx context.Context, agentID types.AgentID) (*model.AgentConfig, error)
}

// Retriever returns formatted knowledge context for a query against an
// agent's indexed knowledge sources.
type Retriever interface {
	RetrieveForAgent(ctx context.Context, agentID types.AgentID, query string, ragConfig map[string]any) (string, error)
}

// ExecuteRequest carries everything a tool executor needs for one call
type ExecuteRequest struct {
	FunctionPath string
	Arguments    map[string]any
	RunID        types.RunID
	UserID       types.UserID
	ToolID       string
}

// ToolExecutor runs a dynamically configured tool. The result is either a
// string (passed to the model verbatim) or a structured value that the
// dispatcher serializes to JSON.
type ToolExecutor interface {
	Execute(ctx context.Context, req *ExecuteRequest) (any, error)
}

// ToolFunc is the dispatch callback handed to the agentic loop. It never
// returns an error for per-call failures; those come back as structured
// error text so the model can recover.
type ToolFunc func(ctx context.Context, name string, args map[string]any) (string, error)

// LoopRequest is the input contract of the external agentic loop
type LoopRequest struct {
	Messages []model.Message
	// Tools is the provider-facing tool surface. A nil slice means no
	// tools field at all, which providers treat differently from an
	// empty tools array.
	Tools         []model.ToolSchema
	Execute       ToolFunc
	Model         string
	ModelSettings map[string]any
	MaxIterations int
}

// LoopResult is the outcome of one agentic loop run
type LoopResult struct {
	FinalContent string
	Messages     []model.Message
}

// AgentLoop drives the model/tool iteration until a final response.
// A returned error is fatal to the turn.
type AgentLoop interface {
	Run(ctx context.Context, req *LoopRequest) (*LoopResult, error)
}

// EventSink receives observable runtime events, best-effort
type EventSink interface {
	Emit(ctx context.Context, event types.EventType, payload map[string]any)
}
