package usecase

import (
	"context"
	"sync"

	"github.com/m-mizutani/goerr/v2"

	"github.com/catalpa-lab/dynagent/pkg/domain/interfaces"
	"github.com/catalpa-lab/dynagent/pkg/domain/model"
	"github.com/catalpa-lab/dynagent/pkg/domain/types"
	"github.com/catalpa-lab/dynagent/pkg/utils/logging"
)

// DefaultModel is used when neither the turn params nor the agent config
// select a model.
const DefaultModel = "gemini-2.0-flash"

// maxLoopIterations bounds the agentic loop so adversarial tool-calling
// chains terminate.
const maxLoopIterations = 15

// Runtime executes conversational turns for one configuration-defined
// agent. The effective configuration is resolved once and cached; Refresh
// forces re-resolution on next access.
type Runtime struct {
	agentID types.AgentID
	store   interfaces.AgentStore
	loop    interfaces.AgentLoop

	repo      interfaces.Repository
	retriever interfaces.Retriever
	executor  interfaces.ToolExecutor
	events    interfaces.EventSink

	mu     sync.Mutex
	config *model.AgentConfig
}

// Option configures optional runtime collaborators
type Option func(*Runtime)

// WithRepository enables conversation memory backed by the given repository
func WithRepository(repo interfaces.Repository) Option {
	return func(r *Runtime) {
		r.repo = repo
	}
}

// WithRetriever enables retrieval-augmented knowledge inclusion
func WithRetriever(retriever interfaces.Retriever) Option {
	return func(r *Runtime) {
		r.retriever = retriever
	}
}

// WithToolExecutor enables execution of dynamically configured tools
func WithToolExecutor(executor interfaces.ToolExecutor) Option {
	return func(r *Runtime) {
		r.executor = executor
	}
}

// WithEventSink registers a sink for observable runtime events
func WithEventSink(events interfaces.EventSink) Option {
	return func(r *Runtime) {
		r.events = events
	}
}

// New creates a Runtime for the given agent. The store resolves the agent
// definition and the loop drives model/tool iteration; both are required.
func New(agentID types.AgentID, store interfaces.AgentStore, loop interfaces.AgentLoop, opts ...Option) *Runtime {
	r := &Runtime{
		agentID: agentID,
		store:   store,
		loop:    loop,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ID returns the agent id this runtime executes
func (r *Runtime) ID() types.AgentID {
	return r.agentID
}

// Config returns the effective agent configuration, resolving and caching
// it on first access.
func (r *Runtime) Config(ctx context.Context) (*model.AgentConfig, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.config != nil {
		return r.config, nil
	}

	cfg, err := r.store.GetEffectiveConfig(ctx, r.agentID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to resolve effective agent config",
			goerr.V("agentID", r.agentID),
		)
	}

	r.config = cfg
	return cfg, nil
}

// Refresh invalidates the cached configuration. The next access resolves
// it again from the authoritative store.
func (r *Runtime) Refresh() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.config = nil
}

// Run executes one conversational turn: it assembles the system prompt
// from the configured layers, builds the tool surface, hands control to
// the agentic loop, and returns the final content with the full
// transcript. Degraded layers (retrieval, memory) never abort the turn;
// a failure of the loop itself does.
func (r *Runtime) Run(ctx context.Context, turn *model.TurnContext) (*model.TurnResult, error) {
	logger := logging.From(ctx)

	cfg, err := r.Config(ctx)
	if err != nil {
		return nil, err
	}

	runID := turn.RunID
	if runID == "" {
		runID = types.NewRunID()
	}

	memoryEnabled := cfg.MemoryEnabled()

	systemPrompt := cfg.SystemPrompt
	if kc := buildKnowledgeContext(cfg); kc != "" {
		systemPrompt = joinLayers(systemPrompt, kc)
	}
	if rc := r.retrieveContext(ctx, cfg, turn); rc != "" {
		systemPrompt = joinLayers(systemPrompt, rc)
	}

	var scope *memoryScope
	if memoryEnabled {
		scope = r.acquireMemoryScope(ctx, turn)
		if mc := scope.recall(ctx); mc != "" {
			systemPrompt = joinLayers(systemPrompt, mc)
		}
	}

	var messages []model.Message
	if systemPrompt != "" {
		messages = append(messages, model.Message{Role: model.RoleSystem, Content: systemPrompt})
	}
	messages = append(messages, turn.Messages...)

	schemas := buildToolSchemas(cfg, memoryEnabled)
	toolMap := buildToolMap(cfg)
	if memoryEnabled {
		if _, shadowed := toolMap[rememberToolName]; shadowed {
			logger.Warn("configured tool is shadowed by the built-in memory tool",
				"tool", rememberToolName, "agentID", string(r.agentID))
		}
	}

	activeModel := turn.ModelOverride()
	if activeModel == "" {
		activeModel = cfg.Model
	}
	if activeModel == "" {
		activeModel = DefaultModel
	}

	res, err := r.loop.Run(ctx, &interfaces.LoopRequest{
		Messages:      messages,
		Tools:         schemas,
		Execute:       r.dispatcher(scope, toolMap, runID, turn.UserID()),
		Model:         activeModel,
		ModelSettings: cfg.ModelSettings,
		MaxIterations: maxLoopIterations,
	})
	if err != nil {
		r.emit(ctx, types.EventRunFailed, map[string]any{"error": err.Error()})
		return nil, goerr.Wrap(err, "agentic loop failed",
			goerr.V("agentID", r.agentID),
			goerr.V("runID", runID),
		)
	}

	if res.FinalContent != "" {
		r.emit(ctx, types.EventAssistantMessage, map[string]any{"content": res.FinalContent})
	}

	return &model.TurnResult{
		FinalContent: res.FinalContent,
		Messages:     res.Messages,
	}, nil
}

func (r *Runtime) emit(ctx context.Context, event types.EventType, payload map[string]any) {
	if r.events == nil {
		return
	}
	r.events.Emit(ctx, event, payload)
}

// joinLayers appends a prompt layer with a blank-line separator. Empty
// base collapses to the layer itself.
func joinLayers(base, layer string) string {
	if base == "" {
		return layer
	}
	return base + "\n\n" + layer
}
