package usecase_test

import (
	"context"
	"testing"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/gt"

	"github.com/catalpa-lab/dynagent/pkg/domain/interfaces"
	"github.com/catalpa-lab/dynagent/pkg/domain/model"
	"github.com/catalpa-lab/dynagent/pkg/domain/types"
	"github.com/catalpa-lab/dynagent/pkg/repository/memory"
	"github.com/catalpa-lab/dynagent/pkg/usecase"
)

// mockStore is a mock AgentStore for runtime testing
type mockStore struct {
	config    *model.AgentConfig
	err       error
	callCount int
}

func (s *mockStore) GetEffectiveConfig(ctx context.Context, agentID types.AgentID) (*model.AgentConfig, error) {
	s.callCount++
	if s.err != nil {
		return nil, s.err
	}
	return s.config, nil
}

// mockLoop is a mock AgentLoop that records the request it receives
type mockLoop struct {
	req    *interfaces.LoopRequest
	result *interfaces.LoopResult
	err    error
}

func (l *mockLoop) Run(ctx context.Context, req *interfaces.LoopRequest) (*interfaces.LoopResult, error) {
	l.req = req
	if l.err != nil {
		return nil, l.err
	}
	if l.result != nil {
		return l.result, nil
	}
	return &interfaces.LoopResult{
		FinalContent: "final answer",
		Messages: append(req.Messages, model.Message{
			Role:    model.RoleAssistant,
			Content: "final answer",
		}),
	}, nil
}

// mockRetriever is a mock Retriever with a fixed response
type mockRetriever struct {
	text  string
	err   error
	query string
}

func (r *mockRetriever) RetrieveForAgent(ctx context.Context, agentID types.AgentID, query string, ragConfig map[string]any) (string, error) {
	r.query = query
	return r.text, r.err
}

// recordSink records emitted events for assertions
type recordSink struct {
	events   []types.EventType
	payloads []map[string]any
}

func (s *recordSink) Emit(ctx context.Context, event types.EventType, payload map[string]any) {
	s.events = append(s.events, event)
	s.payloads = append(s.payloads, payload)
}

func userTurn(content string) *model.TurnContext {
	return &model.TurnContext{
		Messages: []model.Message{{Role: model.RoleUser, Content: content}},
	}
}

func TestRuntime_Run(t *testing.T) {
	ctx := context.Background()

	t.Run("assembles system prompt from base and knowledge layers", func(t *testing.T) {
		store := &mockStore{config: &model.AgentConfig{
			SystemPrompt: "Be helpful.",
			Knowledge: []model.KnowledgeEntry{
				{Name: "Policy", Content: "No refunds.", InclusionMode: types.IncludeAlways},
			},
		}}
		loop := &mockLoop{}
		rt := usecase.New("support-bot", store, loop)

		result, err := rt.Run(ctx, userTurn("hello"))
		gt.NoError(t, err).Required()
		gt.Value(t, result.FinalContent).Equal("final answer")

		gt.Array(t, loop.req.Messages).Length(2).Required()
		gt.Value(t, loop.req.Messages[0].Role).Equal(model.RoleSystem)
		gt.Value(t, loop.req.Messages[0].Content).Equal("Be helpful.\n\n## Policy\nNo refunds.")
		gt.Value(t, loop.req.Messages[1].Content).Equal("hello")
	})

	t.Run("appends retrieval layer when agent has indexed entries", func(t *testing.T) {
		store := &mockStore{config: &model.AgentConfig{
			SystemPrompt: "Base.",
			Knowledge: []model.KnowledgeEntry{
				{Name: "Docs", InclusionMode: types.IncludeRAG, RAGStatus: types.RAGStatusIndexed},
			},
		}}
		loop := &mockLoop{}
		retriever := &mockRetriever{text: "## Retrieved Knowledge\n\n### Docs\nSome detail"}
		rt := usecase.New("rag-bot", store, loop, usecase.WithRetriever(retriever))

		_, err := rt.Run(ctx, userTurn("what about the detail?"))
		gt.NoError(t, err).Required()

		gt.Value(t, retriever.query).Equal("what about the detail?")
		gt.Value(t, loop.req.Messages[0].Content).
			Equal("Base.\n\n## Retrieved Knowledge\n\n### Docs\nSome detail")
	})

	t.Run("retriever failure degrades to no retrieval layer", func(t *testing.T) {
		store := &mockStore{config: &model.AgentConfig{
			SystemPrompt: "Base.",
			Knowledge: []model.KnowledgeEntry{
				{Name: "Docs", InclusionMode: types.IncludeRAG, RAGStatus: types.RAGStatusIndexed},
			},
		}}
		loop := &mockLoop{}
		retriever := &mockRetriever{err: goerr.New("embedding backend down")}
		rt := usecase.New("rag-bot", store, loop, usecase.WithRetriever(retriever))

		_, err := rt.Run(ctx, userTurn("hello"))
		gt.NoError(t, err).Required()
		gt.Value(t, loop.req.Messages[0].Content).Equal("Base.")
	})

	t.Run("recalls stored memories into the prompt", func(t *testing.T) {
		repo := memory.New()
		_, err := repo.Memory().Append(ctx, "u1", "c1", &model.MemoryRecord{
			Key: "user_name", Value: "Alice", Source: types.MemorySourceAgent,
		})
		gt.NoError(t, err).Required()
		_, err = repo.Memory().Append(ctx, "u1", "c1", &model.MemoryRecord{
			Key: "goal", Value: "ship v2", Source: types.MemorySourceAgent,
		})
		gt.NoError(t, err).Required()

		store := &mockStore{config: &model.AgentConfig{SystemPrompt: "Base."}}
		loop := &mockLoop{}
		rt := usecase.New("memo-bot", store, loop, usecase.WithRepository(repo))

		turn := userTurn("hi")
		turn.ConversationID = "c1"
		turn.Metadata = map[string]any{"user_id": "u1"}

		_, err = rt.Run(ctx, turn)
		gt.NoError(t, err).Required()

		gt.Value(t, loop.req.Messages[0].Content).
			Equal("Base.\n\n## Conversation Memory\n- user_name: Alice\n- goal: ship v2")
	})

	t.Run("omits system message when all layers are empty", func(t *testing.T) {
		store := &mockStore{config: &model.AgentConfig{}}
		loop := &mockLoop{}
		rt := usecase.New("bare-bot", store, loop)

		_, err := rt.Run(ctx, userTurn("hello"))
		gt.NoError(t, err).Required()

		gt.Array(t, loop.req.Messages).Length(1)
		gt.Value(t, loop.req.Messages[0].Role).Equal(model.RoleUser)
	})

	t.Run("appends remember tool when memory enabled", func(t *testing.T) {
		store := &mockStore{config: &model.AgentConfig{SystemPrompt: "Base."}}
		loop := &mockLoop{}
		rt := usecase.New("memo-bot", store, loop, usecase.WithRepository(memory.New()))

		_, err := rt.Run(ctx, userTurn("hi"))
		gt.NoError(t, err).Required()

		gt.Array(t, loop.req.Tools).Length(1).Required()
		gt.Value(t, loop.req.Tools[0].Function.Name).Equal("remember")
	})

	t.Run("no tool surface at all when memory disabled and no tools configured", func(t *testing.T) {
		store := &mockStore{config: &model.AgentConfig{
			SystemPrompt: "Base.",
			Extra:        map[string]any{"memory_enabled": false},
		}}
		loop := &mockLoop{}
		rt := usecase.New("plain-bot", store, loop)

		_, err := rt.Run(ctx, userTurn("hi"))
		gt.NoError(t, err).Required()

		gt.Value(t, loop.req.Tools).Nil()
	})

	t.Run("model resolution prefers turn override, then config, then default", func(t *testing.T) {
		store := &mockStore{config: &model.AgentConfig{Model: "claude-sonnet-4"}}
		loop := &mockLoop{}
		rt := usecase.New("bot", store, loop)

		turn := userTurn("hi")
		turn.Params = map[string]any{"model": "gpt-4o"}
		_, err := rt.Run(ctx, turn)
		gt.NoError(t, err).Required()
		gt.Value(t, loop.req.Model).Equal("gpt-4o")

		_, err = rt.Run(ctx, userTurn("hi"))
		gt.NoError(t, err).Required()
		gt.Value(t, loop.req.Model).Equal("claude-sonnet-4")

		store.config = &model.AgentConfig{}
		rt.Refresh()
		_, err = rt.Run(ctx, userTurn("hi"))
		gt.NoError(t, err).Required()
		gt.Value(t, loop.req.Model).Equal(usecase.DefaultModel)
	})

	t.Run("emits assistant_message on success", func(t *testing.T) {
		store := &mockStore{config: &model.AgentConfig{SystemPrompt: "Base."}}
		loop := &mockLoop{}
		sink := &recordSink{}
		rt := usecase.New("bot", store, loop, usecase.WithEventSink(sink))

		_, err := rt.Run(ctx, userTurn("hi"))
		gt.NoError(t, err).Required()

		gt.Array(t, sink.events).Length(1).Required()
		gt.Value(t, sink.events[0]).Equal(types.EventAssistantMessage)
		gt.Value(t, sink.payloads[0]["content"]).Equal("final answer")
	})

	t.Run("loop failure emits run_failed and returns error", func(t *testing.T) {
		store := &mockStore{config: &model.AgentConfig{SystemPrompt: "Base."}}
		loop := &mockLoop{err: goerr.New("provider unavailable")}
		sink := &recordSink{}
		rt := usecase.New("bot", store, loop, usecase.WithEventSink(sink))

		_, err := rt.Run(ctx, userTurn("hi"))
		gt.Error(t, err)

		gt.Array(t, sink.events).Length(1).Required()
		gt.Value(t, sink.events[0]).Equal(types.EventRunFailed)
	})

	t.Run("config resolution failure aborts before the loop", func(t *testing.T) {
		store := &mockStore{err: goerr.New("definition file missing")}
		loop := &mockLoop{}
		rt := usecase.New("bot", store, loop)

		_, err := rt.Run(ctx, userTurn("hi"))
		gt.Error(t, err)
		gt.Value(t, loop.req).Nil()
	})
}

func TestRuntime_ConfigCaching(t *testing.T) {
	ctx := context.Background()
	store := &mockStore{config: &model.AgentConfig{SystemPrompt: "v1"}}
	rt := usecase.New("bot", store, &mockLoop{})

	cfg, err := rt.Config(ctx)
	gt.NoError(t, err).Required()
	gt.Value(t, cfg.SystemPrompt).Equal("v1")

	// Cached: the store is not consulted again
	store.config = &model.AgentConfig{SystemPrompt: "v2"}
	cfg, err = rt.Config(ctx)
	gt.NoError(t, err).Required()
	gt.Value(t, cfg.SystemPrompt).Equal("v1")
	gt.Number(t, store.callCount).Equal(1)

	// Refresh invalidates; next access re-resolves
	rt.Refresh()
	cfg, err = rt.Config(ctx)
	gt.NoError(t, err).Required()
	gt.Value(t, cfg.SystemPrompt).Equal("v2")
	gt.Number(t, store.callCount).Equal(2)
}

func TestRegistry(t *testing.T) {
	store := &mockStore{config: &model.AgentConfig{}}
	loop := &mockLoop{}

	registry := usecase.NewRegistry()
	registry.Register(usecase.New("alpha", store, loop))
	registry.Register(usecase.New("beta", store, loop))

	rt, err := registry.Get("alpha")
	gt.NoError(t, err).Required()
	gt.Value(t, rt.ID()).Equal(types.AgentID("alpha"))

	_, err = registry.Get("gamma")
	gt.Error(t, err)

	runtimes := registry.List()
	gt.Array(t, runtimes).Length(2).Required()
	gt.Value(t, runtimes[0].ID()).Equal(types.AgentID("alpha"))
	gt.Value(t, runtimes[1].ID()).Equal(types.AgentID("beta"))
}
