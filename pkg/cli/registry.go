package cli

import (
	"context"

	"github.com/m-mizutani/goerr/v2"

	"github.com/catalpa-lab/dynagent/pkg/domain/interfaces"
	"github.com/catalpa-lab/dynagent/pkg/service/agents"
	"github.com/catalpa-lab/dynagent/pkg/service/events"
	"github.com/catalpa-lab/dynagent/pkg/service/executor"
	"github.com/catalpa-lab/dynagent/pkg/service/llm"
	"github.com/catalpa-lab/dynagent/pkg/service/loop"
	"github.com/catalpa-lab/dynagent/pkg/service/retrieval"
	"github.com/catalpa-lab/dynagent/pkg/usecase"
	"github.com/catalpa-lab/dynagent/pkg/utils/logging"
)

// buildRegistry wires a runtime for every agent declared in the store.
// Retrieval is enabled only when an embedding-capable client can be
// built from the configured credentials; without one the agents still
// run, just without retrieval-augmented knowledge.
func buildRegistry(ctx context.Context, store *agents.FileStore, factory *llm.Factory, repo interfaces.Repository) (*usecase.Registry, error) {
	loopSvc, err := loop.New(factory)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to initialize agent loop")
	}

	var retriever interfaces.Retriever
	if embClient, err := factory.Client(ctx, usecase.DefaultModel, nil); err != nil {
		logging.Default().Warn("retrieval disabled: no embedding-capable LLM client", "error", err.Error())
	} else {
		svc, err := retrieval.New(repo, embClient)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to initialize retrieval service")
		}
		retriever = svc
	}

	exec := executor.NewRegistry()
	sink := events.NewLogSink()

	ids, err := store.AgentIDs()
	if err != nil {
		return nil, err
	}

	registry := usecase.NewRegistry()
	for _, id := range ids {
		opts := []usecase.Option{
			usecase.WithRepository(repo),
			usecase.WithToolExecutor(exec),
			usecase.WithEventSink(sink),
		}
		if retriever != nil {
			opts = append(opts, usecase.WithRetriever(retriever))
		}
		registry.Register(usecase.New(id, store, loopSvc, opts...))
	}

	return registry, nil
}
