package executor

import (
	"context"
	"sync"

	"github.com/m-mizutani/goerr/v2"

	"github.com/catalpa-lab/dynagent/pkg/domain/interfaces"
)

// Func is a dynamically dispatchable tool implementation. The result is
// either a string (returned to the model verbatim) or a structured value
// the dispatcher serializes to JSON.
type Func func(ctx context.Context, args map[string]any) (any, error)

// Registry maps function paths to registered implementations: the
// capability lookup table behind interfaces.ToolExecutor. The orchestrator
// never learns how a tool is implemented, only its path.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]Func
}

var _ interfaces.ToolExecutor = &Registry{}

func NewRegistry() *Registry {
	return &Registry{
		funcs: make(map[string]Func),
	}
}

// Register binds an implementation to a function path, replacing any
// previous binding.
func (r *Registry) Register(functionPath string, fn Func) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[functionPath] = fn
}

// Execute runs the implementation registered for the request's function
// path.
func (r *Registry) Execute(ctx context.Context, req *interfaces.ExecuteRequest) (any, error) {
	r.mu.RLock()
	fn, ok := r.funcs[req.FunctionPath]
	r.mu.RUnlock()

	if !ok {
		return nil, goerr.New("no function registered for path",
			goerr.V("functionPath", req.FunctionPath),
			goerr.V("toolID", req.ToolID),
		)
	}

	return fn(ctx, req.Arguments)
}
