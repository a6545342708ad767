package usecase

import (
	"sync"

	"github.com/m-mizutani/goerr/v2"

	"github.com/catalpa-lab/dynagent/pkg/domain/types"
)

// Registry holds the runtimes of all configured agents, keyed by agent
// id. Registration order is preserved for listing.
type Registry struct {
	mu      sync.RWMutex
	entries map[types.AgentID]*Runtime
	order   []types.AgentID
}

// NewRegistry creates a new empty Registry
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[types.AgentID]*Runtime),
	}
}

// Register adds a runtime to the registry, replacing any previous runtime
// for the same agent id.
func (r *Registry) Register(runtime *Runtime) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := runtime.ID()
	if _, exists := r.entries[id]; !exists {
		r.order = append(r.order, id)
	}
	r.entries[id] = runtime
}

// Get returns the runtime for the given agent id
func (r *Registry) Get(agentID types.AgentID) (*Runtime, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	runtime, exists := r.entries[agentID]
	if !exists {
		return nil, goerr.New("agent not registered", goerr.V("agentID", agentID))
	}
	return runtime, nil
}

// List returns all registered runtimes in registration order
func (r *Registry) List() []*Runtime {
	r.mu.RLock()
	defer r.mu.RUnlock()

	runtimes := make([]*Runtime, 0, len(r.order))
	for _, id := range r.order {
		runtimes = append(runtimes, r.entries[id])
	}
	return runtimes
}
