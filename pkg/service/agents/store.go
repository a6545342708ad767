package agents

import (
	"context"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/pelletier/go-toml/v2"

	"github.com/catalpa-lab/dynagent/pkg/domain/interfaces"
	"github.com/catalpa-lab/dynagent/pkg/domain/model"
	"github.com/catalpa-lab/dynagent/pkg/domain/types"
)

// Definitions is the root of an agent definition file
type Definitions struct {
	Agents []Definition `toml:"agent"`
}

// Definition declares one agent in the definition file
type Definition struct {
	ID            string                `toml:"id"`
	SystemPrompt  string                `toml:"system_prompt"`
	Model         string                `toml:"model"`
	ModelSettings map[string]any        `toml:"model_settings"`
	Extra         map[string]any        `toml:"extra"`
	RAG           map[string]any        `toml:"rag"`
	Knowledge     []KnowledgeDefinition `toml:"knowledge"`
	Tools         []ToolDefinition      `toml:"tool"`
}

// KnowledgeDefinition declares one knowledge source on an agent
type KnowledgeDefinition struct {
	Name          string `toml:"name"`
	Content       string `toml:"content"`
	InclusionMode string `toml:"inclusion_mode"`
	RAGStatus     string `toml:"rag_status"`
}

// ToolDefinition declares one dynamic tool on an agent
type ToolDefinition struct {
	Name         string         `toml:"name"`
	Description  string         `toml:"description"`
	Parameters   map[string]any `toml:"parameters"`
	FunctionPath string         `toml:"function_path"`
	ToolID       string         `toml:"tool_id"`
}

// Validate checks if the KnowledgeDefinition is valid
func (k *KnowledgeDefinition) Validate() error {
	if k.Name == "" {
		return goerr.New("knowledge name is required")
	}
	mode := types.InclusionMode(k.InclusionMode)
	if k.InclusionMode == "" {
		mode = types.IncludeAlways
	}
	if err := mode.Validate(); err != nil {
		return goerr.Wrap(err, "invalid inclusion mode", goerr.V("name", k.Name))
	}
	return nil
}

// Validate checks if the ToolDefinition is valid
func (t *ToolDefinition) Validate() error {
	if t.Name == "" {
		return goerr.New("tool name is required")
	}
	return nil
}

// Validate checks if the Definition is valid
func (d *Definition) Validate() error {
	if d.ID == "" {
		return goerr.New("agent id is required")
	}

	for _, k := range d.Knowledge {
		if err := k.Validate(); err != nil {
			return goerr.Wrap(err, "invalid knowledge entry", goerr.V("agent", d.ID))
		}
	}

	toolNames := make(map[string]bool)
	for _, t := range d.Tools {
		if err := t.Validate(); err != nil {
			return goerr.Wrap(err, "invalid tool entry", goerr.V("agent", d.ID))
		}
		if toolNames[t.Name] {
			return goerr.New("duplicate tool name", goerr.V("agent", d.ID), goerr.V("tool", t.Name))
		}
		toolNames[t.Name] = true
	}

	return nil
}

// Validate checks if the Definitions set is valid
func (d *Definitions) Validate() error {
	agentIDs := make(map[string]bool)
	for _, a := range d.Agents {
		if err := a.Validate(); err != nil {
			return goerr.Wrap(err, "invalid agent definition")
		}
		if agentIDs[a.ID] {
			return goerr.New("duplicate agent ID", goerr.V("id", a.ID))
		}
		agentIDs[a.ID] = true
	}
	return nil
}

// ToAgentConfig converts a definition into its effective configuration
func (d *Definition) ToAgentConfig() *model.AgentConfig {
	knowledge := make([]model.KnowledgeEntry, len(d.Knowledge))
	for i, k := range d.Knowledge {
		mode := types.InclusionMode(k.InclusionMode)
		if k.InclusionMode == "" {
			mode = types.IncludeAlways
		}
		knowledge[i] = model.KnowledgeEntry{
			Name:          k.Name,
			Content:       k.Content,
			InclusionMode: mode,
			RAGStatus:     types.RAGStatus(k.RAGStatus),
		}
	}

	tools := make([]model.ToolSpec, len(d.Tools))
	for i, t := range d.Tools {
		tools[i] = model.ToolSpec{
			Type: "function",
			Function: model.ToolFunction{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
			Meta: model.ToolMeta{
				FunctionPath: t.FunctionPath,
				ToolID:       t.ToolID,
				IsDynamic:    true,
			},
		}
	}

	return &model.AgentConfig{
		SystemPrompt:  d.SystemPrompt,
		Knowledge:     knowledge,
		Tools:         tools,
		Model:         d.Model,
		ModelSettings: d.ModelSettings,
		Extra:         d.Extra,
		RAGConfig:     d.RAG,
	}
}

// LoadDefinitions loads agent definitions from a TOML file
func LoadDefinitions(path string) (*Definitions, error) {
	// #nosec G304 - path is expected to be provided by CLI argument
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read agent definition file", goerr.V("path", path))
	}

	var defs Definitions
	if err := toml.Unmarshal(data, &defs); err != nil {
		return nil, goerr.Wrap(err, "failed to parse TOML agent definitions", goerr.V("path", path))
	}

	if err := defs.Validate(); err != nil {
		return nil, goerr.Wrap(err, "agent definition validation failed", goerr.V("path", path))
	}

	return &defs, nil
}

// FileStore resolves agent configurations from a TOML definition file. The
// file is re-read on every resolution so that a refreshed runtime observes
// edits without a restart.
type FileStore struct {
	path string
}

var _ interfaces.AgentStore = &FileStore{}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// GetEffectiveConfig resolves the effective configuration for one agent
func (s *FileStore) GetEffectiveConfig(ctx context.Context, agentID types.AgentID) (*model.AgentConfig, error) {
	defs, err := LoadDefinitions(s.path)
	if err != nil {
		return nil, err
	}

	for i := range defs.Agents {
		if types.AgentID(defs.Agents[i].ID) == agentID {
			return defs.Agents[i].ToAgentConfig(), nil
		}
	}

	return nil, goerr.New("agent not found", goerr.V("agentID", agentID))
}

// AgentIDs lists the IDs declared in the definition file
func (s *FileStore) AgentIDs() ([]types.AgentID, error) {
	defs, err := LoadDefinitions(s.path)
	if err != nil {
		return nil, err
	}

	ids := make([]types.AgentID, len(defs.Agents))
	for i, a := range defs.Agents {
		ids[i] = types.AgentID(a.ID)
	}
	return ids, nil
}
