package model

import "github.com/catalpa-lab/dynagent/pkg/domain/types"

// AgentConfig is the effective configuration of one agent, resolved by the
// authoritative agent store. It is read-only within a turn; callers needing
// fresh data must refresh the runtime between turns.
type AgentConfig struct {
	SystemPrompt  string
	Knowledge     []KnowledgeEntry
	Tools         []ToolSpec
	Model         string
	ModelSettings map[string]any
	Extra         map[string]any
	RAGConfig     map[string]any
}

// MemoryEnabled reports whether conversation memory is enabled for this
// agent. Defaults to true when the extra config does not say otherwise.
func (c *AgentConfig) MemoryEnabled() bool {
	if c.Extra == nil {
		return true
	}
	if v, ok := c.Extra["memory_enabled"].(bool); ok {
		return v
	}
	return true
}

// KnowledgeEntry is one knowledge source declared on an agent definition
type KnowledgeEntry struct {
	Name          string
	Content       string
	InclusionMode types.InclusionMode
	RAGStatus     types.RAGStatus
}

// ToolSpec is a declarative tool entry from an agent definition.
// Function is what the model sees; Meta is execution-side only and must
// never be exposed through provider-facing schemas.
type ToolSpec struct {
	Type     string
	Function ToolFunction
	Meta     ToolMeta
}

// ToolFunction is the provider-facing function declaration
type ToolFunction struct {
	Name        string
	Description string
	Parameters  map[string]any
}

// ToolMeta carries execution metadata for a declared tool
type ToolMeta struct {
	FunctionPath string
	ToolID       string
	IsDynamic    bool
}

// ToolSchema is the provider-facing projection of a ToolSpec, stripped of
// execution metadata.
type ToolSchema struct {
	Type     string       `json:"type"`
	Function ToolFunction `json:"function"`
}

// Schema projects a ToolSpec into its provider-facing form. An empty Type
// defaults to "function".
func (t ToolSpec) Schema() ToolSchema {
	typ := t.Type
	if typ == "" {
		typ = "function"
	}
	return ToolSchema{Type: typ, Function: t.Function}
}
