package usecase

import "github.com/catalpa-lab/dynagent/pkg/domain/model"

// rememberToolName is the built-in memory tool. It is recognized by name
// at dispatch time and always takes precedence over config-declared tools
// with the same name.
const rememberToolName = "remember"

// rememberToolSchema is the provider-facing schema of the built-in memory
// tool. It is appended to the schema list when memory is enabled but never
// enters the execution map.
func rememberToolSchema() model.ToolSchema {
	return model.ToolSchema{
		Type: "function",
		Function: model.ToolFunction{
			Name: rememberToolName,
			Description: "Store information to remember for this conversation. Use this to remember " +
				"important facts about the user, their preferences, project details, or anything " +
				"that would be useful to recall in future messages within this conversation. " +
				"Examples: user's name, their goals, preferences, important context.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"key": map[string]any{
						"type": "string",
						"description": "A short, descriptive key for what you're remembering " +
							"(e.g., 'user_name', 'project_goal', 'preferred_language')",
					},
					"value": map[string]any{
						"type":        "string",
						"description": "The information to remember",
					},
				},
				"required": []any{"key", "value"},
			},
		},
	}
}

// buildToolSchemas projects the configured tools into provider-facing
// schemas, in config order, and appends the built-in memory tool when
// memory is enabled. A nil result means no tool surface at all, which the
// loop must translate to the provider's absence-of-tools form rather than
// an empty array.
func buildToolSchemas(cfg *model.AgentConfig, memoryEnabled bool) []model.ToolSchema {
	var schemas []model.ToolSchema
	for _, tool := range cfg.Tools {
		schemas = append(schemas, tool.Schema())
	}
	if memoryEnabled {
		schemas = append(schemas, rememberToolSchema())
	}
	return schemas
}

// toolTarget is the execution metadata of one configured tool
type toolTarget struct {
	functionPath string
	toolID       string
	isDynamic    bool
}

// buildToolMap maps tool names to their execution metadata. A repeated
// name overwrites the earlier entry; config authors are responsible for
// uniqueness.
func buildToolMap(cfg *model.AgentConfig) map[string]toolTarget {
	targets := make(map[string]toolTarget, len(cfg.Tools))
	for _, tool := range cfg.Tools {
		name := tool.Function.Name
		if name == "" {
			continue
		}
		targets[name] = toolTarget{
			functionPath: tool.Meta.FunctionPath,
			toolID:       tool.Meta.ToolID,
			isDynamic:    tool.Meta.IsDynamic,
		}
	}
	return targets
}
