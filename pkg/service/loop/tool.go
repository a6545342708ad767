package loop

import (
	"context"
	"encoding/json"

	"github.com/m-mizutani/gollem"

	"github.com/catalpa-lab/dynagent/pkg/domain/interfaces"
	"github.com/catalpa-lab/dynagent/pkg/domain/model"
)

// callbackTool adapts one declared tool schema to a gollem.Tool whose
// execution goes through the runtime's dispatch callback.
type callbackTool struct {
	schema     model.ToolSchema
	execute    interfaces.ToolFunc
	transcript *transcript
}

var _ gollem.Tool = &callbackTool{}

func (t *callbackTool) Spec() gollem.ToolSpec {
	return gollem.ToolSpec{
		Name:        t.schema.Function.Name,
		Description: t.schema.Function.Description,
		Parameters:  convertParameters(t.schema.Function.Parameters),
	}
}

func (t *callbackTool) Run(ctx context.Context, args map[string]any) (map[string]any, error) {
	name := t.schema.Function.Name

	text, err := t.execute(ctx, name, args)
	if err != nil {
		// the dispatcher only errors on cancellation
		return nil, err
	}

	t.transcript.addToolExchange(name, args, text)

	// Structured payloads round-trip as maps so the provider layer never
	// double-encodes them; plain text is wrapped once.
	var structured map[string]any
	if json.Unmarshal([]byte(text), &structured) == nil {
		return structured, nil
	}
	return map[string]any{"result": text}, nil
}

// convertParameters translates a JSON-schema parameters object into
// gollem parameter declarations.
func convertParameters(schema map[string]any) map[string]*gollem.Parameter {
	params := make(map[string]*gollem.Parameter)
	if schema == nil {
		return params
	}

	props, _ := schema["properties"].(map[string]any)
	required := requiredSet(schema["required"])

	for name, raw := range props {
		prop, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		params[name] = convertProperty(prop, required[name])
	}
	return params
}

func convertProperty(prop map[string]any, required bool) *gollem.Parameter {
	p := &gollem.Parameter{
		Type:     parameterType(prop["type"]),
		Required: required,
	}
	if d, ok := prop["description"].(string); ok {
		p.Description = d
	}

	switch p.Type {
	case gollem.TypeArray:
		if items, ok := prop["items"].(map[string]any); ok {
			p.Items = convertProperty(items, false)
		}
	case gollem.TypeObject:
		if nested, ok := prop["properties"].(map[string]any); ok {
			nestedRequired := requiredSet(prop["required"])
			p.Properties = make(map[string]*gollem.Parameter, len(nested))
			for name, raw := range nested {
				if m, ok := raw.(map[string]any); ok {
					p.Properties[name] = convertProperty(m, nestedRequired[name])
				}
			}
		}
	}
	return p
}

// requiredSet accepts both []any (JSON decoding) and []string (TOML
// decoding) forms of a required-name list.
func requiredSet(raw any) map[string]bool {
	required := make(map[string]bool)
	switch list := raw.(type) {
	case []any:
		for _, v := range list {
			if s, ok := v.(string); ok {
				required[s] = true
			}
		}
	case []string:
		for _, s := range list {
			required[s] = true
		}
	}
	return required
}

func parameterType(raw any) gollem.ParameterType {
	s, _ := raw.(string)
	switch s {
	case "integer":
		return gollem.TypeInteger
	case "number":
		return gollem.TypeNumber
	case "boolean":
		return gollem.TypeBoolean
	case "array":
		return gollem.TypeArray
	case "object":
		return gollem.TypeObject
	default:
		return gollem.TypeString
	}
}
