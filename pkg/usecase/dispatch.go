package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/catalpa-lab/dynagent/pkg/domain/interfaces"
	"github.com/catalpa-lab/dynagent/pkg/domain/types"
	"github.com/catalpa-lab/dynagent/pkg/utils/logging"
)

// dispatcher returns the tool callback handed to the agentic loop. Each
// invocation is independent; the only state shared across calls within a
// turn is the read-only tool map and the memory scope. Per-call failures
// are converted to structured error text so the model can recover; only
// cancellation of the enclosing context propagates as an error.
func (r *Runtime) dispatcher(scope *memoryScope, toolMap map[string]toolTarget, runID types.RunID, userID types.UserID) interfaces.ToolFunc {
	return func(ctx context.Context, name string, args map[string]any) (string, error) {
		if name == rememberToolName {
			return r.executeRemember(ctx, scope, args), nil
		}
		return r.executeDynamic(ctx, name, args, toolMap, runID, userID)
	}
}

func (r *Runtime) executeDynamic(ctx context.Context, name string, args map[string]any, toolMap map[string]toolTarget, runID types.RunID, userID types.UserID) (string, error) {
	target, ok := toolMap[name]
	if !ok || target.functionPath == "" {
		return errorPayload(fmt.Sprintf("Tool '%s' has no function_path configured", name)), nil
	}

	if r.executor == nil {
		return errorPayload(fmt.Sprintf("Tool '%s' cannot run: no tool executor configured", name)), nil
	}

	result, err := r.executor.Execute(ctx, &interfaces.ExecuteRequest{
		FunctionPath: target.functionPath,
		Arguments:    args,
		RunID:        runID,
		UserID:       userID,
		ToolID:       target.toolID,
	})
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		logging.From(ctx).Error("failed to execute tool",
			"tool", name,
			"functionPath", target.functionPath,
			"error", err.Error(),
		)
		return errorPayload(err.Error()), nil
	}

	return normalizeResult(result), nil
}

// normalizeResult converts an executor result to the text returned to the
// model. Strings pass through verbatim so they are never double-encoded;
// anything else is serialized to canonical JSON once.
func normalizeResult(result any) string {
	if s, ok := result.(string); ok {
		return s
	}
	encoded, err := json.Marshal(result)
	if err != nil {
		return errorPayload(fmt.Sprintf("tool result is not serializable: %v", err))
	}
	return string(encoded)
}

func errorPayload(msg string) string {
	return jsonPayload(map[string]any{"error": msg})
}

func jsonPayload(payload map[string]any) string {
	encoded, err := json.Marshal(payload)
	if err != nil {
		// payloads built here are always marshalable maps of strings
		return `{"error": "internal payload encoding failure"}`
	}
	return string(encoded)
}
