package events

import (
	"context"

	"github.com/catalpa-lab/dynagent/pkg/domain/interfaces"
	"github.com/catalpa-lab/dynagent/pkg/domain/types"
	"github.com/catalpa-lab/dynagent/pkg/utils/logging"
)

// LogSink emits run lifecycle events to the structured logger. Emission is
// best effort and never fails the turn.
type LogSink struct{}

var _ interfaces.EventSink = &LogSink{}

func NewLogSink() *LogSink {
	return &LogSink{}
}

func (s *LogSink) Emit(ctx context.Context, eventType types.EventType, payload map[string]any) {
	logging.From(ctx).Info("run event",
		"type", eventType,
		"payload", payload,
	)
}
