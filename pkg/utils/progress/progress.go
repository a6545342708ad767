package progress

import "context"

// ReportFunc is a function that posts a progress message during a turn.
// The loop adapter calls this around tool executions so that hosts can
// show what the agent is doing in real time.
type ReportFunc func(ctx context.Context, message string)

type contextKey struct{}

// WithReporter returns a new context that carries the given ReportFunc.
func WithReporter(ctx context.Context, fn ReportFunc) context.Context {
	return context.WithValue(ctx, contextKey{}, fn)
}

// Report calls the ReportFunc stored in ctx with the given message.
// If no ReportFunc is present in ctx, the call is a no-op.
func Report(ctx context.Context, message string) {
	if fn, ok := ctx.Value(contextKey{}).(ReportFunc); ok {
		fn(ctx, message)
	}
}
