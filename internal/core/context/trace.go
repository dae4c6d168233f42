package context

import (
	"context"

	"everpack/internal/core/id"
)

// TraceContext carries request correlation IDs through the call chain.
// Populated by the trace middleware; consumed by the logger.
type TraceContext struct {
	TraceID   string
	SpanID    string
	RequestID string
}

type traceContextKey struct{}

// WithTrace adds TraceContext to context.
func WithTrace(ctx context.Context, trace *TraceContext) context.Context {
	return context.WithValue(ctx, traceContextKey{}, trace)
}

// GetTrace returns TraceContext from context, or nil outside a request.
func GetTrace(ctx context.Context) *TraceContext {
	if v, ok := ctx.Value(traceContextKey{}).(*TraceContext); ok {
		return v
	}
	return nil
}

// GetTraceID returns the trace ID from context or generates a new one.
func GetTraceID(ctx context.Context) string {
	if t := GetTrace(ctx); t != nil {
		return t.TraceID
	}
	return id.New().String()
}

// GetRequestID returns the request ID from context or empty string.
func GetRequestID(ctx context.Context) string {
	if t := GetTrace(ctx); t != nil {
		return t.RequestID
	}
	return ""
}

// NewTraceContext creates a TraceContext with freshly generated IDs.
// Used for background work (worker jobs, seeding) that has no inbound request.
func NewTraceContext() *TraceContext {
	traceID := id.New().String()
	return &TraceContext{
		TraceID:   traceID,
		SpanID:    traceID[:16],
		RequestID: id.New().String(),
	}
}
