package queue

import "context"

type requestIDKey struct{}

// WithRequestID attaches a request ID to the context so enqueued jobs can be
// correlated with the HTTP request that produced them.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	if ctx == nil || requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestIDFromContext returns the request ID stored by WithRequestID.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// Detach returns a background context carrying only the request ID.
func Detach(ctx context.Context) context.Context {
	return WithRequestID(context.Background(), RequestIDFromContext(ctx))
}
