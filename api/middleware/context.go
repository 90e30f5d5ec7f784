package middleware

import "context"

type contextKey string

const ctxCaller contextKey = "caller"

// CallerFromContext returns the credential fingerprint stored by Credentials.
func CallerFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxCaller).(string); ok {
		return v
	}
	return ""
}

// WithCaller injects the caller fingerprint into the context.
func WithCaller(ctx context.Context, caller string) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxCaller, caller)
}
