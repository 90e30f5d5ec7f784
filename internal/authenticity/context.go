package authenticity

import "context"

type credentialsKey struct{}

// WithCredentials stores the request credentials on ctx.
func WithCredentials(ctx context.Context, creds Credentials) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, credentialsKey{}, creds)
}

// CredentialsFromContext returns the credentials stored by WithCredentials.
func CredentialsFromContext(ctx context.Context) Credentials {
	if ctx == nil {
		return Credentials{}
	}
	if creds, ok := ctx.Value(credentialsKey{}).(Credentials); ok {
		return creds
	}
	return Credentials{}
}
