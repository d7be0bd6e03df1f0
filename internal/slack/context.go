package slack

import "context"

type tokenKey struct{}

// WithToken returns a context carrying a Slack token supplied by the caller,
// typically the bearer token of an HTTP request.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFromContext returns the Slack token stored in ctx, if any.
func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenKey{}).(string)
	return token, ok && token != ""
}
