package google

import (
	"context"

	"golang.org/x/oauth2"
)

// TokenProvider is an interface for providing OAuth token sources for Google APIs.
// This abstraction allows different token sources (file-based, request bearer tokens).
type TokenProvider interface {
	// TokenSource returns a token source for the specified account
	TokenSource(ctx context.Context, account string) (oauth2.TokenSource, error)

	// HasTokenForAccount checks if a token exists for the specified account
	HasTokenForAccount(account string) bool
}

// FileTokenProvider provides tokens from disk files (for STDIO transport)
type FileTokenProvider struct {
	auth *Auth
}

// NewFileTokenProvider creates a new file-based token provider
func NewFileTokenProvider(auth *Auth) *FileTokenProvider {
	return &FileTokenProvider{auth: auth}
}

// TokenSource returns a token source backed by the account's token file
func (p *FileTokenProvider) TokenSource(ctx context.Context, account string) (oauth2.TokenSource, error) {
	return p.auth.TokenSource(ctx, account)
}

// HasTokenForAccount checks if a token file exists for the specified account
func (p *FileTokenProvider) HasTokenForAccount(account string) bool {
	return p.auth.HasToken(account)
}

type accessTokenKey struct{}

// WithAccessToken returns a context carrying a Google access token supplied by the caller,
// typically taken from an HTTP request header.
func WithAccessToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, accessTokenKey{}, token)
}

// AccessTokenFromContext returns the Google access token stored in ctx, if any.
func AccessTokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(accessTokenKey{}).(string)
	return token, ok && token != ""
}

// RequestTokenProvider prefers a per-request access token and falls back to
// another provider when the request carries none.
type RequestTokenProvider struct {
	fallback TokenProvider
}

// NewRequestTokenProvider creates a RequestTokenProvider. fallback may be nil.
func NewRequestTokenProvider(fallback TokenProvider) *RequestTokenProvider {
	return &RequestTokenProvider{fallback: fallback}
}

// TokenSource returns a static source for a request token, otherwise the fallback's source.
func (p *RequestTokenProvider) TokenSource(ctx context.Context, account string) (oauth2.TokenSource, error) {
	if token, ok := AccessTokenFromContext(ctx); ok {
		return oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: "Bearer"}), nil
	}
	if p.fallback == nil {
		return nil, errNoToken(account)
	}
	return p.fallback.TokenSource(ctx, account)
}

// HasTokenForAccount reports whether the fallback holds a token for the account.
func (p *RequestTokenProvider) HasTokenForAccount(account string) bool {
	return p.fallback != nil && p.fallback.HasTokenForAccount(account)
}

func errNoToken(account string) error {
	return &NoTokenError{Account: account}
}

// NoTokenError is returned when no Google credentials are available for an account.
type NoTokenError struct {
	Account string
}

func (e *NoTokenError) Error() string {
	return "no Google credentials available for account " + e.Account
}
