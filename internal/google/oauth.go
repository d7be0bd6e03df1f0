package google

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"runtime"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/teemow/calslack/internal/logging"
)

// DefaultAccount is the account name used when none is given.
const DefaultAccount = "default"

const oobRedirectURL = "urn:ietf:wg:oauth:2.0:oob"

var accountNameRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

// Auth manages the OAuth2 consent flow and the per-account token files.
type Auth struct {
	conf     *oauth2.Config
	tokenDir string
}

// NewAuth creates an Auth for the given OAuth client. An empty tokenDir
// falls back to the user cache directory.
func NewAuth(clientID, clientSecret, tokenDir string) *Auth {
	if tokenDir == "" {
		tokenDir = DefaultTokenDir()
	}
	return &Auth{
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     google.Endpoint,
			RedirectURL:  oobRedirectURL,
			Scopes:       DefaultOAuthScopes,
		},
		tokenDir: tokenDir,
	}
}

// OAuthConfig returns the underlying OAuth2 configuration.
func (a *Auth) OAuthConfig() *oauth2.Config {
	return a.conf
}

// TokenDir returns the directory holding token files.
func (a *Auth) TokenDir() string {
	return a.tokenDir
}

// AuthURL returns the consent URL for the given account.
func (a *Auth) AuthURL(account string) string {
	return a.conf.AuthCodeURL(account, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// SaveToken exchanges an authorization code and stores the resulting token for the account.
func (a *Auth) SaveToken(ctx context.Context, account, authCode string) error {
	if err := validateAccountName(account); err != nil {
		return err
	}

	token, err := a.conf.Exchange(ctx, authCode)
	if err != nil {
		return fmt.Errorf("failed to exchange auth code: %w", err)
	}

	return a.writeToken(account, token)
}

func (a *Auth) writeToken(account string, token *oauth2.Token) error {
	if err := os.MkdirAll(a.tokenDir, 0700); err != nil {
		return fmt.Errorf("failed to create token directory: %w", err)
	}

	data, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to encode token: %w", err)
	}

	if err := os.WriteFile(a.tokenFilePath(account), data, 0600); err != nil {
		return fmt.Errorf("failed to write token file: %w", err)
	}

	return nil
}

// HasToken reports whether a token file exists for the account.
func (a *Auth) HasToken(account string) bool {
	if validateAccountName(account) != nil {
		return false
	}
	_, err := os.Stat(a.tokenFilePath(account))
	return err == nil
}

// TokenSource returns a refreshing token source for the stored account token.
func (a *Auth) TokenSource(ctx context.Context, account string) (oauth2.TokenSource, error) {
	if err := validateAccountName(account); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(a.tokenFilePath(account))
	if err != nil {
		return nil, fmt.Errorf("no Google OAuth token found for account %s, run 'calslack auth --account %s'", account, account)
	}

	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, fmt.Errorf("invalid token file for account %s: %w", account, err)
	}

	slog.Debug("loaded google token", logging.Account(account))

	return a.conf.TokenSource(ctx, &token), nil
}

func (a *Auth) tokenFilePath(account string) string {
	return filepath.Join(a.tokenDir, fmt.Sprintf("google-%s.token", account))
}

// NewHTTPClient returns an HTTP client authenticated by ts.
// The client is pinned to HTTP/1.1 to avoid HTTP/2 stream errors from Google frontends.
func NewHTTPClient(ctx context.Context, ts oauth2.TokenSource) *http.Client {
	client := oauth2.NewClient(ctx, ts)
	if transport, ok := client.Transport.(*oauth2.Transport); ok {
		transport.Base = &http.Transport{
			Proxy:             http.ProxyFromEnvironment,
			ForceAttemptHTTP2: false,
		}
	}
	return client
}

func validateAccountName(account string) error {
	if account == "" {
		return fmt.Errorf("account name cannot be empty")
	}
	if !accountNameRe.MatchString(account) {
		return fmt.Errorf("invalid account name %q: only letters, digits, '-' and '_' are allowed", account)
	}
	return nil
}

// DefaultTokenDir returns the directory used for token files when none is configured.
func DefaultTokenDir() string {
	return filepath.Join(userCacheDir(), "calslack")
}

func userCacheDir() string {
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(homeDir(), "Library", "Caches")
	case "windows":
		for _, ev := range []string{"TEMP", "TMP"} {
			if v := os.Getenv(ev); v != "" {
				return v
			}
		}
		return os.TempDir()
	}
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return xdg
	}
	return filepath.Join(homeDir(), ".cache")
}

func homeDir() string {
	if runtime.GOOS == "windows" {
		return os.Getenv("HOMEDRIVE") + os.Getenv("HOMEPATH")
	}
	return os.Getenv("HOME")
}
