package google

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"
)

func TestValidateAccountName(t *testing.T) {
	tests := []struct {
		name    string
		account string
		wantErr bool
	}{
		{"valid default", "default", false},
		{"valid work", "work", false},
		{"valid with hyphen", "work-email", false},
		{"valid with underscore", "personal_email", false},
		{"valid alphanumeric", "account123", false},
		{"empty", "", true},
		{"with spaces", "my account", true},
		{"with special chars", "account@work", true},
		{"with slash", "work/personal", true},
		{"with dot", "work.email", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateAccountName(tt.account)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateAccountName() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTokenFilePath(t *testing.T) {
	auth := NewAuth("id", "secret", "/tmp/tokens")
	if got := auth.tokenFilePath("work"); got != filepath.Join("/tmp/tokens", "google-work.token") {
		t.Errorf("tokenFilePath() = %q", got)
	}
}

func TestNewAuth_DefaultTokenDir(t *testing.T) {
	auth := NewAuth("id", "secret", "")
	if auth.TokenDir() != DefaultTokenDir() {
		t.Errorf("TokenDir() = %q, want %q", auth.TokenDir(), DefaultTokenDir())
	}
	if !strings.HasSuffix(auth.TokenDir(), "calslack") {
		t.Errorf("default token dir should end in calslack, got %q", auth.TokenDir())
	}
}

func TestAuthURL(t *testing.T) {
	auth := NewAuth("client-123", "secret", t.TempDir())
	u := auth.AuthURL("work")
	for _, want := range []string{"client_id=client-123", "state=work", "access_type=offline", "calendar"} {
		if !strings.Contains(u, want) {
			t.Errorf("AuthURL() = %q, missing %q", u, want)
		}
	}
}

func TestTokenRoundTrip(t *testing.T) {
	dir := t.TempDir()
	auth := NewAuth("id", "secret", dir)

	if auth.HasToken("work") {
		t.Fatal("HasToken() should be false before a token is written")
	}

	token := &oauth2.Token{
		AccessToken:  "access",
		RefreshToken: "refresh",
		TokenType:    "Bearer",
		Expiry:       time.Now().Add(time.Hour),
	}
	if err := auth.writeToken("work", token); err != nil {
		t.Fatalf("writeToken() error = %v", err)
	}
	if !auth.HasToken("work") {
		t.Fatal("HasToken() should be true after a token is written")
	}

	info, err := os.Stat(filepath.Join(dir, "google-work.token"))
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("token file mode = %v, want 0600", info.Mode().Perm())
	}

	ts, err := auth.TokenSource(context.Background(), "work")
	if err != nil {
		t.Fatalf("TokenSource() error = %v", err)
	}
	got, err := ts.Token()
	if err != nil {
		t.Fatalf("Token() error = %v", err)
	}
	if got.AccessToken != "access" {
		t.Errorf("AccessToken = %q, want access", got.AccessToken)
	}
}

func TestTokenSource_Errors(t *testing.T) {
	dir := t.TempDir()
	auth := NewAuth("id", "secret", dir)

	if _, err := auth.TokenSource(context.Background(), "bad account"); err == nil {
		t.Error("expected error for invalid account name")
	}
	if _, err := auth.TokenSource(context.Background(), "missing"); err == nil {
		t.Error("expected error for missing token file")
	}

	if err := os.WriteFile(filepath.Join(dir, "google-broken.token"), []byte("access refresh"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := auth.TokenSource(context.Background(), "broken"); err == nil {
		t.Error("expected error for malformed token file")
	}
}

func TestHasToken_InvalidAccount(t *testing.T) {
	auth := NewAuth("id", "secret", t.TempDir())
	if auth.HasToken("invalid account") || auth.HasToken("") {
		t.Error("HasToken() should return false for invalid account names")
	}
}

func TestTokenFileIsJSON(t *testing.T) {
	dir := t.TempDir()
	auth := NewAuth("id", "secret", dir)
	if err := auth.writeToken("default", &oauth2.Token{AccessToken: "a", RefreshToken: "r"}); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(dir, "google-default.token"))
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("token file is not JSON: %v", err)
	}
	if decoded["refresh_token"] != "r" {
		t.Errorf("refresh_token = %v, want r", decoded["refresh_token"])
	}
}
