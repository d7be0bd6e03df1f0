package server

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/calslack/internal/google"
	"github.com/teemow/calslack/internal/slack"
)

func newTestHTTPServer(t *testing.T) *httptest.Server {
	t.Helper()
	mcpSrv := mcpserver.NewMCPServer("calslack-test", "0.0.0", mcpserver.WithToolCapabilities(true))
	mcpSrv.AddTool(mcp.NewTool("whoami"), func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		slackToken, _ := slack.TokenFromContext(ctx)
		googleToken, _ := google.AccessTokenFromContext(ctx)
		return mcp.NewToolResultText(fmt.Sprintf("slack=%s google=%s", slackToken, googleToken)), nil
	})

	s := NewHTTPServer(mcpSrv, HTTPServerConfig{
		Addr:             "127.0.0.1:0",
		DisableStreaming: true,
		HealthChecker:    NewHealthChecker(nil),
	})
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func postMCP(t *testing.T, url, body string, headers map[string]string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPost, url+MCPEndpointPath, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

const initializeRequest = `{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26","capabilities":{},"clientInfo":{"name":"test","version":"1.0"}}}`

func TestHTTPServer_RequiresBearerToken(t *testing.T) {
	ts := newTestHTTPServer(t)

	for name, headers := range map[string]map[string]string{
		"missing":   nil,
		"basic":     {"Authorization": "Basic dXNlcjpwYXNz"},
		"empty":     {"Authorization": "Bearer "},
		"no scheme": {"Authorization": "xoxb-test"},
	} {
		t.Run(name, func(t *testing.T) {
			resp := postMCP(t, ts.URL, initializeRequest, headers)
			defer resp.Body.Close()

			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
			assert.NotEmpty(t, resp.Header.Get("WWW-Authenticate"))
		})
	}
}

func TestHTTPServer_CORSPreflight(t *testing.T) {
	ts := newTestHTTPServer(t)

	req, err := http.NewRequest(http.MethodOptions, ts.URL+MCPEndpointPath, nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Headers"), "Authorization")
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Headers"), GoogleTokenHeader)
}

func TestHTTPServer_RequestID(t *testing.T) {
	ts := newTestHTTPServer(t)

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/healthz", nil)
	require.NoError(t, err)
	req.Header.Set(RequestIDHeader, "req-42")
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "req-42", resp.Header.Get(RequestIDHeader))
}

func TestHTTPServer_PassesCredentialsToTools(t *testing.T) {
	ts := newTestHTTPServer(t)
	headers := map[string]string{
		"Authorization":   "Bearer xoxb-test",
		GoogleTokenHeader: "ya29.test",
	}

	resp := postMCP(t, ts.URL, initializeRequest, headers)
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	if session := resp.Header.Get("Mcp-Session-Id"); session != "" {
		headers["Mcp-Session-Id"] = session
	}

	resp = postMCP(t, ts.URL, `{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"whoami","arguments":{}}}`, headers)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "slack=xoxb-test google=ya29.test")
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"Bearer   abc  ", "abc", true},
		{"Bearer", "", false},
		{"Token abc", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		r := httptest.NewRequest(http.MethodPost, "/mcp", nil)
		if tt.header != "" {
			r.Header.Set("Authorization", tt.header)
		}
		got, ok := bearerToken(r)
		if got != tt.want || ok != tt.ok {
			t.Errorf("bearerToken(%q) = (%q, %v), want (%q, %v)", tt.header, got, ok, tt.want, tt.ok)
		}
	}
}
