package slack_tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/calslack/internal/instrumentation"
	"github.com/teemow/calslack/internal/server"
	"github.com/teemow/calslack/internal/slack"
	"github.com/teemow/calslack/internal/tools/common"
)

// Message limits accepted by conversations.history and conversations.replies.
const (
	defaultMessageLimit = 100
	maxLimit            = 999
)

var conversationTypes = []string{"public_channel", "private_channel", "mpim", "im"}

// RegisterSlackTools registers all Slack tools with the MCP server.
// sendMessage is skipped in read-only mode.
func RegisterSlackTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	if err := registerConversationTools(s, sc); err != nil {
		return fmt.Errorf("failed to register conversation tools: %w", err)
	}
	if err := registerUserTools(s, sc); err != nil {
		return fmt.Errorf("failed to register user tools: %w", err)
	}
	if !sc.ReadOnly() {
		if err := registerChatTools(s, sc); err != nil {
			return fmt.Errorf("failed to register chat tools: %w", err)
		}
	}
	return nil
}

func instrumented(name, operation string, sc *server.ServerContext, handler func(context.Context, mcp.CallToolRequest, *server.ServerContext) (*mcp.CallToolResult, error)) common.ToolHandler {
	return common.InstrumentedToolHandlerWithService(name, instrumentation.ServiceSlack, operation, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handler(ctx, request, sc)
		})
}

// getSlackClient returns the client for the request's token.
func getSlackClient(ctx context.Context, sc *server.ServerContext) (*slack.Client, error) {
	client, err := sc.SlackClient(ctx)
	if errors.Is(err, slack.ErrMissingToken) {
		return nil, errors.New("Slack token not found. Send it as 'Authorization: Bearer <token>' or set slack.token in the configuration")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create Slack client: %w", err)
	}
	return client, nil
}

// jsonResult renders v as the text content of a successful result.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

// limitArg returns the limit argument or def, rejecting values outside 1..maxLimit.
func limitArg(args map[string]interface{}, def int) (int, error) {
	limit, ok, err := common.IntArg(args, "limit")
	if err != nil {
		return 0, err
	}
	if !ok {
		return def, nil
	}
	if limit < 1 || limit > maxLimit {
		return 0, fmt.Errorf("limit must be between 1 and %d", maxLimit)
	}
	return limit, nil
}

// parseTypes splits a comma separated list of conversation types.
func parseTypes(raw string) ([]string, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var types []string
	for _, t := range strings.Split(raw, ",") {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if !slices.Contains(conversationTypes, t) {
			return nil, fmt.Errorf("invalid conversation type %q: must be one of %s", t, strings.Join(conversationTypes, ", "))
		}
		types = append(types, t)
	}
	return types, nil
}
