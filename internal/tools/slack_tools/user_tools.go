package slack_tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/calslack/internal/instrumentation"
	"github.com/teemow/calslack/internal/server"
	"github.com/teemow/calslack/internal/tools/common"
)

func registerUserTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	usersTool := mcp.NewTool("getSlackUsers",
		mcp.WithDescription("Fetches users list from Slack"),
	)
	s.AddTool(usersTool, instrumented("getSlackUsers", instrumentation.OperationList, sc, handleGetSlackUsers))

	findUserTool := mcp.NewTool("findUserByEmail",
		mcp.WithDescription("Finds a Slack user by their email address"),
		mcp.WithString("email",
			mcp.Required(),
			mcp.Description("The email address of the user"),
		),
	)
	s.AddTool(findUserTool, instrumented("findUserByEmail", instrumentation.OperationSearch, sc, handleFindUserByEmail))

	return nil
}

func handleGetSlackUsers(ctx context.Context, _ mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	client, err := getSlackClient(ctx, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	users, err := client.ListUsers(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to fetch users: %v", err)), nil
	}

	return jsonResult(users)
}

func handleFindUserByEmail(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	email := strings.TrimSpace(common.StringArg(request.GetArguments(), "email"))
	if email == "" {
		return mcp.NewToolResultError("email is required"), nil
	}

	client, err := getSlackClient(ctx, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result, err := client.FindUserByEmail(ctx, email)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to find user by email: %v", err)), nil
	}

	return jsonResult(result)
}
