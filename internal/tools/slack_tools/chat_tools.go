package slack_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/calslack/internal/instrumentation"
	"github.com/teemow/calslack/internal/server"
	"github.com/teemow/calslack/internal/tools/common"
)

func registerChatTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	sendMessageTool := mcp.NewTool("sendMessage",
		mcp.WithDescription("Sends a message to a Slack channel or user. Can also reply to a thread if threadTs is provided."),
		mcp.WithString("channel",
			mcp.Required(),
			mcp.Description("The ID of the channel or user to send the message to"),
		),
		mcp.WithString("message",
			mcp.Required(),
			mcp.Description("The message to send"),
		),
		mcp.WithString("threadTs",
			mcp.Description("Optional: The timestamp of the parent message to reply to (for thread replies)"),
		),
	)
	s.AddTool(sendMessageTool, instrumented("sendMessage", instrumentation.OperationSend, sc, handleSendMessage))

	return nil
}

func handleSendMessage(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	channel := common.StringArg(args, "channel")
	if channel == "" {
		return mcp.NewToolResultError("channel is required"), nil
	}
	message := common.StringArg(args, "message")
	if message == "" {
		return mcp.NewToolResultError("message is required"), nil
	}

	client, err := getSlackClient(ctx, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	posted, err := client.PostMessage(ctx, channel, message, common.StringArg(args, "threadTs"))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to send message: %v", err)), nil
	}

	return jsonResult(posted)
}
