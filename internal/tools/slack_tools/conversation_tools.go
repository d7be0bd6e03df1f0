package slack_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/calslack/internal/instrumentation"
	"github.com/teemow/calslack/internal/server"
	"github.com/teemow/calslack/internal/slack"
	"github.com/teemow/calslack/internal/tools/common"
)

func registerConversationTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	getConversationsTool := mcp.NewTool("getConversations",
		mcp.WithDescription("Fetches list of conversations (channels, DMs, groups) from Slack"),
		mcp.WithString("types",
			mcp.Description("Comma-separated list of conversation types (public_channel, private_channel, mpim, im)"),
		),
		mcp.WithBoolean("excludeArchived",
			mcp.Description("Set to true to exclude archived channels"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of items to return (under 1000)"),
		),
		mcp.WithString("cursor",
			mcp.Description("Pagination cursor from response_metadata.next_cursor"),
		),
	)
	s.AddTool(getConversationsTool, instrumented("getConversations", instrumentation.OperationList, sc, handleGetConversations))

	historyTool := mcp.NewTool("getConversationHistory",
		mcp.WithDescription("Fetches message history from a Slack conversation"),
		mcp.WithString("channel",
			mcp.Required(),
			mcp.Description("The ID of the conversation to fetch history for"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of messages to return (default: 100, max: 999)"),
		),
		mcp.WithString("oldest",
			mcp.Description("Only messages after this Unix timestamp will be included"),
		),
		mcp.WithString("latest",
			mcp.Description("Only messages before this Unix timestamp will be included"),
		),
		mcp.WithBoolean("inclusive",
			mcp.Description("Include messages with oldest or latest timestamps in results"),
		),
		mcp.WithString("cursor",
			mcp.Description("Paginate through collections of data by setting the cursor parameter"),
		),
		mcp.WithBoolean("includeAllMetadata",
			mcp.Description("Return all metadata associated with messages"),
		),
	)
	s.AddTool(historyTool, instrumented("getConversationHistory", instrumentation.OperationGet, sc, handleGetConversationHistory))

	repliesTool := mcp.NewTool("getConversationReplies",
		mcp.WithDescription("Fetches replies (thread messages) from a Slack conversation"),
		mcp.WithString("channel",
			mcp.Required(),
			mcp.Description("The ID of the conversation to fetch replies for"),
		),
		mcp.WithString("thread_ts",
			mcp.Required(),
			mcp.Description("The timestamp of the parent message to fetch replies for"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of messages to return (default: 100, max: 999)"),
		),
		mcp.WithString("oldest",
			mcp.Description("Only messages after this Unix timestamp will be included"),
		),
		mcp.WithString("latest",
			mcp.Description("Only messages before this Unix timestamp will be included"),
		),
		mcp.WithBoolean("inclusive",
			mcp.Description("Include messages with oldest or latest timestamps in results"),
		),
		mcp.WithString("cursor",
			mcp.Description("Paginate through collections of data by setting the cursor parameter"),
		),
	)
	s.AddTool(repliesTool, instrumented("getConversationReplies", instrumentation.OperationGet, sc, handleGetConversationReplies))

	return nil
}

func handleGetConversations(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	types, err := parseTypes(common.StringArg(args, "types"))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	limit, err := limitArg(args, 0)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	excludeArchived, _ := common.BoolArg(args, "excludeArchived")

	client, err := getSlackClient(ctx, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	page, err := client.GetConversations(ctx, slack.ConversationsOptions{
		Types:           types,
		ExcludeArchived: excludeArchived,
		Limit:           limit,
		Cursor:          common.StringArg(args, "cursor"),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to fetch conversations: %v", err)), nil
	}

	return jsonResult(page)
}

func handleGetConversationHistory(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	channel := common.StringArg(args, "channel")
	if channel == "" {
		return mcp.NewToolResultError("channel is required"), nil
	}
	limit, err := limitArg(args, defaultMessageLimit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	inclusive, _ := common.BoolArg(args, "inclusive")
	includeAllMetadata, _ := common.BoolArg(args, "includeAllMetadata")

	client, err := getSlackClient(ctx, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	messages, err := client.ConversationHistory(ctx, slack.HistoryOptions{
		Channel:            channel,
		Limit:              limit,
		Oldest:             common.StringArg(args, "oldest"),
		Latest:             common.StringArg(args, "latest"),
		Inclusive:          inclusive,
		Cursor:             common.StringArg(args, "cursor"),
		IncludeAllMetadata: includeAllMetadata,
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to fetch conversation history: %v", err)), nil
	}

	return jsonResult(messages)
}

func handleGetConversationReplies(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	channel := common.StringArg(args, "channel")
	if channel == "" {
		return mcp.NewToolResultError("channel is required"), nil
	}
	threadTS := common.StringArg(args, "thread_ts")
	if threadTS == "" {
		return mcp.NewToolResultError("thread_ts is required"), nil
	}
	limit, err := limitArg(args, defaultMessageLimit)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	inclusive, _ := common.BoolArg(args, "inclusive")

	client, err := getSlackClient(ctx, sc)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	messages, err := client.ConversationReplies(ctx, slack.RepliesOptions{
		Channel:   channel,
		ThreadTS:  threadTS,
		Limit:     limit,
		Oldest:    common.StringArg(args, "oldest"),
		Latest:    common.StringArg(args, "latest"),
		Inclusive: inclusive,
		Cursor:    common.StringArg(args, "cursor"),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to fetch conversation replies: %v", err)), nil
	}

	return jsonResult(messages)
}
