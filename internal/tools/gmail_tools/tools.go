package gmail_tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/inboxmatrix/internal/gmail"
	"github.com/teemow/inboxmatrix/internal/matrix"
	"github.com/teemow/inboxmatrix/internal/platform"
	"github.com/teemow/inboxmatrix/internal/server"
	"github.com/teemow/inboxmatrix/internal/tools/common"
)

const accountDescription = "Account name (default: 'default'). Used to manage multiple Google accounts."

// RegisterGmailTools registers the Gmail tools. gmail_select_message
// changes the current message and is skipped in read-only mode.
func RegisterGmailTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	listMessagesTool := mcp.NewTool("gmail_list_messages",
		mcp.WithDescription("List Gmail messages matching a search query, with the matrix quadrant each one is filed in"),
		mcp.WithString("account", mcp.Description(accountDescription)),
		mcp.WithString("query",
			mcp.Description("Gmail search query (default: 'in:inbox')"),
		),
		mcp.WithNumber("maxResults",
			mcp.Description(fmt.Sprintf("Maximum number of messages to return (default: %d, max: %d)", gmail.DefaultListLimit, gmail.MaxListLimit)),
		),
	)
	s.AddTool(listMessagesTool, common.InstrumentedToolHandler(listMessagesTool.Name, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListMessages(ctx, request, sc)
		}))

	getMessageTool := mcp.NewTool("gmail_get_message",
		mcp.WithDescription("Get the subject, sender and date of a Gmail message"),
		mcp.WithString("account", mcp.Description(accountDescription)),
		mcp.WithString("messageId", mcp.Required(), mcp.Description("The ID of the Gmail message")),
	)
	s.AddTool(getMessageTool, common.InstrumentedToolHandler(getMessageTool.Name, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetMessage(ctx, request, sc)
		}))

	if readOnly {
		return nil
	}

	selectMessageTool := mcp.NewTool("gmail_select_message",
		mcp.WithDescription("Select a Gmail message as the current message; matrix_add_current then files it"),
		mcp.WithString("account", mcp.Description(accountDescription)),
		mcp.WithString("messageId", mcp.Required(), mcp.Description("The ID of the Gmail message")),
	)
	s.AddTool(selectMessageTool, common.InstrumentedToolHandler(selectMessageTool.Name, sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSelectMessage(ctx, request, sc)
		}))

	return nil
}

// messageSummary is one message as the tools report it.
type messageSummary struct {
	ID       string          `json:"id"`
	ThreadID string          `json:"threadId,omitempty"`
	Subject  string          `json:"subject"`
	From     string          `json:"from"`
	Date     string          `json:"date,omitempty"`
	Snippet  string          `json:"snippet,omitempty"`
	Quadrant matrix.Quadrant `json:"quadrant,omitempty"`
}

func summarize(info *gmail.MessageInfo, find func(string) (matrix.Item, matrix.Quadrant, bool)) messageSummary {
	item := info.Item()
	ms := messageSummary{
		ID:       info.ID,
		ThreadID: info.ThreadID,
		Subject:  item.Subject,
		From:     item.Sender,
		Date:     item.Date,
		Snippet:  info.Snippet,
	}
	if find != nil {
		if _, q, ok := find(info.ID); ok {
			ms.Quadrant = q
		}
	}
	return ms
}

func clientFromArgs(sc *server.ServerContext, args map[string]any) (*gmail.Client, string, error) {
	account, err := common.ResolveAccount(sc, args)
	if err != nil {
		return nil, "", err
	}
	client, err := sc.GmailClientForAccount(account)
	if err != nil {
		return nil, "", err
	}
	return client, account, nil
}

func handleListMessages(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	client, account, err := clientFromArgs(sc, args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	query := common.StringArg(args, "query")
	if query == "" {
		query = "in:inbox"
	}
	limit := common.IntArg(args, "maxResults", gmail.DefaultListLimit)

	infos, err := client.ListMessages(ctx, query, int64(limit))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to list messages: %v", err)), nil
	}

	var find func(string) (matrix.Item, matrix.Quadrant, bool)
	if s, err := sc.Session(ctx, account); err == nil {
		find = s.Find
	}

	messages := make([]messageSummary, 0, len(infos))
	for _, info := range infos {
		messages = append(messages, summarize(info, find))
	}
	return common.JSONResult(map[string]any{
		"query":    query,
		"count":    len(messages),
		"messages": messages,
	})
}

func handleGetMessage(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	id, err := common.RequiredStringArg(args, "messageId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	client, account, err := clientFromArgs(sc, args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	info, err := client.GetMessage(ctx, id)
	if errors.Is(err, gmail.ErrMessageNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("Message %s not found", id)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get message: %v", err)), nil
	}

	var find func(string) (matrix.Item, matrix.Quadrant, bool)
	if s, err := sc.Session(ctx, account); err == nil {
		find = s.Find
	}
	return common.JSONResult(summarize(info, find))
}

func handleSelectMessage(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	id, err := common.RequiredStringArg(args, "messageId")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s, err := common.SessionFromArgs(ctx, sc, args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	adapter, ok := s.Adapter().(*platform.GmailAdapter)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("gmail_select_message needs the gmail platform, this server runs %q; use matrix_set_current", s.Adapter().Name())), nil
	}

	client, _, err := clientFromArgs(sc, args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	info, err := client.GetMessage(ctx, id)
	if errors.Is(err, gmail.ErrMessageNotFound) {
		return mcp.NewToolResultError(fmt.Sprintf("Message %s not found", id)), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to get message: %v", err)), nil
	}

	if err := adapter.SelectMessage(ctx, id); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to select message: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Selected %q from %s. Use matrix_add_current to file it.", info.Item().Subject, info.Item().Sender)), nil
}
