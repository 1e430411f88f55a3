package matrix_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/inboxmatrix/internal/matrix"
	"github.com/teemow/inboxmatrix/internal/server"
	"github.com/teemow/inboxmatrix/internal/tools/batch"
	"github.com/teemow/inboxmatrix/internal/tools/common"
)

func registerBatchTools(s *mcpserver.MCPServer, sc *server.ServerContext) {
	addTool(s, sc, mcp.NewTool("matrix_add_messages",
		mcp.WithDescription("Look up one or more Gmail messages and add them to a quadrant"),
		accountOption(),
		mcp.WithNumber("quadrant", mcp.Required(), mcp.Description(quadrantDescription)),
		mcp.WithString("message_ids", mcp.Required(), mcp.Description("Gmail message id (string) or array of message ids")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleAddMessages(ctx, request, sc)
	})

	addTool(s, sc, mcp.NewTool("matrix_move_items",
		mcp.WithDescription("Move one or more items to another quadrant"),
		accountOption(),
		mcp.WithString("ids", mcp.Required(), mcp.Description("Item id (string) or array of item ids")),
		mcp.WithNumber("to_quadrant", mcp.Required(), mcp.Description(quadrantDescription)),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleMoveItems(ctx, request, sc)
	})

	addTool(s, sc, mcp.NewTool("matrix_remove_items",
		mcp.WithDescription("Remove one or more items from whichever quadrant holds them"),
		mcp.WithDestructiveHintAnnotation(true),
		accountOption(),
		mcp.WithString("ids", mcp.Required(), mcp.Description("Item id (string) or array of item ids")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleRemoveItems(ctx, request, sc)
	})
}

func handleAddMessages(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	q, err := common.QuadrantArg(args, "quadrant")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ids, err := batch.ParseStringOrArray(args["message_ids"], "message_ids")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	account, err := common.ResolveAccount(sc, args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	client, err := sc.GmailClientForAccount(account)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s, err := sc.Session(ctx, account)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	results := batch.ProcessBatch(ids, func(id string) (string, error) {
		info, err := client.GetMessage(ctx, id)
		if err != nil {
			return "", err
		}
		stored, err := s.Add(ctx, q, info.Item())
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("Added %q to %s", stored.Subject, quadrantName(q)), nil
	})
	return mcp.NewToolResultText(batch.FormatResults(results)), nil
}

func handleMoveItems(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	to, err := common.QuadrantArg(args, "to_quadrant")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ids, err := batch.ParseStringOrArray(args["ids"], "ids")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s, err := common.SessionFromArgs(ctx, sc, args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	results := batch.ProcessBatch(ids, func(id string) (string, error) {
		if err := s.Move(ctx, id, to); err != nil {
			return "", err
		}
		return "Moved to " + quadrantName(to), nil
	})
	return mcp.NewToolResultText(batch.FormatResults(results)), nil
}

func handleRemoveItems(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	ids, err := batch.ParseStringOrArray(args["ids"], "ids")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s, err := common.SessionFromArgs(ctx, sc, args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	results := batch.ProcessBatch(ids, func(id string) (string, error) {
		removed, err := s.RemoveByID(ctx, id)
		if err != nil {
			return "", err
		}
		if !removed {
			return "", fmt.Errorf("%w: %s", matrix.ErrItemNotFound, id)
		}
		return "Removed", nil
	})
	return mcp.NewToolResultText(batch.FormatResults(results)), nil
}
