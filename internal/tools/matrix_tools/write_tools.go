package matrix_tools

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/inboxmatrix/internal/matrix"
	"github.com/teemow/inboxmatrix/internal/platform"
	"github.com/teemow/inboxmatrix/internal/server"
	"github.com/teemow/inboxmatrix/internal/session"
	"github.com/teemow/inboxmatrix/internal/tools/common"
)

func itemOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("subject", mcp.Description(fmt.Sprintf("Subject line shown in the matrix (default: %q)", matrix.DefaultSubject))),
		mcp.WithString("sender", mcp.Description(fmt.Sprintf("Sender shown in the matrix (default: %q)", matrix.DefaultSender))),
		mcp.WithString("date", mcp.Description(fmt.Sprintf("Display date, e.g. %s (default: today)", matrix.DateLayout))),
		mcp.WithString("type", mcp.Description(fmt.Sprintf("Item type (default: %q)", matrix.DefaultType))),
	}
}

func registerWriteTools(s *mcpserver.MCPServer, sc *server.ServerContext) {
	addItemOpts := append([]mcp.ToolOption{
		mcp.WithDescription("Add an item to a quadrant. An item already in the matrix is moved there instead of duplicated."),
		accountOption(),
		mcp.WithNumber("quadrant", mcp.Required(), mcp.Description(quadrantDescription)),
		mcp.WithString("id", mcp.Required(), mcp.Description("Item id (for Gmail items, the message id)")),
	}, itemOptions()...)
	addTool(s, sc, mcp.NewTool("matrix_add_item", addItemOpts...),
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleAddItem(ctx, request, sc)
		})

	addTool(s, sc, mcp.NewTool("matrix_add_current",
		mcp.WithDescription("Add the currently selected message to a quadrant (select it first with gmail_select_message or matrix_set_current)"),
		accountOption(),
		mcp.WithNumber("quadrant", mcp.Required(), mcp.Description(quadrantDescription)),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleAddCurrent(ctx, request, sc)
	})

	setCurrentOpts := append([]mcp.ToolOption{
		mcp.WithDescription("Set the current item on the local platform. Without an id a random one is generated."),
		accountOption(),
		mcp.WithString("id", mcp.Description("Item id")),
	}, itemOptions()...)
	addTool(s, sc, mcp.NewTool("matrix_set_current", setCurrentOpts...),
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleSetCurrent(ctx, request, sc)
		})

	addTool(s, sc, mcp.NewTool("matrix_remove_item",
		mcp.WithDescription("Remove an item. With a quadrant only that quadrant is searched."),
		mcp.WithDestructiveHintAnnotation(true),
		accountOption(),
		mcp.WithString("id", mcp.Required(), mcp.Description("Item id")),
		mcp.WithNumber("quadrant", mcp.Description("Only remove the item from this quadrant (1-4)")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleRemoveItem(ctx, request, sc)
	})

	addTool(s, sc, mcp.NewTool("matrix_clear_quadrant",
		mcp.WithDescription("Remove every item from one quadrant"),
		mcp.WithDestructiveHintAnnotation(true),
		accountOption(),
		mcp.WithNumber("quadrant", mcp.Required(), mcp.Description(quadrantDescription)),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleClearQuadrant(ctx, request, sc)
	})

	addTool(s, sc, mcp.NewTool("matrix_clear_all",
		mcp.WithDescription("Remove every item from all four quadrants"),
		mcp.WithDestructiveHintAnnotation(true),
		accountOption(),
		mcp.WithBoolean("confirm", mcp.Required(), mcp.Description("Must be true")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleClearAll(ctx, request, sc)
	})

	addTool(s, sc, mcp.NewTool("matrix_import",
		mcp.WithDescription("Replace the matrix with a JSON document as produced by matrix_export. An invalid document leaves the matrix unchanged."),
		mcp.WithDestructiveHintAnnotation(true),
		accountOption(),
		mcp.WithString("document", mcp.Required(), mcp.Description(`JSON object mapping "1".."4" to arrays of items`)),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleImport(ctx, request, sc)
	})
}

func itemFromArgs(args map[string]any) matrix.Item {
	return matrix.Item{
		ID:      common.StringArg(args, "id"),
		Subject: common.StringArg(args, "subject"),
		Sender:  common.StringArg(args, "sender"),
		Date:    common.StringArg(args, "date"),
		Type:    common.StringArg(args, "type"),
	}
}

func quadrantName(q matrix.Quadrant) string {
	info, _ := matrix.Info(q)
	return info.Name
}

func handleAddItem(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	q, err := common.QuadrantArg(args, "quadrant")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	item := itemFromArgs(args)
	if item.ID == "" {
		return mcp.NewToolResultError("id is required"), nil
	}
	s, err := common.SessionFromArgs(ctx, sc, args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	stored, err := s.Add(ctx, q, item)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to add item: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Added %q to %s (id %s)", stored.Subject, quadrantName(q), stored.ID)), nil
}

func handleAddCurrent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	q, err := common.QuadrantArg(args, "quadrant")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s, err := common.SessionFromArgs(ctx, sc, args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	stored, err := s.AddCurrent(ctx, q)
	if errors.Is(err, session.ErrNoCurrentItem) {
		return mcp.NewToolResultError("No message is selected. Select one with gmail_select_message or matrix_set_current first."), nil
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to add current item: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Added %q to %s (id %s)", stored.Subject, quadrantName(q), stored.ID)), nil
}

func handleSetCurrent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	s, err := common.SessionFromArgs(ctx, sc, args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	local, ok := s.Adapter().(*platform.LocalAdapter)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("matrix_set_current only works on the local platform, this server runs %q; use gmail_select_message", s.Adapter().Name())), nil
	}

	item, err := local.SetCurrentItem(itemFromArgs(args))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to set current item: %v", err)), nil
	}
	return common.JSONResult(item)
}

func handleRemoveItem(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	id, err := common.RequiredStringArg(args, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s, err := common.SessionFromArgs(ctx, sc, args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var removed bool
	if _, scoped := args["quadrant"]; scoped {
		q, qerr := common.QuadrantArg(args, "quadrant")
		if qerr != nil {
			return mcp.NewToolResultError(qerr.Error()), nil
		}
		removed, err = s.Remove(ctx, q, id)
	} else {
		removed, err = s.RemoveByID(ctx, id)
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to remove item: %v", err)), nil
	}
	if !removed {
		return mcp.NewToolResultText(fmt.Sprintf("Item %s is not in the matrix", id)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Removed item %s", id)), nil
}

func handleClearQuadrant(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	q, err := common.QuadrantArg(args, "quadrant")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s, err := common.SessionFromArgs(ctx, sc, args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	n := len(s.QuadrantItems(q))
	if err := s.ClearQuadrant(ctx, q); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to clear quadrant: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Cleared %s (%d items removed)", quadrantName(q), n)), nil
}

func handleClearAll(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	if !common.BoolArg(args, "confirm", false) {
		return mcp.NewToolResultError("confirm must be true to clear the whole matrix"), nil
	}
	s, err := common.SessionFromArgs(ctx, sc, args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	n := s.Stats().Total
	if err := s.ClearAll(ctx); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to clear matrix: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Cleared all quadrants (%d items removed)", n)), nil
}

func handleImport(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	doc, ok := args["document"].(string)
	if !ok || doc == "" {
		return mcp.NewToolResultError("document is required"), nil
	}
	s, err := common.SessionFromArgs(ctx, sc, args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	stats, err := s.Import(ctx, doc)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to import matrix: %v", err)), nil
	}
	return common.JSONResult(stats)
}
