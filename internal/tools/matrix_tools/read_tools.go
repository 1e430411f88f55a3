package matrix_tools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/inboxmatrix/internal/matrix"
	"github.com/teemow/inboxmatrix/internal/server"
	"github.com/teemow/inboxmatrix/internal/tools/common"
)

func registerReadTools(s *mcpserver.MCPServer, sc *server.ServerContext) {
	addTool(s, sc, mcp.NewTool("matrix_get",
		mcp.WithDescription("Get the whole Eisenhower matrix: the items of all four quadrants"),
		mcp.WithReadOnlyHintAnnotation(true),
		accountOption(),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleGet(ctx, request, sc)
	})

	addTool(s, sc, mcp.NewTool("matrix_stats",
		mcp.WithDescription("Get item counts per quadrant, the total and the most used quadrant"),
		mcp.WithReadOnlyHintAnnotation(true),
		accountOption(),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleStats(ctx, request, sc)
	})

	addTool(s, sc, mcp.NewTool("matrix_quadrant_info",
		mcp.WithDescription("Describe the four quadrants: name, meaning, color and examples"),
		mcp.WithReadOnlyHintAnnotation(true),
		mcp.WithNumber("quadrant", mcp.Description("Only describe this quadrant (1-4)")),
	), handleQuadrantInfo)

	addTool(s, sc, mcp.NewTool("matrix_list_quadrant",
		mcp.WithDescription("List the items in one quadrant, in the order they were added"),
		mcp.WithReadOnlyHintAnnotation(true),
		accountOption(),
		mcp.WithNumber("quadrant", mcp.Required(), mcp.Description(quadrantDescription)),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleListQuadrant(ctx, request, sc)
	})

	addTool(s, sc, mcp.NewTool("matrix_find_item",
		mcp.WithDescription("Find an item by id and report the quadrant holding it"),
		mcp.WithReadOnlyHintAnnotation(true),
		accountOption(),
		mcp.WithString("id", mcp.Required(), mcp.Description("Item id (for Gmail items, the message id)")),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleFindItem(ctx, request, sc)
	})

	addTool(s, sc, mcp.NewTool("matrix_export",
		mcp.WithDescription("Export the matrix as a JSON document that matrix_import accepts"),
		mcp.WithReadOnlyHintAnnotation(true),
		accountOption(),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleExport(ctx, request, sc)
	})
}

func handleGet(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	s, err := common.SessionFromArgs(ctx, sc, request.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return common.JSONResult(s.Snapshot())
}

func handleStats(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	s, err := common.SessionFromArgs(ctx, sc, request.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return common.JSONResult(s.Stats())
}

func handleQuadrantInfo(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	if _, ok := args["quadrant"]; !ok {
		return common.JSONResult(matrix.Catalog())
	}
	q, err := common.QuadrantArg(args, "quadrant")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	info, _ := matrix.Info(q)
	return common.JSONResult(info)
}

// quadrantListing is the matrix_list_quadrant result.
type quadrantListing struct {
	Quadrant matrix.Quadrant `json:"quadrant"`
	Name     string          `json:"name"`
	Count    int             `json:"count"`
	Items    []matrix.Item   `json:"items"`
}

func handleListQuadrant(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	q, err := common.QuadrantArg(args, "quadrant")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s, err := common.SessionFromArgs(ctx, sc, args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	items := s.QuadrantItems(q)
	if items == nil {
		items = []matrix.Item{}
	}
	info, _ := matrix.Info(q)
	return common.JSONResult(quadrantListing{Quadrant: q, Name: info.Name, Count: len(items), Items: items})
}

// foundItem is the matrix_find_item result.
type foundItem struct {
	Found    bool            `json:"found"`
	Quadrant matrix.Quadrant `json:"quadrant,omitempty"`
	Name     string          `json:"name,omitempty"`
	Item     *matrix.Item    `json:"item,omitempty"`
}

func handleFindItem(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()
	id, err := common.RequiredStringArg(args, "id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	s, err := common.SessionFromArgs(ctx, sc, args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	item, q, ok := s.Find(id)
	if !ok {
		return common.JSONResult(foundItem{Found: false})
	}
	info, _ := matrix.Info(q)
	return common.JSONResult(foundItem{Found: true, Quadrant: q, Name: info.Name, Item: &item})
}

func handleExport(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	s, err := common.SessionFromArgs(ctx, sc, request.GetArguments())
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to open matrix: %v", err)), nil
	}
	return mcp.NewToolResultText(s.Export()), nil
}
