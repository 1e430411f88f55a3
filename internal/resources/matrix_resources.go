package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/inboxmatrix/internal/matrix"
	"github.com/teemow/inboxmatrix/internal/server"
	"github.com/teemow/inboxmatrix/internal/session"
)

// Resource URIs.
const (
	QuadrantsURI = "matrix://quadrants"
	DataURI      = "matrix://data"
	StatsURI     = "matrix://stats"
)

const mimeJSON = "application/json"

// RegisterMatrixResources registers the matrix resources.
func RegisterMatrixResources(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	s.AddResource(mcp.NewResource(
		QuadrantsURI,
		"Eisenhower Quadrants",
		mcp.WithResourceDescription("Names, meanings and colors of the four quadrants"),
		mcp.WithMIMEType(mimeJSON),
	), handleQuadrants)

	s.AddResource(mcp.NewResource(
		DataURI,
		"Eisenhower Matrix",
		mcp.WithResourceDescription("All triaged items of the default account, grouped by quadrant"),
		mcp.WithMIMEType(mimeJSON),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleData(ctx, request, sc)
	})

	s.AddResource(mcp.NewResource(
		StatsURI,
		"Matrix Statistics",
		mcp.WithResourceDescription("Item counts per quadrant for the default account"),
		mcp.WithMIMEType(mimeJSON),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		return handleStats(ctx, request, sc)
	})

	return nil
}

func handleQuadrants(_ context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonContents(request.Params.URI, matrix.Catalog())
}

func handleData(ctx context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	s, err := defaultSession(ctx, sc)
	if err != nil {
		return nil, err
	}
	return jsonContents(request.Params.URI, s.Snapshot())
}

func handleStats(ctx context.Context, request mcp.ReadResourceRequest, sc *server.ServerContext) ([]mcp.ResourceContents, error) {
	s, err := defaultSession(ctx, sc)
	if err != nil {
		return nil, err
	}
	return jsonContents(request.Params.URI, s.Stats())
}

func defaultSession(ctx context.Context, sc *server.ServerContext) (*session.Session, error) {
	s, err := sc.Session(ctx, sc.DefaultAccount())
	if err != nil {
		return nil, fmt.Errorf("failed to open matrix for account %s: %w", sc.DefaultAccount(), err)
	}
	return s, nil
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		&mcp.TextResourceContents{
			URI:      uri,
			MIMEType: mimeJSON,
			Text:     string(jsonData),
		},
	}, nil
}
