package resources

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/inboxmatrix/internal/matrix"
	"github.com/teemow/inboxmatrix/internal/server"
	"github.com/teemow/inboxmatrix/internal/storage"
)

func newServerContext(t *testing.T) *server.ServerContext {
	t.Helper()
	sc, err := server.NewServerContext(context.Background(), server.Options{
		Platform:       "local",
		DefaultAccount: "work",
		Store:          storage.NewMemoryStore(),
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func read(uri string) mcp.ReadResourceRequest {
	var req mcp.ReadResourceRequest
	req.Params.URI = uri
	return req
}

func contentText(t *testing.T, contents []mcp.ResourceContents) string {
	t.Helper()
	require.Len(t, contents, 1)
	tc, ok := contents[0].(*mcp.TextResourceContents)
	require.True(t, ok, "content is %T", contents[0])
	assert.Equal(t, "application/json", tc.MIMEType)
	return tc.Text
}

func TestRegisterMatrixResources(t *testing.T) {
	s := mcpserver.NewMCPServer("test", "0.0.0", mcpserver.WithResourceCapabilities(false, false))
	assert.NoError(t, RegisterMatrixResources(s, newServerContext(t)))
}

func TestQuadrantsResource(t *testing.T) {
	contents, err := handleQuadrants(context.Background(), read(QuadrantsURI))
	require.NoError(t, err)

	var catalog []matrix.QuadrantInfo
	require.NoError(t, json.Unmarshal([]byte(contentText(t, contents)), &catalog))
	require.Len(t, catalog, 4)
	assert.Equal(t, "Do First", catalog[0].Name)
	assert.Equal(t, "Eliminate", catalog[3].Name)
}

func TestDataAndStatsResources(t *testing.T) {
	sc := newServerContext(t)
	ctx := context.Background()

	s, err := sc.Session(ctx, "work")
	require.NoError(t, err)
	_, err = s.Add(ctx, matrix.Delegate, matrix.Item{ID: "a", Subject: "Expense report"})
	require.NoError(t, err)

	contents, err := handleData(ctx, read(DataURI), sc)
	require.NoError(t, err)
	text := contentText(t, contents)
	assert.Contains(t, text, "Expense report")

	var data map[string][]matrix.Item
	require.NoError(t, json.Unmarshal([]byte(text), &data))
	assert.Len(t, data["3"], 1)
	assert.Empty(t, data["1"])

	contents, err = handleStats(ctx, read(StatsURI), sc)
	require.NoError(t, err)
	var stats matrix.Stats
	require.NoError(t, json.Unmarshal([]byte(contentText(t, contents)), &stats))
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, matrix.Delegate, stats.MostUsedQuadrant)
}

func TestResources_AfterShutdown(t *testing.T) {
	sc := newServerContext(t)
	require.NoError(t, sc.Shutdown())

	_, err := handleData(context.Background(), read(DataURI), sc)
	assert.Error(t, err)
}
