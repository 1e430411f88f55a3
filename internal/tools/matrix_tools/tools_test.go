package matrix_tools

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/option"

	"github.com/teemow/inboxmatrix/internal/google"
	"github.com/teemow/inboxmatrix/internal/matrix"
	"github.com/teemow/inboxmatrix/internal/server"
	"github.com/teemow/inboxmatrix/internal/storage"
	"github.com/teemow/inboxmatrix/internal/tools/batch"
)

func newServerContext(t *testing.T, opts server.Options) *server.ServerContext {
	t.Helper()
	if opts.Store == nil {
		opts.Store = storage.NewMemoryStore()
	}
	if opts.Platform == "" {
		opts.Platform = "local"
	}
	opts.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	sc, err := server.NewServerContext(context.Background(), opts)
	require.NoError(t, err)
	t.Cleanup(func() { _ = sc.Shutdown() })
	return sc
}

func call(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "content is %T", res.Content[0])
	return text.Text
}

func TestRegisterMatrixTools(t *testing.T) {
	sc := newServerContext(t, server.Options{})

	readTools := []string{"matrix_get", "matrix_stats", "matrix_quadrant_info", "matrix_list_quadrant", "matrix_find_item", "matrix_export"}
	writeTools := []string{
		"matrix_add_item", "matrix_add_current", "matrix_set_current", "matrix_add_messages",
		"matrix_move_items", "matrix_remove_item", "matrix_remove_items",
		"matrix_clear_quadrant", "matrix_clear_all", "matrix_import",
	}

	tests := []struct {
		name     string
		readOnly bool
	}{
		{name: "read-write", readOnly: false},
		{name: "read-only", readOnly: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := mcpserver.NewMCPServer("test", "0.0.0", mcpserver.WithToolCapabilities(true))
			require.NoError(t, RegisterMatrixTools(s, sc, tt.readOnly))

			tools := s.ListTools()
			for _, name := range readTools {
				assert.Contains(t, tools, name)
			}
			for _, name := range writeTools {
				if tt.readOnly {
					assert.NotContains(t, tools, name)
				} else {
					assert.Contains(t, tools, name)
				}
			}
		})
	}
}

func TestAddFindMoveRemove(t *testing.T) {
	sc := newServerContext(t, server.Options{})
	ctx := context.Background()

	res, err := handleAddItem(ctx, call(map[string]any{
		"quadrant": float64(1),
		"id":       "msg-1",
		"subject":  "Quarterly report",
		"sender":   "boss@example.com",
	}), sc)
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Contains(t, resultText(t, res), `Added "Quarterly report" to Do First`)

	res, err = handleFindItem(ctx, call(map[string]any{"id": "msg-1"}), sc)
	require.NoError(t, err)
	var found foundItem
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &found))
	assert.True(t, found.Found)
	assert.Equal(t, matrix.DoFirst, found.Quadrant)
	assert.Equal(t, "boss@example.com", found.Item.Sender)

	res, err = handleMoveItems(ctx, call(map[string]any{
		"ids":         []any{"msg-1", "missing"},
		"to_quadrant": float64(2),
	}), sc)
	require.NoError(t, err)
	var moved batch.BatchResult
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &moved))
	assert.Equal(t, 2, moved.Total)
	assert.Equal(t, 1, moved.Successful)
	assert.Equal(t, 1, moved.Failed)

	res, err = handleListQuadrant(ctx, call(map[string]any{"quadrant": float64(2)}), sc)
	require.NoError(t, err)
	var listing quadrantListing
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &listing))
	assert.Equal(t, "Schedule", listing.Name)
	require.Len(t, listing.Items, 1)
	assert.Equal(t, "msg-1", listing.Items[0].ID)

	res, err = handleRemoveItem(ctx, call(map[string]any{"id": "msg-1", "quadrant": float64(1)}), sc)
	require.NoError(t, err)
	assert.Contains(t, resultText(t, res), "is not in the matrix")

	res, err = handleRemoveItem(ctx, call(map[string]any{"id": "msg-1"}), sc)
	require.NoError(t, err)
	assert.Contains(t, resultText(t, res), "Removed item msg-1")

	res, err = handleFindItem(ctx, call(map[string]any{"id": "msg-1"}), sc)
	require.NoError(t, err)
	assert.JSONEq(t, `{"found":false}`, resultText(t, res))
}

func TestAddItem_InvalidArguments(t *testing.T) {
	sc := newServerContext(t, server.Options{})
	ctx := context.Background()

	tests := []struct {
		name string
		args map[string]any
	}{
		{name: "missing quadrant", args: map[string]any{"id": "x"}},
		{name: "quadrant out of range", args: map[string]any{"id": "x", "quadrant": float64(0)}},
		{name: "missing id", args: map[string]any{"quadrant": float64(1)}},
		{name: "blank id", args: map[string]any{"quadrant": float64(1), "id": "   "}},
		{name: "bad account", args: map[string]any{"quadrant": float64(1), "id": "x", "account": "a b"}},
		{name: "id not UTF-8", args: map[string]any{"quadrant": float64(1), "id": "a\xff"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := handleAddItem(ctx, call(tt.args), sc)
			require.NoError(t, err)
			assert.True(t, res.IsError)
		})
	}

	s, err := sc.Session(ctx, "default")
	require.NoError(t, err)
	assert.True(t, s.Stats().IsEmpty)
}

func TestItemOptions_Defaults(t *testing.T) {
	tool := mcp.NewTool("matrix_add_item", itemOptions()...)

	tests := []struct {
		property string
		want     string
	}{
		{"subject", `(default: "` + matrix.DefaultSubject + `")`},
		{"sender", `(default: "` + matrix.DefaultSender + `")`},
		{"type", `(default: "` + matrix.DefaultType + `")`},
		{"date", matrix.DateLayout},
	}

	for _, tt := range tests {
		t.Run(tt.property, func(t *testing.T) {
			prop, ok := tool.InputSchema.Properties[tt.property].(map[string]any)
			require.True(t, ok, "property %s missing", tt.property)
			assert.Contains(t, prop["description"], tt.want)
		})
	}
}

func TestAccountsAreIsolated(t *testing.T) {
	sc := newServerContext(t, server.Options{})
	ctx := context.Background()

	_, err := handleAddItem(ctx, call(map[string]any{"quadrant": float64(3), "id": "w1", "account": "work"}), sc)
	require.NoError(t, err)

	res, err := handleStats(ctx, call(map[string]any{}), sc)
	require.NoError(t, err)
	var stats matrix.Stats
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &stats))
	assert.True(t, stats.IsEmpty)

	res, err = handleStats(ctx, call(map[string]any{"account": "work"}), sc)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &stats))
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, matrix.Delegate, stats.MostUsedQuadrant)
}

func TestSetAndAddCurrent(t *testing.T) {
	sc := newServerContext(t, server.Options{})
	ctx := context.Background()

	res, err := handleAddCurrent(ctx, call(map[string]any{"quadrant": float64(1)}), sc)
	require.NoError(t, err)
	assert.True(t, res.IsError, "nothing is selected yet")

	res, err = handleSetCurrent(ctx, call(map[string]any{"subject": "Invoice"}), sc)
	require.NoError(t, err)
	var current matrix.Item
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &current))
	assert.NotEmpty(t, current.ID)

	res, err = handleAddCurrent(ctx, call(map[string]any{"quadrant": float64(4)}), sc)
	require.NoError(t, err)
	assert.False(t, res.IsError)
	assert.Contains(t, resultText(t, res), `Added "Invoice" to Eliminate`)

	s, err := sc.Session(ctx, "default")
	require.NoError(t, err)
	_, q, ok := s.Find(current.ID)
	assert.True(t, ok)
	assert.Equal(t, matrix.Eliminate, q)
}

func TestClearTools(t *testing.T) {
	sc := newServerContext(t, server.Options{})
	ctx := context.Background()

	for i, id := range []string{"a", "b", "c"} {
		_, err := handleAddItem(ctx, call(map[string]any{"quadrant": float64(i%2 + 1), "id": id}), sc)
		require.NoError(t, err)
	}

	res, err := handleClearQuadrant(ctx, call(map[string]any{"quadrant": float64(1)}), sc)
	require.NoError(t, err)
	assert.Equal(t, "Cleared Do First (2 items removed)", resultText(t, res))

	res, err = handleClearAll(ctx, call(map[string]any{}), sc)
	require.NoError(t, err)
	assert.True(t, res.IsError, "confirm is required")

	res, err = handleClearAll(ctx, call(map[string]any{"confirm": true}), sc)
	require.NoError(t, err)
	assert.Equal(t, "Cleared all quadrants (1 items removed)", resultText(t, res))
}

func TestExportImport(t *testing.T) {
	sc := newServerContext(t, server.Options{})
	ctx := context.Background()

	_, err := handleAddItem(ctx, call(map[string]any{"quadrant": float64(2), "id": "keep", "subject": "Plan"}), sc)
	require.NoError(t, err)

	res, err := handleExport(ctx, call(map[string]any{}), sc)
	require.NoError(t, err)
	exported := resultText(t, res)
	assert.Contains(t, exported, `"keep"`)

	res, err = handleImport(ctx, call(map[string]any{"document": "[1,2,3]"}), sc)
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = handleGet(ctx, call(map[string]any{}), sc)
	require.NoError(t, err)
	assert.Contains(t, resultText(t, res), `"keep"`, "a rejected import leaves the matrix unchanged")

	res, err = handleImport(ctx, call(map[string]any{"account": "copy", "document": exported}), sc)
	require.NoError(t, err)
	require.False(t, res.IsError)
	var stats matrix.Stats
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &stats))
	assert.Equal(t, 1, stats.Total)
	assert.Equal(t, 1, stats.ByQuadrant[matrix.Schedule])
}

func TestQuadrantInfo(t *testing.T) {
	res, err := handleQuadrantInfo(context.Background(), call(map[string]any{}))
	require.NoError(t, err)
	var catalog []matrix.QuadrantInfo
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &catalog))
	assert.Len(t, catalog, 4)

	res, err = handleQuadrantInfo(context.Background(), call(map[string]any{"quadrant": float64(3)}))
	require.NoError(t, err)
	var info matrix.QuadrantInfo
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &info))
	assert.Equal(t, "Delegate", info.Name)

	res, err = handleQuadrantInfo(context.Background(), call(map[string]any{"quadrant": float64(9)}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

// fakeGmailAPI serves messages.get for ids starting with "m".
func fakeGmailAPI(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		id := r.URL.Path[strings.LastIndex(r.URL.Path, "/")+1:]
		if !strings.HasPrefix(id, "m") {
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":{"code":404,"message":"not found"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id": id,
			"payload": map[string]any{"headers": []map[string]string{
				{"name": "Subject", "value": "Subject of " + id},
				{"name": "From", "value": "sender@example.com"},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestAddMessages(t *testing.T) {
	api := fakeGmailAPI(t)
	sc := newServerContext(t, server.Options{
		Platform: "gmail",
		Tokens:   google.NewStaticTokenProvider(),
		GmailOptions: []option.ClientOption{
			option.WithHTTPClient(api.Client()),
			option.WithEndpoint(api.URL + "/"),
		},
	})
	ctx := context.Background()

	res, err := handleAddMessages(ctx, call(map[string]any{
		"quadrant":    float64(2),
		"message_ids": `["m1", "x2", "m3"]`,
	}), sc)
	require.NoError(t, err)
	var br batch.BatchResult
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &br))
	assert.Equal(t, 3, br.Total)
	assert.Equal(t, 2, br.Successful)
	assert.Equal(t, batch.StatusError, br.Results[1].Status)

	s, err := sc.Session(ctx, "default")
	require.NoError(t, err)
	items := s.QuadrantItems(matrix.Schedule)
	require.Len(t, items, 2)
	assert.Equal(t, "Subject of m1", items[0].Subject)
	assert.Equal(t, "sender@example.com", items[0].Sender)
}

func TestSetCurrent_GmailPlatform(t *testing.T) {
	api := fakeGmailAPI(t)
	sc := newServerContext(t, server.Options{
		Platform:     "gmail",
		Tokens:       google.NewStaticTokenProvider(),
		GmailOptions: []option.ClientOption{option.WithHTTPClient(api.Client()), option.WithEndpoint(api.URL + "/")},
	})

	res, err := handleSetCurrent(context.Background(), call(map[string]any{"id": "m1"}), sc)
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, resultText(t, res), "gmail_select_message")
}
