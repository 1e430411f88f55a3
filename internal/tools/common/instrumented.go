package common

import (
	"context"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/inboxmatrix/internal/instrumentation"
	"github.com/teemow/inboxmatrix/internal/server"
)

// ToolHandler is the mcp-go tool handler signature.
type ToolHandler = func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

// InstrumentedToolHandler wraps a tool handler with a trace span, metrics
// and audit logging.
//
// Usage:
//
//	s.AddTool(myTool, common.InstrumentedToolHandler("my_tool", sc, handler))
func InstrumentedToolHandler(toolName string, sc *server.ServerContext, handler ToolHandler) ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		account := GetAccountFromArgs(args)
		if account == "" {
			account = sc.DefaultAccount()
		}

		ctx, span := instrumentation.StartToolSpan(ctx, toolName, account)
		defer span.End()

		start := time.Now()
		quadrant, ids := TargetFromArgs(args)
		invocation := instrumentation.NewToolInvocation(toolName).
			WithSpanContext(ctx).
			WithAccount(account).
			WithTarget(quadrant, ids...)

		result, err := handler(ctx, request)

		failed := err != nil || (result != nil && result.IsError)
		invocation.Complete(!failed, err)
		if failed {
			instrumentation.SetSpanError(span, err)
		} else {
			instrumentation.SetSpanSuccess(span)
		}

		sc.Metrics().RecordToolInvocation(ctx, toolName, invocation.Status(), account, time.Since(start))
		sc.AuditLogger().LogToolInvocation(invocation)

		return result, err
	}
}
