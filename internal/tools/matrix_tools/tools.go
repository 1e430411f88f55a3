package matrix_tools

import (
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/inboxmatrix/internal/server"
	"github.com/teemow/inboxmatrix/internal/tools/common"
)

const accountDescription = "Account name (default: 'default'). Each account has its own matrix."

const quadrantDescription = "Quadrant number: 1 Do First (urgent, important), 2 Schedule (important), 3 Delegate (urgent), 4 Eliminate"

// RegisterMatrixTools registers the matrix tools. Mutating tools are
// skipped when readOnly is set.
func RegisterMatrixTools(s *mcpserver.MCPServer, sc *server.ServerContext, readOnly bool) error {
	registerReadTools(s, sc)
	if readOnly {
		return nil
	}
	registerWriteTools(s, sc)
	registerBatchTools(s, sc)
	return nil
}

func addTool(s *mcpserver.MCPServer, sc *server.ServerContext, tool mcp.Tool, handler common.ToolHandler) {
	s.AddTool(tool, common.InstrumentedToolHandler(tool.Name, sc, handler))
}

func accountOption() mcp.ToolOption {
	return mcp.WithString("account", mcp.Description(accountDescription))
}
