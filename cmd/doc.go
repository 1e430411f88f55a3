// Package cmd implements the command-line interface for inboxmatrix.
//
// This package provides the following commands:
//   - matrix: view and edit the matrix (show, add, select, move, remove,
//     find, list, stats, clear, export, import)
//   - auth: authorize a Gmail account (url, save, status)
//   - serve: Start the MCP server to provide tools for AI assistants
//   - generate-docs: Generate markdown documentation for all MCP tools
//   - version: Display version information
//
// "matrix show" is the default command when no subcommand is specified.
package cmd
