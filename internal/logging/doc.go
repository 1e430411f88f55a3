// Package logging provides structured logging helpers for inboxmatrix.
//
// Everything logs through the standard library's slog package. This package
// only fixes attribute names so that log lines from the CLI, the MCP tools
// and the storage backends can be filtered the same way.
//
// # Usage Patterns
//
//	logger := logging.WithOperation(slog.Default(), "matrix.add")
//	logger.Info("item added",
//	    logging.Quadrant(1),
//	    logging.ItemID(id))
//
// Message subjects and senders are never logged; item ids are.
package logging
