// Package common provides shared utilities for MCP tool implementations:
// argument parsing, account and session resolution, JSON results and the
// instrumented handler wrapper every tool is registered through.
package common
