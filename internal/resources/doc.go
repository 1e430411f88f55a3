// Package resources provides MCP resources exposing the matrix of the
// server's default account as read-only JSON documents:
//
//   - matrix://quadrants: the quadrant catalog
//   - matrix://data: every item grouped by quadrant
//   - matrix://stats: item counts and the most used quadrant
package resources
