// Package batch holds the helpers shared by tools that act on several
// matrix items or messages in one call: parsing id parameters, running
// the per-id operation with partial failure and formatting the summary.
package batch
