// Package matrix holds the platform-agnostic Eisenhower matrix: four fixed
// priority quadrants, the items triaged into them, and the statistics and
// JSON document derived from that state.
//
// The package performs no I/O and no locking. A Matrix is meant to be owned
// by a single caller at a time; callers that share one across goroutines
// (see internal/session) must serialize access themselves.
//
// # Quadrants
//
// Quadrants are numbered 1 to 4:
//
//	1  Do First   Urgent + Important
//	2  Schedule   Not Urgent + Important
//	3  Delegate   Urgent + Not Important
//	4  Eliminate  Not Urgent + Not Important
//
// # Invariants
//
// An item id appears in at most one quadrant, and all four quadrants always
// exist (possibly empty). Every mutation preserves both.
//
// # Persistence format
//
// ExportJSON produces an indented object keyed "1" through "4", each holding
// an array of items. ImportJSON accepts the same document and is tolerant of
// missing or malformed quadrants, which load as empty.
package matrix
