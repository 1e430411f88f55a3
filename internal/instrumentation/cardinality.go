package instrumentation

import "strconv"

// Operation names used as metric labels for matrix mutations and storage.
const (
	OperationAdd    = "add"
	OperationMove   = "move"
	OperationRemove = "remove"
	OperationClear  = "clear"
	OperationImport = "import"
	OperationGet    = "get"
	OperationSet    = "set"
	OperationList   = "list"
)

// QuadrantLabel bounds the quadrant label to "1".."4", "all" (for 0) and
// "invalid", so untrusted input can never add label values.
func QuadrantLabel(q int) string {
	switch {
	case q == 0:
		return "all"
	case q >= 1 && q <= 4:
		return strconv.Itoa(q)
	default:
		return "invalid"
	}
}
