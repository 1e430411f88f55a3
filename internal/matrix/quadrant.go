package matrix

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Quadrant identifies one of the four Eisenhower buckets.
type Quadrant int

// The four quadrants. Their numeric values are part of the persisted format.
const (
	DoFirst   Quadrant = 1
	Schedule  Quadrant = 2
	Delegate  Quadrant = 3
	Eliminate Quadrant = 4
)

// Quadrants lists every quadrant in ascending order.
var Quadrants = []Quadrant{DoFirst, Schedule, Delegate, Eliminate}

// ErrInvalidQuadrant is returned when a quadrant value is outside 1..4.
var ErrInvalidQuadrant = errors.New("invalid quadrant")

// QuadrantInfo is the static display metadata for a quadrant.
type QuadrantInfo struct {
	Quadrant    Quadrant `json:"quadrant"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Color       string   `json:"color"`
	Icon        string   `json:"icon"`
	Examples    string   `json:"examples"`
}

var catalog = map[Quadrant]QuadrantInfo{
	DoFirst: {
		Quadrant:    DoFirst,
		Name:        "Do First",
		Description: "Urgent + Important",
		Color:       "#d83b01",
		Icon:        "🔴",
		Examples:    "Crises, emergencies, deadlines",
	},
	Schedule: {
		Quadrant:    Schedule,
		Name:        "Schedule",
		Description: "Not Urgent + Important",
		Color:       "#0078d4",
		Icon:        "🔵",
		Examples:    "Planning, prevention, relationship building",
	},
	Delegate: {
		Quadrant:    Delegate,
		Name:        "Delegate",
		Description: "Urgent + Not Important",
		Color:       "#ffaa44",
		Icon:        "🟡",
		Examples:    "Interruptions, some meetings, some emails",
	},
	Eliminate: {
		Quadrant:    Eliminate,
		Name:        "Eliminate",
		Description: "Not Urgent + Not Important",
		Color:       "#767676",
		Icon:        "⚫",
		Examples:    "Time wasters, busy work, some social media",
	},
}

// Valid reports whether q is one of the four quadrants.
func (q Quadrant) Valid() bool {
	return q >= DoFirst && q <= Eliminate
}

// String returns the quadrant's display name, or "Quadrant(n)" when invalid.
func (q Quadrant) String() string {
	if info, ok := catalog[q]; ok {
		return info.Name
	}
	return fmt.Sprintf("Quadrant(%d)", int(q))
}

// Key returns the decimal key used for q in the persisted document.
func (q Quadrant) Key() string {
	return strconv.Itoa(int(q))
}

// Info returns the catalog entry for q. The second result is false when q
// is not a valid quadrant.
func Info(q Quadrant) (QuadrantInfo, bool) {
	info, ok := catalog[q]
	return info, ok
}

// Catalog returns the metadata of all four quadrants in ascending order.
func Catalog() []QuadrantInfo {
	out := make([]QuadrantInfo, 0, len(Quadrants))
	for _, q := range Quadrants {
		out = append(out, catalog[q])
	}
	return out
}

// ParseQuadrant converts a loosely typed value into a Quadrant.
//
// It accepts Go integer types, integral floats (as produced by
// encoding/json), and decimal integer strings. Fractional numbers,
// out-of-range values and anything else return ErrInvalidQuadrant.
func ParseQuadrant(v any) (Quadrant, error) {
	var n int64
	switch t := v.(type) {
	case Quadrant:
		n = int64(t)
	case int:
		n = int64(t)
	case int8:
		n = int64(t)
	case int16:
		n = int64(t)
	case int32:
		n = int64(t)
	case int64:
		n = t
	case uint:
		n = int64(t)
	case uint8:
		n = int64(t)
	case uint16:
		n = int64(t)
	case uint32:
		n = int64(t)
	case float32:
		return parseFloatQuadrant(float64(t), v)
	case float64:
		return parseFloatQuadrant(t, v)
	case string:
		parsed, err := strconv.ParseInt(strings.TrimSpace(t), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q", ErrInvalidQuadrant, t)
		}
		n = parsed
	default:
		return 0, fmt.Errorf("%w: %v", ErrInvalidQuadrant, v)
	}
	q := Quadrant(n)
	if int64(q) != n || !q.Valid() {
		return 0, fmt.Errorf("%w: %v", ErrInvalidQuadrant, v)
	}
	return q, nil
}

func parseFloatQuadrant(f float64, raw any) (Quadrant, error) {
	if math.IsNaN(f) || f != math.Trunc(f) || f < float64(DoFirst) || f > float64(Eliminate) {
		return 0, fmt.Errorf("%w: %v", ErrInvalidQuadrant, raw)
	}
	return Quadrant(f), nil
}

func checkQuadrant(q Quadrant) error {
	if !q.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidQuadrant, int(q))
	}
	return nil
}
