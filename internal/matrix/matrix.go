package matrix

import (
	"errors"
	"fmt"
	"time"
	"unicode/utf8"
)

var (
	// ErrEmptyItemID is returned when an item without an id is added.
	ErrEmptyItemID = errors.New("item id is required")
	// ErrInvalidItemID is returned for ids that are not valid UTF-8.
	ErrInvalidItemID = errors.New("item id must be valid UTF-8")
	// ErrItemNotFound is returned when moving an id that is not in the matrix.
	ErrItemNotFound = errors.New("item not found")
)

// Data is a snapshot of the matrix: every quadrant mapped to its items in
// display order. Snapshots produced by this package always carry all four
// quadrants with non-nil slices.
type Data map[Quadrant][]Item

// Total returns the number of items across all quadrants.
func (d Data) Total() int {
	n := 0
	for _, q := range Quadrants {
		n += len(d[q])
	}
	return n
}

// Option configures a Matrix.
type Option func(*Matrix)

// WithClock overrides the time source used to stamp added items.
func WithClock(now func() time.Time) Option {
	return func(m *Matrix) {
		if now != nil {
			m.now = now
		}
	}
}

// Matrix is the in-memory four-quadrant store. The zero value is not usable;
// construct one with New.
type Matrix struct {
	buckets map[Quadrant][]Item
	now     func() time.Time
}

// New returns an empty matrix.
func New(opts ...Option) *Matrix {
	m := &Matrix{now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	m.reset()
	return m
}

func (m *Matrix) reset() {
	m.buckets = emptyBuckets()
}

func emptyBuckets() map[Quadrant][]Item {
	b := make(map[Quadrant][]Item, len(Quadrants))
	for _, q := range Quadrants {
		b[q] = []Item{}
	}
	return b
}

// Load replaces the whole matrix with d. Missing quadrants load empty.
func (m *Matrix) Load(d Data) {
	m.buckets = normalizeBuckets(func(q Quadrant) []any {
		items := d[q]
		out := make([]any, 0, len(items))
		for _, it := range items {
			out = append(out, it)
		}
		return out
	})
}

// LoadData replaces the whole matrix from loosely typed input, usually the
// result of decoding a persisted JSON document.
//
// raw may be Data or a map keyed by quadrant number ("1".."4"). For each
// quadrant the matching value is used when it is an array; anything else
// loads as an empty quadrant. Array entries that are not objects, or that
// have no id, are skipped. When an id appears more than once, only the first
// occurrence in quadrant order is kept. If raw is not a map at all the
// current state is left unchanged.
func (m *Matrix) LoadData(raw any) {
	switch t := raw.(type) {
	case Data:
		m.Load(t)
	case map[Quadrant][]Item:
		m.Load(Data(t))
	case map[string]any:
		m.buckets = normalizeBuckets(func(q Quadrant) []any {
			arr, _ := t[q.Key()].([]any)
			return arr
		})
	}
}

func normalizeBuckets(source func(Quadrant) []any) map[Quadrant][]Item {
	buckets := emptyBuckets()
	seen := make(map[string]struct{})
	for _, q := range Quadrants {
		for _, entry := range source(q) {
			it, ok := itemFromRaw(entry)
			if !ok || it.ID == "" || !utf8.ValidString(it.ID) {
				continue
			}
			if _, dup := seen[it.ID]; dup {
				continue
			}
			seen[it.ID] = struct{}{}
			buckets[q] = append(buckets[q], it.validText())
		}
	}
	return buckets
}

// GetData returns a copy of the current state. Later mutations of the
// matrix are not reflected in the returned value.
func (m *Matrix) GetData() Data {
	d := make(Data, len(Quadrants))
	for _, q := range Quadrants {
		d[q] = append([]Item{}, m.buckets[q]...)
	}
	return d
}

// AddItem places item in quadrant q and returns the stored record.
//
// Any existing item with the same id is first removed from every quadrant,
// so re-adding an item relocates and refreshes it instead of duplicating it.
// Missing display fields are defaulted and the timestamp is set to now.
func (m *Matrix) AddItem(q Quadrant, item Item) (Item, error) {
	if err := checkQuadrant(q); err != nil {
		return Item{}, err
	}
	if item.ID == "" {
		return Item{}, ErrEmptyItemID
	}
	if !utf8.ValidString(item.ID) {
		return Item{}, ErrInvalidItemID
	}
	m.RemoveItemByID(item.ID)
	stored := item.normalize(m.now())
	m.buckets[q] = append(m.buckets[q], stored)
	return stored, nil
}

// RemoveItem removes id from quadrant q only. It reports whether an item was
// removed; an absent id is not an error.
func (m *Matrix) RemoveItem(q Quadrant, id string) (bool, error) {
	if err := checkQuadrant(q); err != nil {
		return false, err
	}
	return m.removeFrom(q, id), nil
}

func (m *Matrix) removeFrom(q Quadrant, id string) bool {
	items := m.buckets[q]
	kept := make([]Item, 0, len(items))
	for _, it := range items {
		if it.ID != id {
			kept = append(kept, it)
		}
	}
	m.buckets[q] = kept
	return len(kept) < len(items)
}

// RemoveItemByID removes id from whichever quadrant holds it and reports
// whether anything was removed.
func (m *Matrix) RemoveItemByID(id string) bool {
	removed := false
	for _, q := range Quadrants {
		if m.removeFrom(q, id) {
			removed = true
		}
	}
	return removed
}

// QuadrantItems returns a copy of the items in q. An invalid quadrant yields
// an empty slice.
func (m *Matrix) QuadrantItems(q Quadrant) []Item {
	if !q.Valid() {
		return []Item{}
	}
	return append([]Item{}, m.buckets[q]...)
}

// ClearQuadrant empties quadrant q.
func (m *Matrix) ClearQuadrant(q Quadrant) error {
	if err := checkQuadrant(q); err != nil {
		return err
	}
	m.buckets[q] = []Item{}
	return nil
}

// ClearAll empties every quadrant.
func (m *Matrix) ClearAll() {
	m.reset()
}

// FindItem looks id up across quadrants 1 through 4 and returns the first
// match with its quadrant.
func (m *Matrix) FindItem(id string) (Item, Quadrant, bool) {
	for _, q := range Quadrants {
		for _, it := range m.buckets[q] {
			if it.ID == id {
				return it, q, true
			}
		}
	}
	return Item{}, 0, false
}

// MoveItem relocates id to the tail of quadrant to. The stored record moves
// unchanged, timestamp included. Moving an item to the quadrant it already
// occupies succeeds without changing anything.
func (m *Matrix) MoveItem(id string, to Quadrant) error {
	if err := checkQuadrant(to); err != nil {
		return err
	}
	it, from, ok := m.FindItem(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrItemNotFound, id)
	}
	if from == to {
		return nil
	}
	m.removeFrom(from, id)
	m.buckets[to] = append(m.buckets[to], it)
	return nil
}
