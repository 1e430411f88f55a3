package platform

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"

	"github.com/teemow/inboxmatrix/internal/matrix"
)

// LocalAdapter is used from the terminal and by hosts that pass items
// explicitly. Items without an id get a random UUID.
type LocalAdapter struct {
	base
	out io.Writer

	currentMu sync.Mutex
	current   *matrix.Item
}

// NewLocalAdapter creates an uninitialized local adapter.
func NewLocalAdapter(deps Deps) *LocalAdapter {
	a := &LocalAdapter{out: deps.Out}
	a.setup(NameLocal, deps)
	return a
}

// Initialize implements Adapter.
func (a *LocalAdapter) Initialize(ctx context.Context) error {
	return a.initialize(ctx)
}

// SetCurrentItem makes item the current item and returns it with its id
// filled in.
func (a *LocalAdapter) SetCurrentItem(item matrix.Item) (matrix.Item, error) {
	if err := a.checkReady(); err != nil {
		return matrix.Item{}, err
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	a.currentMu.Lock()
	defer a.currentMu.Unlock()
	a.current = &item
	return item, nil
}

// ClearCurrentItem forgets the current item.
func (a *LocalAdapter) ClearCurrentItem() {
	a.currentMu.Lock()
	defer a.currentMu.Unlock()
	a.current = nil
}

// CurrentItem implements Adapter.
func (a *LocalAdapter) CurrentItem(context.Context) (matrix.Item, bool, error) {
	if err := a.checkReady(); err != nil {
		return matrix.Item{}, false, err
	}
	a.currentMu.Lock()
	defer a.currentMu.Unlock()
	if a.current == nil {
		return matrix.Item{}, false, nil
	}
	return *a.current, true, nil
}

// Notify implements Adapter.
func (a *LocalAdapter) Notify(_ context.Context, message string) error {
	if err := a.checkReady(); err != nil {
		return err
	}
	a.record(message)
	a.logger.Debug("notification")
	if a.out == nil {
		return nil
	}
	if _, err := fmt.Fprintln(a.out, message); err != nil {
		return fmt.Errorf("failed to write notification: %w", err)
	}
	return nil
}
