package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/teemow/inboxmatrix/internal/instrumentation"
	"github.com/teemow/inboxmatrix/internal/logging"
	"github.com/teemow/inboxmatrix/internal/matrix"
	"github.com/teemow/inboxmatrix/internal/platform"
)

// DataKey is the blob key of the default account's matrix.
const DataKey = "eisenhowerMatrix"

// Notification texts.
const (
	MsgAddFailed  = "Error: Could not add message to matrix"
	MsgSaveFailed = "Error: Could not save matrix"
)

// ErrNoCurrentItem is returned by AddCurrent when the adapter has no
// current item.
var ErrNoCurrentItem = errors.New("no current item selected")

// StorageKey returns the blob key for account.
func StorageKey(account string) string {
	if account == "" || account == "default" {
		return DataKey
	}
	return DataKey + ":" + account
}

// MetricsRecorder receives matrix metrics. *instrumentation.Metrics
// satisfies it.
type MetricsRecorder interface {
	RecordMatrixMutation(ctx context.Context, operation string, quadrant int)
	RecordMatrixSize(ctx context.Context, account string, byQuadrant map[int]int)
	SessionOpened(ctx context.Context)
	SessionClosed(ctx context.Context)
}

// Options configure a Session.
type Options struct {
	// Account selects the matrix namespace (default: "default")
	Account string

	Logger  *slog.Logger
	Metrics MetricsRecorder

	// Clock stamps added items. Defaults to time.Now.
	Clock func() time.Time
}

// Session is the adapter-layer view of one account's matrix. It is safe for
// concurrent use.
type Session struct {
	mu      sync.Mutex
	adapter platform.Adapter
	m       *matrix.Matrix
	account string
	key     string
	logger  *slog.Logger
	metrics MetricsRecorder
	closed  bool
}

// Open initializes adapter if needed and loads the persisted matrix. A blob
// that cannot be parsed is replaced by an empty matrix on the next save.
func Open(ctx context.Context, adapter platform.Adapter, opts Options) (*Session, error) {
	if adapter == nil {
		return nil, errors.New("session: adapter is required")
	}
	if !adapter.Ready() {
		if err := adapter.Initialize(ctx); err != nil {
			return nil, fmt.Errorf("failed to initialize %s adapter: %w", adapter.Name(), err)
		}
	}

	account := opts.Account
	if account == "" {
		account = "default"
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Session{
		adapter: adapter,
		m:       matrix.New(matrix.WithClock(opts.Clock)),
		account: account,
		key:     StorageKey(account),
		logger: logging.WithComponent(logger, "session").With(
			logging.Account(account),
			logging.Platform(adapter.Name()),
		),
		metrics: opts.Metrics,
	}

	if err := s.load(ctx); err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.SessionOpened(ctx)
	}
	s.recordSize(ctx)
	return s, nil
}

// Account returns the account this session belongs to.
func (s *Session) Account() string { return s.account }

// Key returns the blob key the matrix is persisted under.
func (s *Session) Key() string { return s.key }

// Adapter returns the platform adapter.
func (s *Session) Adapter() platform.Adapter { return s.adapter }

// Close releases the session. It does not close the adapter's store.
func (s *Session) Close(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	if s.metrics != nil {
		s.metrics.SessionClosed(ctx)
	}
}

func (s *Session) load(ctx context.Context) error {
	text, found, err := s.adapter.LoadData(ctx, s.key)
	if err != nil {
		return fmt.Errorf("failed to load matrix: %w", err)
	}
	s.m.ClearAll()
	if !found || text == "" {
		return nil
	}
	if err := s.m.ImportJSON(text); err != nil {
		s.logger.Warn("persisted matrix is unreadable, starting empty", logging.Err(err))
	}
	return nil
}

// Reload discards in-memory state and reads the persisted matrix again.
func (s *Session) Reload(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(ctx); err != nil {
		return err
	}
	s.recordSize(ctx)
	return nil
}

func (s *Session) save(ctx context.Context) error {
	b, err := json.Marshal(s.m.GetData())
	if err != nil {
		return fmt.Errorf("failed to encode matrix: %w", err)
	}
	if err := s.adapter.SaveData(ctx, s.key, string(b)); err != nil {
		return fmt.Errorf("failed to save matrix: %w", err)
	}
	return nil
}

// commit persists the current state. When saving fails the state is rolled
// back to before and the user is told with failMsg.
func (s *Session) commit(ctx context.Context, before matrix.Data, operation string, q matrix.Quadrant, failMsg string) error {
	if err := s.save(ctx); err != nil {
		s.m.Load(before)
		s.logger.Error("failed to persist matrix", logging.Operation(operation), logging.Err(err))
		s.notify(ctx, failMsg)
		return err
	}
	if s.metrics != nil {
		s.metrics.RecordMatrixMutation(ctx, operation, int(q))
	}
	s.recordSize(ctx)
	return nil
}

func (s *Session) notify(ctx context.Context, message string) {
	if err := s.adapter.Notify(ctx, message); err != nil {
		s.logger.Warn("failed to notify user", logging.Err(err))
	}
}

func (s *Session) recordSize(ctx context.Context) {
	if s.metrics == nil {
		return
	}
	stats := s.m.GetStats()
	sizes := make(map[int]int, len(stats.ByQuadrant))
	for q, n := range stats.ByQuadrant {
		sizes[int(q)] = n
	}
	s.metrics.RecordMatrixSize(ctx, s.account, sizes)
}

func quadrantName(q matrix.Quadrant) string {
	info, _ := matrix.Info(q)
	return info.Name
}

// Add places item in quadrant q and persists the matrix.
func (s *Session) Add(ctx context.Context, q matrix.Quadrant, item matrix.Item) (matrix.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.add(ctx, q, item)
}

func (s *Session) add(ctx context.Context, q matrix.Quadrant, item matrix.Item) (matrix.Item, error) {
	before := s.m.GetData()
	stored, err := s.m.AddItem(q, item)
	if err != nil {
		s.notify(ctx, MsgAddFailed)
		return matrix.Item{}, err
	}
	if err := s.commit(ctx, before, instrumentation.OperationAdd, q, MsgAddFailed); err != nil {
		return matrix.Item{}, err
	}
	s.logger.Debug("item added", logging.ItemID(stored.ID), logging.Quadrant(int(q)))
	s.notify(ctx, fmt.Sprintf("Added \"%s\" to %s", stored.Subject, quadrantName(q)))
	return stored, nil
}

// AddCurrent adds the adapter's current item to quadrant q.
func (s *Session) AddCurrent(ctx context.Context, q matrix.Quadrant) (matrix.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !q.Valid() {
		s.notify(ctx, MsgAddFailed)
		return matrix.Item{}, fmt.Errorf("%w: %d", matrix.ErrInvalidQuadrant, int(q))
	}
	item, found, err := s.adapter.CurrentItem(ctx)
	if err != nil {
		s.notify(ctx, MsgAddFailed)
		return matrix.Item{}, fmt.Errorf("failed to get current item: %w", err)
	}
	if !found {
		s.notify(ctx, MsgAddFailed)
		return matrix.Item{}, ErrNoCurrentItem
	}
	return s.add(ctx, q, item)
}

// Move relocates id to quadrant to. Moving to the current quadrant changes
// nothing and is not persisted.
func (s *Session) Move(ctx context.Context, id string, to matrix.Quadrant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.m.GetData()
	item, from, _ := s.m.FindItem(id)
	if err := s.m.MoveItem(id, to); err != nil {
		return err
	}
	if from == to {
		return nil
	}
	if err := s.commit(ctx, before, instrumentation.OperationMove, to, MsgSaveFailed); err != nil {
		return err
	}
	s.logger.Debug("item moved", logging.ItemID(id), logging.Quadrant(int(to)))
	s.notify(ctx, fmt.Sprintf("Moved \"%s\" to %s", item.Subject, quadrantName(to)))
	return nil
}

// Remove deletes id from quadrant q.
func (s *Session) Remove(ctx context.Context, q matrix.Quadrant, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.m.GetData()
	removed, err := s.m.RemoveItem(q, id)
	if err != nil || !removed {
		return false, err
	}
	if err := s.commit(ctx, before, instrumentation.OperationRemove, q, MsgSaveFailed); err != nil {
		return false, err
	}
	return true, nil
}

// RemoveByID deletes id from whichever quadrant holds it.
func (s *Session) RemoveByID(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.m.GetData()
	_, q, found := s.m.FindItem(id)
	if !found {
		return false, nil
	}
	s.m.RemoveItemByID(id)
	if err := s.commit(ctx, before, instrumentation.OperationRemove, q, MsgSaveFailed); err != nil {
		return false, err
	}
	return true, nil
}

// ClearQuadrant empties quadrant q.
func (s *Session) ClearQuadrant(ctx context.Context, q matrix.Quadrant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.m.GetData()
	if err := s.m.ClearQuadrant(q); err != nil {
		return err
	}
	if err := s.commit(ctx, before, instrumentation.OperationClear, q, MsgSaveFailed); err != nil {
		return err
	}
	s.notify(ctx, "Cleared "+quadrantName(q))
	return nil
}

// ClearAll empties every quadrant.
func (s *Session) ClearAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.m.GetData()
	s.m.ClearAll()
	if err := s.commit(ctx, before, instrumentation.OperationClear, 0, MsgSaveFailed); err != nil {
		return err
	}
	s.notify(ctx, "Cleared all quadrants")
	return nil
}

// Import replaces the matrix with the JSON document text. Invalid documents
// leave the matrix untouched.
func (s *Session) Import(ctx context.Context, text string) (matrix.Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	before := s.m.GetData()
	if err := s.m.ImportJSON(text); err != nil {
		return matrix.Stats{}, err
	}
	if err := s.commit(ctx, before, instrumentation.OperationImport, 0, MsgSaveFailed); err != nil {
		return matrix.Stats{}, err
	}
	stats := s.m.GetStats()
	s.notify(ctx, fmt.Sprintf("Imported %d items", stats.Total))
	return stats, nil
}

// Export returns the matrix as an indented JSON document.
func (s *Session) Export() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m.ExportJSON()
}

// Snapshot returns a copy of the matrix.
func (s *Session) Snapshot() matrix.Data {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m.GetData()
}

// QuadrantItems returns a copy of the items in quadrant q.
func (s *Session) QuadrantItems(q matrix.Quadrant) []matrix.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m.QuadrantItems(q)
}

// Find locates id.
func (s *Session) Find(id string) (matrix.Item, matrix.Quadrant, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m.FindItem(id)
}

// Stats summarizes the matrix.
func (s *Session) Stats() matrix.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.m.GetStats()
}
