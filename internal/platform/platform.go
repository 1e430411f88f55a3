package platform

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/teemow/inboxmatrix/internal/gmail"
	"github.com/teemow/inboxmatrix/internal/logging"
	"github.com/teemow/inboxmatrix/internal/matrix"
	"github.com/teemow/inboxmatrix/internal/storage"
)

// Adapter names.
const (
	NameGmail = "gmail"
	NameLocal = "local"
)

// CurrentMessageKey is the blob key holding the selected Gmail message id.
const CurrentMessageKey = "currentMessageId"

// ErrNotInitialized is returned by adapter calls made before Initialize.
var ErrNotInitialized = errors.New("platform: adapter not initialized")

// Adapter is the host a matrix session runs on.
type Adapter interface {
	Name() string
	Initialize(ctx context.Context) error
	Ready() bool

	// CurrentItem returns the item the user is looking at, if any.
	CurrentItem(ctx context.Context) (matrix.Item, bool, error)

	SaveData(ctx context.Context, key, value string) error
	LoadData(ctx context.Context, key string) (string, bool, error)

	// Notify shows a short message to the user.
	Notify(ctx context.Context, message string) error
}

// MessageSource looks up Gmail message metadata. *gmail.Client satisfies it.
type MessageSource interface {
	GetMessage(ctx context.Context, id string) (*gmail.MessageInfo, error)
}

// Deps are the collaborators an adapter is built from.
type Deps struct {
	// Store persists blobs. Required.
	Store storage.BlobStore

	// Messages resolves the selected message. Required for gmail.
	Messages MessageSource

	// Account namespaces the selection key of the gmail adapter.
	Account string

	// Out receives local notifications, one per line. Optional.
	Out io.Writer

	Logger *slog.Logger
}

// New builds the adapter called name.
func New(name string, deps Deps) (Adapter, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case NameGmail:
		return NewGmailAdapter(deps), nil
	case NameLocal, "":
		return NewLocalAdapter(deps), nil
	default:
		return nil, fmt.Errorf("unknown platform %q, must be one of: gmail, local", name)
	}
}

// Notification is one message shown to the user.
type Notification struct {
	Time    time.Time `json:"time"`
	Message string    `json:"message"`
}

const maxNotifications = 100

// base holds what both adapters share: readiness, blob access and the
// notification log.
type base struct {
	name   string
	store  storage.BlobStore
	logger *slog.Logger
	ready  atomic.Bool

	mu            sync.Mutex
	notifications []Notification
}

func (b *base) setup(name string, deps Deps) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	b.name = name
	b.store = deps.Store
	b.logger = logging.WithComponent(logger, "platform").With(logging.Platform(name))
}

// Name implements Adapter.
func (b *base) Name() string { return b.name }

// Ready implements Adapter.
func (b *base) Ready() bool { return b.ready.Load() }

func (b *base) initialize(ctx context.Context) error {
	if b.store == nil {
		return errors.New("platform: no blob store configured")
	}
	if err := b.store.Ping(ctx); err != nil {
		return fmt.Errorf("platform: storage %s unavailable: %w", b.store.Name(), err)
	}
	b.ready.Store(true)
	b.logger.Debug("adapter initialized", logging.Backend(b.store.Name()))
	return nil
}

func (b *base) checkReady() error {
	if !b.ready.Load() {
		return ErrNotInitialized
	}
	return nil
}

// SaveData implements Adapter.
func (b *base) SaveData(ctx context.Context, key, value string) error {
	if err := b.checkReady(); err != nil {
		return err
	}
	return b.store.Set(ctx, key, value)
}

// LoadData implements Adapter.
func (b *base) LoadData(ctx context.Context, key string) (string, bool, error) {
	if err := b.checkReady(); err != nil {
		return "", false, err
	}
	return b.store.Get(ctx, key)
}

func (b *base) record(message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.notifications = append(b.notifications, Notification{Time: time.Now(), Message: message})
	if n := len(b.notifications); n > maxNotifications {
		b.notifications = append([]Notification(nil), b.notifications[n-maxNotifications:]...)
	}
}

// Notifications returns the most recent notifications, oldest first.
func (b *base) Notifications() []Notification {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Notification(nil), b.notifications...)
}
