package storage

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testBlobStore runs the behavior every backend must share.
func testBlobStore(t *testing.T, store BlobStore) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, store.Ping(ctx))

	_, found, err := store.Get(ctx, "eisenhowerMatrix")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, store.Set(ctx, "eisenhowerMatrix", `{"1":[]}`))
	value, found, err := store.Get(ctx, "eisenhowerMatrix")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, `{"1":[]}`, value)

	require.NoError(t, store.Set(ctx, "eisenhowerMatrix", `{"2":[]}`))
	value, _, err = store.Get(ctx, "eisenhowerMatrix")
	require.NoError(t, err)
	assert.Equal(t, `{"2":[]}`, value, "last writer wins")

	require.NoError(t, store.Set(ctx, "eisenhowerMatrix:work/é", "other"))
	value, found, err = store.Get(ctx, "eisenhowerMatrix:work/é")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "other", value)

	require.NoError(t, store.Set(ctx, "empty", ""))
	value, found, err = store.Get(ctx, "empty")
	require.NoError(t, err)
	assert.True(t, found, "an empty value is still present")
	assert.Equal(t, "", value)
}

func TestMemoryStore(t *testing.T) {
	store := NewMemoryStore()
	assert.Equal(t, TypeMemory, store.Name())
	testBlobStore(t, store)

	require.NoError(t, store.Close())
	_, _, err := store.Get(context.Background(), "k")
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, store.Set(context.Background(), "k", "v"), ErrClosed)
	assert.ErrorIs(t, store.Ping(context.Background()), ErrClosed)
}

func TestMemoryStore_Concurrent(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Set(ctx, "k", "v")
			_, _, _ = store.Get(ctx, "k")
		}()
	}
	wg.Wait()

	v, found, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v", v)
}

func TestFileStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "blobs")
	store, err := NewFileStore(dir)
	require.NoError(t, err)
	assert.Equal(t, TypeFile, store.Name())
	assert.Equal(t, dir, store.Dir())

	testBlobStore(t, store)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	for _, e := range entries {
		assert.NotContains(t, e.Name(), tempFilePrefix, "temp files are cleaned up")
	}

	info, err := os.Stat(filepath.Join(dir, "eisenhowerMatrix.json"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	require.NoError(t, store.Close())
	assert.ErrorIs(t, store.Set(context.Background(), "k", "v"), ErrClosed)
}

func TestFileStore_Persists(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	first, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, "eisenhowerMatrix", "saved"))
	require.NoError(t, first.Close())

	second, err := NewFileStore(dir)
	require.NoError(t, err)
	value, found, err := second.Get(ctx, "eisenhowerMatrix")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "saved", value)
}

func TestFileStore_EmptyDir(t *testing.T) {
	_, err := NewFileStore("")
	assert.Error(t, err)
}

func TestSQLiteStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db", "matrix.db")
	store, err := NewSQLiteStore(context.Background(), path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	assert.Equal(t, TypeSQLite, store.Name())
	assert.Equal(t, path, store.Path())
	testBlobStore(t, store)
}

func TestSQLiteStore_Persists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "matrix.db")
	ctx := context.Background()

	first, err := NewSQLiteStore(ctx, path)
	require.NoError(t, err)
	require.NoError(t, first.Set(ctx, "eisenhowerMatrix", "saved"))
	require.NoError(t, first.Close())

	second, err := NewSQLiteStore(ctx, path)
	require.NoError(t, err)
	defer second.Close()

	value, found, err := second.Get(ctx, "eisenhowerMatrix")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "saved", value)
}

func TestSQLiteStore_EmptyPath(t *testing.T) {
	_, err := NewSQLiteStore(context.Background(), "  ")
	assert.Error(t, err)
}

func TestValkeyClientOption(t *testing.T) {
	_, err := valkeyClientOption(ValkeyConfig{})
	assert.Error(t, err, "URL is required")

	opt, err := valkeyClientOption(ValkeyConfig{URL: "localhost:6379", Password: "secret", DB: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"localhost:6379"}, opt.InitAddress)
	assert.Equal(t, "secret", opt.Password)
	assert.Equal(t, 2, opt.SelectDB)
	assert.Nil(t, opt.TLSConfig)

	opt, err = valkeyClientOption(ValkeyConfig{URL: "localhost:6379", TLSEnabled: true})
	require.NoError(t, err)
	require.NotNil(t, opt.TLSConfig)
	assert.Nil(t, opt.TLSConfig.RootCAs)

	_, err = valkeyClientOption(ValkeyConfig{URL: "localhost:6379", TLSEnabled: true, TLSCAFile: filepath.Join(t.TempDir(), "missing.pem")})
	assert.Error(t, err)

	badCA := filepath.Join(t.TempDir(), "bad.pem")
	require.NoError(t, os.WriteFile(badCA, []byte("not a certificate"), 0o600))
	_, err = valkeyClientOption(ValkeyConfig{URL: "localhost:6379", TLSEnabled: true, TLSCAFile: badCA})
	assert.Error(t, err)
}

func TestValkeyStore_KeyPrefix(t *testing.T) {
	store := newValkeyStoreWithClient(nil, "inboxmatrix:")
	assert.Equal(t, "inboxmatrix:eisenhowerMatrix", store.key("eisenhowerMatrix"))
	assert.Equal(t, TypeValkey, store.Name())
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name     string
		cfg      Config
		wantName string
		wantErr  bool
	}{
		{name: "memory", cfg: Config{Type: "memory"}, wantName: TypeMemory},
		{name: "file", cfg: Config{Type: "file", Path: t.TempDir()}, wantName: TypeFile},
		{name: "case insensitive", cfg: Config{Type: "FILE", Path: t.TempDir()}, wantName: TypeFile},
		{name: "sqlite", cfg: Config{Type: "sqlite", Path: filepath.Join(t.TempDir(), "m.db")}, wantName: TypeSQLite},
		{name: "valkey without url", cfg: Config{Type: "valkey"}, wantErr: true},
		{name: "unknown", cfg: Config{Type: "s3"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := New(ctx, tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			defer store.Close()
			assert.Equal(t, tt.wantName, store.Name())
		})
	}
}

func TestDataDir(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg")
	assert.Equal(t, filepath.Join("/tmp/xdg", "inboxmatrix"), DataDir())
}

type recordedOp struct {
	backend, operation, status string
}

type fakeRecorder struct {
	mu  sync.Mutex
	ops []recordedOp
}

func (r *fakeRecorder) RecordStorageOperation(_ context.Context, backend, operation, status string, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, recordedOp{backend, operation, status})
}

func TestInstrumented(t *testing.T) {
	recorder := &fakeRecorder{}
	inner := NewMemoryStore()
	store := Instrumented(inner, recorder)

	testBlobStore(t, store)
	assert.Same(t, inner, store.Unwrap())
	require.NotEmpty(t, recorder.ops)
	assert.Equal(t, recordedOp{TypeMemory, "get", "success"}, recorder.ops[0])

	require.NoError(t, store.Close())
	recorder.ops = nil
	assert.Error(t, store.Set(context.Background(), "k", "v"))
	assert.Equal(t, []recordedOp{{TypeMemory, "set", "error"}}, recorder.ops)
}

func TestInstrumented_NilRecorder(t *testing.T) {
	store := Instrumented(NewMemoryStore(), nil)
	testBlobStore(t, store)
}
