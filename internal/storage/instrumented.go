package storage

import (
	"context"
	"time"

	"github.com/teemow/inboxmatrix/internal/instrumentation"
)

// Recorder receives one observation per storage operation.
// *instrumentation.Metrics satisfies it.
type Recorder interface {
	RecordStorageOperation(ctx context.Context, backend, operation, status string, duration time.Duration)
}

// InstrumentedStore wraps a BlobStore with metrics and trace spans.
type InstrumentedStore struct {
	BlobStore
	recorder Recorder
}

// Instrumented wraps store. A nil recorder still produces spans.
func Instrumented(store BlobStore, recorder Recorder) *InstrumentedStore {
	return &InstrumentedStore{BlobStore: store, recorder: recorder}
}

// Unwrap returns the wrapped store.
func (s *InstrumentedStore) Unwrap() BlobStore {
	return s.BlobStore
}

func (s *InstrumentedStore) observe(ctx context.Context, operation string, start time.Time, err error) {
	if s.recorder == nil {
		return
	}
	status := instrumentation.StatusSuccess
	if err != nil {
		status = instrumentation.StatusError
	}
	s.recorder.RecordStorageOperation(ctx, s.Name(), operation, status, time.Since(start))
}

// Get implements BlobStore.
func (s *InstrumentedStore) Get(ctx context.Context, key string) (string, bool, error) {
	ctx, span := instrumentation.StartStorageSpan(ctx, s.Name(), instrumentation.OperationGet, key)
	defer span.End()

	start := time.Now()
	value, found, err := s.BlobStore.Get(ctx, key)
	s.observe(ctx, instrumentation.OperationGet, start, err)
	instrumentation.SetSpanError(span, err)
	return value, found, err
}

// Set implements BlobStore.
func (s *InstrumentedStore) Set(ctx context.Context, key, value string) error {
	ctx, span := instrumentation.StartStorageSpan(ctx, s.Name(), instrumentation.OperationSet, key)
	defer span.End()

	start := time.Now()
	err := s.BlobStore.Set(ctx, key, value)
	s.observe(ctx, instrumentation.OperationSet, start, err)
	instrumentation.SetSpanError(span, err)
	return err
}
