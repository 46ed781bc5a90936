package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/FranksOps/serpwords/internal/storage"
)

// ensure memoryRecorder implements storage.Recorder
var _ storage.Recorder = (*memoryRecorder)(nil)

var errClosed = errors.New("memory: recorder closed")

type memoryRecorder struct {
	mu      sync.Mutex
	records []*storage.FetchRecord
	closed  bool
}

// New creates an in-memory storage.Recorder. It is safe for concurrent use.
func New() storage.Recorder {
	return &memoryRecorder{}
}

func (m *memoryRecorder) Save(ctx context.Context, rec *storage.FetchRecord) error {
	if rec == nil {
		return errors.New("memory: nil record")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return errClosed
	}
	m.records = append(m.records, rec)
	return nil
}

// Query returns matching records in the order they were saved.
func (m *memoryRecorder) Query(ctx context.Context, filter storage.Filter) ([]*storage.FetchRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, errClosed
	}

	out := make([]*storage.FetchRecord, 0, len(m.records))
	for _, r := range m.records {
		if filter.Kind != "" && r.Kind != filter.Kind {
			continue
		}
		if filter.DetectedBot != nil && r.DetectedBot != *filter.DetectedBot {
			continue
		}
		if filter.Failed != nil && r.OK() == *filter.Failed {
			continue
		}
		out = append(out, r)
		if filter.Limit > 0 && len(out) >= filter.Limit {
			break
		}
	}
	return out, nil
}

func (m *memoryRecorder) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	m.records = nil
	return nil
}
