package repo

import (
	"context"
	"sync"
	"time"

	"github.com/tbourn/go-form-collector/internal/domain"
)

// MemoryStore keeps submissions in a process-local slice. Contents live for
// the lifetime of the process only.
type MemoryStore struct {
	mu    sync.RWMutex
	items []domain.Submission
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Append adds a copy of s to the end of the slice.
func (m *MemoryStore) Append(ctx context.Context, s *domain.Submission) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	m.items = append(m.items, *s)
	m.mu.Unlock()
	return nil
}

// List returns a copy of all records in insertion order.
func (m *MemoryStore) List(ctx context.Context) ([]domain.Submission, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.RLock()
	out := make([]domain.Submission, len(m.items))
	copy(out, m.items)
	m.mu.RUnlock()
	return out, nil
}

// Stats reports the record count and the greatest Time seen.
func (m *MemoryStore) Stats(ctx context.Context) (int64, *time.Time, error) {
	if err := ctx.Err(); err != nil {
		return 0, nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.items) == 0 {
		return 0, nil, nil
	}
	latest := m.items[0].Time
	for _, it := range m.items[1:] {
		if it.Time.After(latest) {
			latest = it.Time
		}
	}
	return int64(len(m.items)), &latest, nil
}
