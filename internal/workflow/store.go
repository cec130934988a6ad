package workflow

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/google/uuid"
)

// Store persists instance journals. Append writes the events together with
// the post-apply snapshot atomically and must fail with ErrConflict when the
// first event's sequence is not the next one in the journal.
type Store interface {
	Append(ctx context.Context, snapshot *Instance, events ...Event) error
	Events(ctx context.Context, id uuid.UUID) ([]Event, error)
	Find(ctx context.Context, id uuid.UUID) (*Instance, error)
	Active(ctx context.Context) ([]uuid.UUID, error)
}

type journal struct {
	events   []Event
	snapshot Instance
}

// MemoryStore is an in-process Store.
type MemoryStore struct {
	mu       sync.RWMutex
	journals map[uuid.UUID]*journal
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{journals: make(map[uuid.UUID]*journal)}
}

func (m *MemoryStore) Append(ctx context.Context, snapshot *Instance, events ...Event) error {
	if len(events) == 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	j, ok := m.journals[snapshot.ID]
	if !ok {
		j = &journal{}
	}

	for i, ev := range events {
		if ev.Seq != len(j.events)+i+1 {
			return ErrConflict
		}
	}

	j.events = append(j.events, events...)
	j.snapshot = *snapshot
	m.journals[snapshot.ID] = j
	return nil
}

func (m *MemoryStore) Events(ctx context.Context, id uuid.UUID) ([]Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	j, ok := m.journals[id]
	if !ok {
		return nil, nil
	}
	return slices.Clone(j.events), nil
}

func (m *MemoryStore) Find(ctx context.Context, id uuid.UUID) (*Instance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	j, ok := m.journals[id]
	if !ok {
		return nil, ErrInstanceNotFound
	}
	snapshot := j.snapshot
	return &snapshot, nil
}

func (m *MemoryStore) Active(ctx context.Context) ([]uuid.UUID, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]uuid.UUID, 0)
	for _, id := range slices.SortedFunc(maps.Keys(m.journals), compareIDs) {
		if !m.journals[id].snapshot.State.Terminal() {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func compareIDs(a, b uuid.UUID) int {
	return slices.Compare(a[:], b[:])
}
