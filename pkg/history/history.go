// Package history persists fetched snapshots so the dashboard can show
// data from before its last restart.
package history

import (
	"context"
	"sync"
	"time"

	"github.com/strongaya/fdm-portal/pkg/descriptives"
)

// Store keeps the fetch history.
type Store interface {
	// Put records a snapshot fetched at the given time.
	//
	// Recording the same fetch time twice is not an error;
	// the first snapshot wins.
	Put(ctx context.Context, at time.Time, s descriptives.Snapshot) error

	// Slice reads the whole history.
	Slice(ctx context.Context) (descriptives.History, error)

	// Latest reads the most recent snapshot.
	// ok is false when the history is empty.
	Latest(ctx context.Context) (at string, s descriptives.Snapshot, ok bool, err error)

	// Close releases the store's resources.
	Close()
}

// InMemory is the default Store: history lives and dies with the process.
func InMemory() Store {
	return &inMemory{history: descriptives.History{}}
}

type inMemory struct {
	mu      sync.RWMutex
	history descriptives.History
}

func (m *inMemory) Put(_ context.Context, at time.Time, s descriptives.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := at.Format(time.RFC3339)
	if _, ok := m.history[key]; ok {
		return nil
	}
	m.history[key] = s
	return nil
}

func (m *inMemory) Slice(_ context.Context) (descriptives.History, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	copied := descriptives.History{}
	for at, s := range m.history {
		copied[at] = s
	}
	return copied, nil
}

func (m *inMemory) Latest(_ context.Context) (string, descriptives.Snapshot, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	at, s, ok := m.history.Latest()
	return at, s, ok, nil
}

func (m *inMemory) Close() {}
