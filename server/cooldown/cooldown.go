// Package cooldown gates repeated runs of guarded endpoints. The state
// is injected rather than global so the guarantee survives whatever
// deployment shape the caller runs.
package cooldown

import (
	"context"
	"sync"
	"time"

	"github.com/repcircle/repcircle/store"
)

// Store decides whether a guarded endpoint may run now.
type Store interface {
	// TryAcquire takes the slot for name when at least interval has
	// passed since the last acquisition. When denied it reports how
	// long until the slot frees up.
	TryAcquire(ctx context.Context, name string, interval time.Duration, now time.Time) (bool, time.Duration, error)
}

// memoryStore keeps cooldown state in process memory. LIMITATION: with
// more than one replica each process enforces the interval
// independently, so N replicas admit up to N runs per interval. Use
// NewDBStore when replicas share a database.
type memoryStore struct {
	mu      sync.Mutex
	lastRun map[string]time.Time
}

func NewMemoryStore() Store {
	return &memoryStore{lastRun: map[string]time.Time{}}
}

func (s *memoryStore) TryAcquire(_ context.Context, name string, interval time.Duration, now time.Time) (bool, time.Duration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if last, ok := s.lastRun[name]; ok {
		if wait := interval - now.Sub(last); wait > 0 {
			return false, wait, nil
		}
	}
	s.lastRun[name] = now
	return true, 0, nil
}

// dbStore acquires through a single conditional upsert in the shared
// database, which holds across process replicas.
type dbStore struct {
	store *store.Store
}

func NewDBStore(s *store.Store) Store {
	return &dbStore{store: s}
}

func (s *dbStore) TryAcquire(ctx context.Context, name string, interval time.Duration, now time.Time) (bool, time.Duration, error) {
	acquired, err := s.store.TryAcquireEndpointCooldown(ctx, &store.TryAcquireEndpointCooldown{
		Name:     name,
		NowTs:    now.Unix(),
		CutoffTs: now.Add(-interval).Unix(),
	})
	if err != nil {
		return false, 0, err
	}
	if acquired != nil {
		return true, 0, nil
	}

	// Denied. Read the winning run to compute the wait.
	current, err := s.store.GetEndpointCooldown(ctx, name)
	if err != nil || current == nil {
		return false, interval, err
	}
	wait := time.Unix(current.LastRunTs, 0).Add(interval).Sub(now)
	if wait < 0 {
		wait = 0
	}
	return false, wait, nil
}
