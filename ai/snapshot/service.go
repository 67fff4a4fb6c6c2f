package snapshot

import (
	"context"
	"log/slog"
	"time"

	"github.com/repcircle/repcircle/store"
)

// State classifies a snapshot read for the caller and for metrics.
type State string

const (
	// StateFresh means the row exists and is within the staleness window.
	StateFresh State = "fresh"
	// StateStale means the row exists but is older than the window. A
	// stale snapshot is still usable; staleness only signals that a
	// recompute is due.
	StateStale State = "stale"
	// StateAbsent means no row existed and the snapshot was computed
	// live from the source tables.
	StateAbsent State = "absent"
)

// DefaultStaleAfter is the staleness window applied when none is
// configured. Tuned, not derived; override via configuration.
const DefaultStaleAfter = 30 * time.Minute

// Service reads member snapshots with a freshness check. An absent
// snapshot is not an error: the service falls back to a live build,
// persists it, and serves the result.
type Service struct {
	store      Store
	builder    *Builder
	staleAfter time.Duration
}

func NewService(store Store, staleAfter time.Duration) *Service {
	if staleAfter <= 0 {
		staleAfter = DefaultStaleAfter
	}
	return &Service{
		store:      store,
		builder:    NewBuilder(store),
		staleAfter: staleAfter,
	}
}

// Get returns the member's snapshot and how it was obtained. Stale
// rows are returned as-is so a request never blocks on a recompute;
// the caller decides whether to trigger one.
func (s *Service) Get(ctx context.Context, memberID int32) (*store.MemberContextSnapshot, State, error) {
	snapshot, err := s.store.GetMemberContextSnapshot(ctx, &store.FindMemberContextSnapshot{MemberID: memberID})
	if err != nil {
		return nil, "", err
	}
	if snapshot == nil {
		slog.Info("snapshot absent, building live", "memberID", memberID)
		built, err := s.builder.Rebuild(ctx, memberID)
		if err != nil {
			return nil, StateAbsent, err
		}
		return built, StateAbsent, nil
	}

	if time.Since(time.Unix(snapshot.UpdatedTs, 0)) > s.staleAfter {
		return snapshot, StateStale, nil
	}
	return snapshot, StateFresh, nil
}

// Rebuild recomputes and persists the member's snapshot immediately.
// Mutation handlers call this after workout or goal writes.
func (s *Service) Rebuild(ctx context.Context, memberID int32) (*store.MemberContextSnapshot, error) {
	return s.builder.Rebuild(ctx, memberID)
}
