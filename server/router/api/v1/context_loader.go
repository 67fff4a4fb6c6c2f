package v1

import (
	"context"
	"log/slog"

	"github.com/repcircle/repcircle/store"
)

// contextLoader hands one consistent view of the member's data to
// every stage of a coaching turn, fetching each input at most once.
// Loads are soft: a failure is logged and the zero value returned, so
// the turn proceeds with degraded context instead of failing. Failed
// loads are memoized too; a turn never retries a fetch.
type contextLoader struct {
	service        *APIV1Service
	memberID       int32
	conversationID int32

	snapshotLoaded bool
	snapshot       *store.MemberContextSnapshot

	turnsLoaded bool
	turns       []*store.CoachTurn

	memoriesLoaded bool
	memories       []*store.MemoryNote
}

func (s *APIV1Service) newContextLoader(memberID, conversationID int32) *contextLoader {
	return &contextLoader{
		service:        s,
		memberID:       memberID,
		conversationID: conversationID,
	}
}

func (l *contextLoader) Snapshot(ctx context.Context) *store.MemberContextSnapshot {
	if l.snapshotLoaded {
		return l.snapshot
	}
	l.snapshotLoaded = true

	snapshot, state, err := l.service.Snapshots.Get(ctx, l.memberID)
	if err != nil {
		slog.Warn("coach turn proceeding without snapshot", "memberID", l.memberID, "error", err)
		return nil
	}
	l.service.Exporter.RecordSnapshotRead(string(state))
	l.snapshot = snapshot
	return l.snapshot
}

// Turns returns the full turn history: the decision prompt windows it
// down, but clarification counting spans the whole conversation.
func (l *contextLoader) Turns(ctx context.Context) []*store.CoachTurn {
	if l.turnsLoaded {
		return l.turns
	}
	l.turnsLoaded = true

	turns, err := l.service.Store.ListCoachTurns(ctx, &store.FindCoachTurn{ConversationID: l.conversationID})
	if err != nil {
		slog.Warn("coach turn proceeding without history", "conversationID", l.conversationID, "error", err)
		return nil
	}
	l.turns = turns
	return l.turns
}

func (l *contextLoader) Memories(ctx context.Context, query string) []*store.MemoryNote {
	if l.memoriesLoaded {
		return l.memories
	}
	l.memoriesLoaded = true

	if l.service.Memories == nil {
		return nil
	}
	notes, err := l.service.Memories.Recall(ctx, l.memberID, query, 0)
	if err != nil {
		slog.Warn("coach turn proceeding without memories", "memberID", l.memberID, "error", err)
		return nil
	}
	l.memories = notes
	return l.memories
}
