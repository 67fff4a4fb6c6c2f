// Package memory persists durable coaching facts about a member and
// recalls the ones most relevant to the current turn.
package memory

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/oklog/ulid/v2"

	"github.com/repcircle/repcircle/ai/core/embedding"
	"github.com/repcircle/repcircle/ai/guardrail"
	"github.com/repcircle/repcircle/store"
)

// defaultRecallLimit bounds how many notes a single recall returns.
const defaultRecallLimit = 5

// Store is the persistence capability the memory service needs.
type Store interface {
	CreateMemoryNote(ctx context.Context, create *store.CreateMemoryNote) (*store.MemoryNote, error)
	ListMemoryNotes(ctx context.Context, find *store.FindMemoryNote) ([]*store.MemoryNote, error)
	UpsertMemoryNoteEmbedding(ctx context.Context, upsert *store.UpsertMemoryNoteEmbedding) error
	SearchMemoryNotes(ctx context.Context, search *store.SearchMemoryNotes) ([]*store.MemoryNoteSearchResult, error)
}

// RejectionError reports that content failed the guardrail and was not
// stored. Reason carries the guardrail's rejection code.
type RejectionError struct {
	Reason string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("memory content rejected: %s", e.Reason)
}

// Service writes and reads member memory notes. The embedder is
// optional; without it notes are stored and recalled by recency only.
type Service struct {
	store    Store
	embedder embedding.Service
}

func NewService(store Store, embedder embedding.Service) *Service {
	return &Service{store: store, embedder: embedder}
}

// Remember validates content through the guardrail and persists the
// sanitized form as a note. A guardrail rejection surfaces as
// *RejectionError. Embedding the note is best effort: a failure is
// logged and the note stays recallable by recency.
func (s *Service) Remember(ctx context.Context, memberID int32, content string, category store.MemoryNoteCategory) (*store.MemoryNote, error) {
	result := guardrail.Validate(content)
	if !result.Safe {
		return nil, &RejectionError{Reason: result.Reason}
	}

	note, err := s.store.CreateMemoryNote(ctx, &store.CreateMemoryNote{
		UID:      ulid.Make().String(),
		Content:  result.Sanitized,
		Category: normalizeCategory(category),
		MemberID: memberID,
	})
	if err != nil {
		return nil, fmt.Errorf("create memory note: %w", err)
	}

	s.embedNote(ctx, note)
	return note, nil
}

func (s *Service) embedNote(ctx context.Context, note *store.MemoryNote) {
	if s.embedder == nil {
		return
	}

	vector, err := s.embedder.Embed(ctx, note.Content)
	if err != nil {
		slog.Warn("memory note embedding failed", "noteID", note.ID, "error", err)
		return
	}
	err = s.store.UpsertMemoryNoteEmbedding(ctx, &store.UpsertMemoryNoteEmbedding{
		Model:     s.embedder.Model(),
		Embedding: vector,
		NoteID:    note.ID,
	})
	if err != nil {
		slog.Warn("memory note embedding upsert failed", "noteID", note.ID, "error", err)
	}
}

// Recall returns up to limit notes for the member, most relevant
// first. With an embedder it searches by vector similarity and falls
// back to recency when the search fails or matches nothing.
func (s *Service) Recall(ctx context.Context, memberID int32, query string, limit int) ([]*store.MemoryNote, error) {
	if limit <= 0 {
		limit = defaultRecallLimit
	}

	if notes := s.recallBySimilarity(ctx, memberID, query, limit); len(notes) > 0 {
		return notes, nil
	}

	notes, err := s.store.ListMemoryNotes(ctx, &store.FindMemoryNote{MemberID: &memberID, Limit: &limit})
	if err != nil {
		return nil, fmt.Errorf("list memory notes: %w", err)
	}
	return notes, nil
}

func (s *Service) recallBySimilarity(ctx context.Context, memberID int32, query string, limit int) []*store.MemoryNote {
	if s.embedder == nil || query == "" {
		return nil
	}

	vector, err := s.embedder.Embed(ctx, query)
	if err != nil {
		slog.Warn("memory recall embedding failed", "memberID", memberID, "error", err)
		return nil
	}
	results, err := s.store.SearchMemoryNotes(ctx, &store.SearchMemoryNotes{
		Embedding: vector,
		MemberID:  memberID,
		Limit:     limit,
	})
	if err != nil {
		slog.Warn("memory similarity search failed", "memberID", memberID, "error", err)
		return nil
	}

	notes := make([]*store.MemoryNote, 0, len(results))
	for _, result := range results {
		notes = append(notes, result.Note)
	}
	return notes
}

func normalizeCategory(category store.MemoryNoteCategory) store.MemoryNoteCategory {
	switch category {
	case store.MemoryCategoryPreference, store.MemoryCategoryFact, store.MemoryCategoryConstraint:
		return category
	default:
		return store.MemoryCategoryFact
	}
}
