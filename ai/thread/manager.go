package thread

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/repcircle/repcircle/store"
)

// Store is the persistence the manager needs: one thread-state row per
// local conversation with partial-upsert semantics.
type Store interface {
	GetConversationThread(ctx context.Context, conversationID int32) (*store.ConversationThread, error)
	UpsertConversationThread(ctx context.Context, upsert *store.UpsertConversationThread) (*store.ConversationThread, error)
}

// Manager owns the mapping between local conversations and provider
// thread state. Threading is a soft dependency: every method returns
// errors for the caller to log and shrug off, never to fail a turn on.
type Manager struct {
	store    Store
	provider Provider
}

// NewManager creates a thread Manager.
func NewManager(store Store, provider Provider) *Manager {
	return &Manager{store: store, provider: provider}
}

// State returns the persisted thread mapping, nil when none exists yet.
func (m *Manager) State(ctx context.Context, conversationID int32) (*store.ConversationThread, error) {
	return m.store.GetConversationThread(ctx, conversationID)
}

// GetOrCreate returns the provider-side conversation id for a local
// conversation, creating and persisting one on first use.
func (m *Manager) GetOrCreate(ctx context.Context, conversationID int32) (string, error) {
	state, err := m.store.GetConversationThread(ctx, conversationID)
	if err != nil {
		return "", fmt.Errorf("failed to read thread state: %w", err)
	}
	if state != nil && state.ProviderConversationID != nil && *state.ProviderConversationID != "" {
		return *state.ProviderConversationID, nil
	}

	externalID, err := m.provider.CreateConversation(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to create provider conversation: %w", err)
	}

	if _, err := m.store.UpsertConversationThread(ctx, &store.UpsertConversationThread{
		ConversationID:         conversationID,
		ProviderConversationID: &externalID,
	}); err != nil {
		// The provider-side conversation exists but the mapping is
		// lost; the next turn creates a fresh one.
		return "", fmt.Errorf("failed to persist thread state: %w", err)
	}

	return externalID, nil
}

// UpdateLastResponse persists the response id that chains the next turn.
func (m *Manager) UpdateLastResponse(ctx context.Context, conversationID int32, responseID string) error {
	_, err := m.store.UpsertConversationThread(ctx, &store.UpsertConversationThread{
		ConversationID: conversationID,
		LastResponseID: &responseID,
	})
	if err != nil {
		return fmt.Errorf("failed to persist last response id: %w", err)
	}
	return nil
}

// Respond generates the next turn's text through the provider, chained
// on whatever thread state exists, and persists the new anchors. On any
// error the caller falls back to unthreaded generation.
func (m *Manager) Respond(ctx context.Context, conversationID int32, instructions, input string) (string, error) {
	req := &ResponseRequest{Instructions: instructions, Input: input}

	state, err := m.store.GetConversationThread(ctx, conversationID)
	if err != nil {
		// Reading local state failed; still worth trying the provider
		// with a fresh conversation.
		slog.Warn("thread state read failed, starting unanchored", "conversation_id", conversationID, "error", err)
		state = nil
	}

	if state != nil && state.LastResponseID != nil && *state.LastResponseID != "" {
		req.PreviousResponseID = *state.LastResponseID
	} else {
		externalID, err := m.GetOrCreate(ctx, conversationID)
		if err != nil {
			return "", err
		}
		req.ConversationID = externalID
	}

	resp, err := m.provider.CreateResponse(ctx, req)
	if err != nil {
		return "", fmt.Errorf("failed to create provider response: %w", err)
	}

	if err := m.UpdateLastResponse(ctx, conversationID, resp.ID); err != nil {
		// The turn succeeded; only the chain anchor is lost.
		slog.Warn("failed to persist response id", "conversation_id", conversationID, "error", err)
	}

	return resp.Text, nil
}
