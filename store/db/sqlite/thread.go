package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/repcircle/repcircle/store"
)

func (d *DB) GetConversationThread(ctx context.Context, conversationID int32) (*store.ConversationThread, error) {
	query := `
		SELECT conversation_id, provider_conversation_id, last_response_id, updated_ts
		FROM conversation_thread
		WHERE conversation_id = ?`

	thread := &store.ConversationThread{}
	err := d.db.QueryRowContext(ctx, query, conversationID).Scan(
		&thread.ConversationID, &thread.ProviderConversationID, &thread.LastResponseID, &thread.UpdatedTs,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get conversation_thread: %w", err)
	}

	return thread, nil
}

// UpsertConversationThread keeps existing identifiers when the upsert
// carries nil for them, so updating the last response id never clears
// the provider conversation id and vice versa.
func (d *DB) UpsertConversationThread(ctx context.Context, upsert *store.UpsertConversationThread) (*store.ConversationThread, error) {
	stmt := `
		INSERT INTO conversation_thread (conversation_id, provider_conversation_id, last_response_id, updated_ts)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (conversation_id) DO UPDATE SET
			provider_conversation_id = COALESCE(excluded.provider_conversation_id, provider_conversation_id),
			last_response_id = COALESCE(excluded.last_response_id, last_response_id),
			updated_ts = excluded.updated_ts
		RETURNING conversation_id, provider_conversation_id, last_response_id, updated_ts`

	thread := &store.ConversationThread{}
	err := d.db.QueryRowContext(ctx, stmt,
		upsert.ConversationID, upsert.ProviderConversationID, upsert.LastResponseID, time.Now().Unix(),
	).Scan(
		&thread.ConversationID, &thread.ProviderConversationID, &thread.LastResponseID, &thread.UpdatedTs,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert conversation_thread: %w", err)
	}

	return thread, nil
}
