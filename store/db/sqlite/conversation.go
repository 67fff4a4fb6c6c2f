package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/repcircle/repcircle/store"
)

func (d *DB) CreateCoachConversation(ctx context.Context, create *store.CreateCoachConversation) (*store.CoachConversation, error) {
	fields := []string{"uid", "member_id", "title", "slots", "created_ts", "updated_ts"}
	now := time.Now().Unix()
	args := []any{create.UID, create.MemberID, create.Title, "{}", now, now}

	stmt := `INSERT INTO coach_conversation (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id, row_status`

	conversation := &store.CoachConversation{
		UID:       create.UID,
		MemberID:  create.MemberID,
		Title:     create.Title,
		CreatedTs: now,
		UpdatedTs: now,
	}
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(&conversation.ID, &conversation.RowStatus); err != nil {
		return nil, fmt.Errorf("failed to create coach_conversation: %w", err)
	}

	return conversation, nil
}

func (d *DB) GetCoachConversation(ctx context.Context, find *store.FindCoachConversation) (*store.CoachConversation, error) {
	list, err := d.ListCoachConversations(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

func (d *DB) ListCoachConversations(ctx context.Context, find *store.FindCoachConversation) ([]*store.CoachConversation, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.UID != nil {
		where, args = append(where, "uid = "+placeholder(len(args)+1)), append(args, *find.UID)
	}
	if find.MemberID != nil {
		where, args = append(where, "member_id = "+placeholder(len(args)+1)), append(args, *find.MemberID)
	}
	if find.RowStatus != nil {
		where, args = append(where, "row_status = "+placeholder(len(args)+1)), append(args, find.RowStatus.String())
	}

	query := `
		SELECT id, uid, member_id, created_ts, updated_ts, row_status, title, slots
		FROM coach_conversation
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY updated_ts DESC, id DESC`
	if find.Limit != nil {
		query += fmt.Sprintf(" LIMIT %d", *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list coach_conversations: %w", err)
	}
	defer rows.Close()

	list := make([]*store.CoachConversation, 0)
	for rows.Next() {
		conversation := &store.CoachConversation{}
		var slots []byte
		if err := rows.Scan(
			&conversation.ID, &conversation.UID, &conversation.MemberID,
			&conversation.CreatedTs, &conversation.UpdatedTs, &conversation.RowStatus,
			&conversation.Title, &slots,
		); err != nil {
			return nil, fmt.Errorf("failed to scan coach_conversation: %w", err)
		}
		if err := json.Unmarshal(slots, &conversation.Slots); err != nil {
			return nil, fmt.Errorf("failed to unmarshal slots: %w", err)
		}
		list = append(list, conversation)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate coach_conversations: %w", err)
	}

	return list, nil
}

func (d *DB) UpdateCoachConversation(ctx context.Context, update *store.UpdateCoachConversation) (*store.CoachConversation, error) {
	set, args := []string{}, []any{}

	if update.Title != nil {
		set, args = append(set, "title = "+placeholder(len(args)+1)), append(args, *update.Title)
	}
	if update.Slots != nil {
		slots, err := json.Marshal(update.Slots)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal slots: %w", err)
		}
		set, args = append(set, "slots = "+placeholder(len(args)+1)), append(args, string(slots))
	}
	if update.RowStatus != nil {
		set, args = append(set, "row_status = "+placeholder(len(args)+1)), append(args, update.RowStatus.String())
	}

	if len(set) == 0 {
		return nil, fmt.Errorf("no fields to update")
	}

	set, args = append(set, "updated_ts = "+placeholder(len(args)+1)), append(args, time.Now().Unix())
	args = append(args, update.ID)

	stmt := `UPDATE coach_conversation SET ` + strings.Join(set, ", ") + ` WHERE id = ` + placeholder(len(args)) + `
		RETURNING id, uid, member_id, created_ts, updated_ts, row_status, title, slots`

	conversation := &store.CoachConversation{}
	var slots []byte
	err := d.db.QueryRowContext(ctx, stmt, args...).Scan(
		&conversation.ID, &conversation.UID, &conversation.MemberID,
		&conversation.CreatedTs, &conversation.UpdatedTs, &conversation.RowStatus,
		&conversation.Title, &slots,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("coach_conversation not found")
		}
		return nil, fmt.Errorf("failed to update coach_conversation: %w", err)
	}
	if err := json.Unmarshal(slots, &conversation.Slots); err != nil {
		return nil, fmt.Errorf("failed to unmarshal slots: %w", err)
	}

	return conversation, nil
}

func (d *DB) CreateCoachTurn(ctx context.Context, create *store.CreateCoachTurn) (*store.CoachTurn, error) {
	fields := []string{"conversation_id", "role", "content", "decision", "created_ts"}
	now := time.Now().Unix()
	var decision any
	if len(create.Decision) > 0 {
		decision = string(create.Decision)
	}
	args := []any{create.ConversationID, create.Role, create.Content, decision, now}

	stmt := `INSERT INTO coach_turn (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id`

	turn := &store.CoachTurn{
		ConversationID: create.ConversationID,
		Role:           create.Role,
		Content:        create.Content,
		Decision:       create.Decision,
		CreatedTs:      now,
	}
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(&turn.ID); err != nil {
		return nil, fmt.Errorf("failed to create coach_turn: %w", err)
	}

	return turn, nil
}

// ListCoachTurns returns turns in chronological order. With a limit the
// most recent turns win: the query selects newest first and the result
// is reversed.
func (d *DB) ListCoachTurns(ctx context.Context, find *store.FindCoachTurn) ([]*store.CoachTurn, error) {
	query := `
		SELECT id, conversation_id, created_ts, role, content, decision
		FROM coach_turn
		WHERE conversation_id = ?
		ORDER BY id ASC`
	if find.Limit != nil {
		query = `
		SELECT id, conversation_id, created_ts, role, content, decision
		FROM coach_turn
		WHERE conversation_id = ?
		ORDER BY id DESC
		LIMIT ` + fmt.Sprintf("%d", *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, find.ConversationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list coach_turns: %w", err)
	}
	defer rows.Close()

	list := make([]*store.CoachTurn, 0)
	for rows.Next() {
		turn := &store.CoachTurn{}
		var decision []byte
		if err := rows.Scan(
			&turn.ID, &turn.ConversationID, &turn.CreatedTs, &turn.Role, &turn.Content, &decision,
		); err != nil {
			return nil, fmt.Errorf("failed to scan coach_turn: %w", err)
		}
		if len(decision) > 0 {
			turn.Decision = json.RawMessage(decision)
		}
		list = append(list, turn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate coach_turns: %w", err)
	}

	if find.Limit != nil {
		// Restore chronological order.
		for i, j := 0, len(list)-1; i < j; i, j = i+1, j-1 {
			list[i], list[j] = list[j], list[i]
		}
	}

	return list, nil
}
