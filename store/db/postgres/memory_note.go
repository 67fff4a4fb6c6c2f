package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/pgvector/pgvector-go"

	"github.com/repcircle/repcircle/store"
)

func (d *DB) CreateMemoryNote(ctx context.Context, create *store.CreateMemoryNote) (*store.MemoryNote, error) {
	fields := []string{"uid", "member_id", "content", "category", "created_ts"}
	now := time.Now().Unix()
	args := []any{create.UID, create.MemberID, create.Content, create.Category, now}

	stmt := `INSERT INTO memory_note (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id, row_status`

	note := &store.MemoryNote{
		UID:       create.UID,
		MemberID:  create.MemberID,
		Content:   create.Content,
		Category:  create.Category,
		CreatedTs: now,
	}
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(&note.ID, &note.RowStatus); err != nil {
		return nil, fmt.Errorf("failed to create memory_note: %w", err)
	}

	return note, nil
}

func (d *DB) ListMemoryNotes(ctx context.Context, find *store.FindMemoryNote) ([]*store.MemoryNote, error) {
	where, args := []string{"row_status = 'NORMAL'"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.UID != nil {
		where, args = append(where, "uid = "+placeholder(len(args)+1)), append(args, *find.UID)
	}
	if find.MemberID != nil {
		where, args = append(where, "member_id = "+placeholder(len(args)+1)), append(args, *find.MemberID)
	}

	query := `
		SELECT id, uid, member_id, created_ts, row_status, content, category
		FROM memory_note
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts DESC, id DESC`
	if find.Limit != nil {
		query += fmt.Sprintf(" LIMIT %d", *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list memory_notes: %w", err)
	}
	defer rows.Close()

	list := make([]*store.MemoryNote, 0)
	for rows.Next() {
		note := &store.MemoryNote{}
		if err := rows.Scan(
			&note.ID, &note.UID, &note.MemberID, &note.CreatedTs, &note.RowStatus,
			&note.Content, &note.Category,
		); err != nil {
			return nil, fmt.Errorf("failed to scan memory_note: %w", err)
		}
		list = append(list, note)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate memory_notes: %w", err)
	}

	return list, nil
}

func (d *DB) DeleteMemoryNote(ctx context.Context, delete *store.DeleteMemoryNote) error {
	result, err := d.db.ExecContext(ctx, `DELETE FROM memory_note WHERE id = $1`, delete.ID)
	if err != nil {
		return fmt.Errorf("failed to delete memory_note: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("memory_note not found")
	}

	return nil
}

func (d *DB) UpsertMemoryNoteEmbedding(ctx context.Context, upsert *store.UpsertMemoryNoteEmbedding) error {
	stmt := `
		INSERT INTO memory_note_embedding (note_id, model, embedding, updated_ts)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (note_id, model) DO UPDATE SET
			embedding = EXCLUDED.embedding,
			updated_ts = EXCLUDED.updated_ts`

	if _, err := d.db.ExecContext(ctx, stmt,
		upsert.NoteID, upsert.Model, pgvector.NewVector(upsert.Embedding), time.Now().Unix(),
	); err != nil {
		return fmt.Errorf("failed to upsert memory_note_embedding: %w", err)
	}

	return nil
}

// SearchMemoryNotes ranks a member's notes by cosine similarity.
func (d *DB) SearchMemoryNotes(ctx context.Context, search *store.SearchMemoryNotes) ([]*store.MemoryNoteSearchResult, error) {
	query := `
		SELECT n.id, n.uid, n.member_id, n.created_ts, n.row_status, n.content, n.category,
			1 - (e.embedding <=> $1) AS score
		FROM memory_note_embedding e
		JOIN memory_note n ON n.id = e.note_id
		WHERE n.member_id = $2 AND n.row_status = 'NORMAL'
		ORDER BY e.embedding <=> $3
		LIMIT $4`

	vector := pgvector.NewVector(search.Embedding)
	rows, err := d.db.QueryContext(ctx, query, vector, search.MemberID, vector, search.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search memory_notes: %w", err)
	}
	defer rows.Close()

	results := make([]*store.MemoryNoteSearchResult, 0)
	for rows.Next() {
		note := &store.MemoryNote{}
		result := &store.MemoryNoteSearchResult{Note: note}
		if err := rows.Scan(
			&note.ID, &note.UID, &note.MemberID, &note.CreatedTs, &note.RowStatus,
			&note.Content, &note.Category, &result.Score,
		); err != nil {
			return nil, fmt.Errorf("failed to scan memory_note search result: %w", err)
		}
		results = append(results, result)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate memory_note search results: %w", err)
	}

	return results, nil
}
