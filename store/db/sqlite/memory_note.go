package sqlite

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

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
	result, err := d.db.ExecContext(ctx, `DELETE FROM memory_note WHERE id = ?`, delete.ID)
	if err != nil {
		return fmt.Errorf("failed to delete memory_note: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("memory_note not found")
	}

	return nil
}

// Embeddings are stored as BLOBs of little-endian float32 values.
// Similarity is computed in the application layer; SQLite has no vector
// index.

func float32ArrayToBLOB(vec []float32) []byte {
	buf := make([]byte, len(vec)*4)
	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*4:i*4+4], math.Float32bits(v))
	}
	return buf
}

func blobToFloat32Array(blob []byte) ([]float32, error) {
	if len(blob)%4 != 0 {
		return nil, fmt.Errorf("invalid embedding BLOB length: %d", len(blob))
	}

	vec := make([]float32, len(blob)/4)
	for i := range vec {
		bits := binary.LittleEndian.Uint32(blob[i*4 : i*4+4])
		vec[i] = math.Float32frombits(bits)
	}
	return vec, nil
}

func cosineSimilarity(a, b []float32) float32 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct float32
	var normA float32
	var normB float32

	for i := 0; i < len(a); i++ {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (float32(math.Sqrt(float64(normA))) * float32(math.Sqrt(float64(normB))))
}

func (d *DB) UpsertMemoryNoteEmbedding(ctx context.Context, upsert *store.UpsertMemoryNoteEmbedding) error {
	stmt := `
		INSERT INTO memory_note_embedding (note_id, model, embedding, updated_ts)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (note_id, model) DO UPDATE SET
			embedding = excluded.embedding,
			updated_ts = excluded.updated_ts`

	if _, err := d.db.ExecContext(ctx, stmt,
		upsert.NoteID, upsert.Model, float32ArrayToBLOB(upsert.Embedding), time.Now().Unix(),
	); err != nil {
		return fmt.Errorf("failed to upsert memory_note_embedding: %w", err)
	}

	return nil
}

// SearchMemoryNotes loads a recency-capped candidate set and ranks it by
// cosine similarity in Go. O(n), acceptable for the per-member note
// volumes SQLite deployments see.
func (d *DB) SearchMemoryNotes(ctx context.Context, search *store.SearchMemoryNotes) ([]*store.MemoryNoteSearchResult, error) {
	limit := search.Limit
	if limit <= 0 {
		limit = 10
	}

	candidateLimit := limit * 5
	if candidateLimit > 500 {
		candidateLimit = 500
	}

	query := `
		SELECT n.id, n.uid, n.member_id, n.created_ts, n.row_status, n.content, n.category, e.embedding
		FROM memory_note_embedding e
		JOIN memory_note n ON n.id = e.note_id
		WHERE n.member_id = ? AND n.row_status = 'NORMAL'
		ORDER BY n.created_ts DESC
		LIMIT ?`

	rows, err := d.db.QueryContext(ctx, query, search.MemberID, candidateLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to search memory_notes: %w", err)
	}
	defer rows.Close()

	results := make([]*store.MemoryNoteSearchResult, 0)
	for rows.Next() {
		note := &store.MemoryNote{}
		var blob []byte
		if err := rows.Scan(
			&note.ID, &note.UID, &note.MemberID, &note.CreatedTs, &note.RowStatus,
			&note.Content, &note.Category, &blob,
		); err != nil {
			return nil, fmt.Errorf("failed to scan memory_note search candidate: %w", err)
		}

		embedding, err := blobToFloat32Array(blob)
		if err != nil {
			return nil, fmt.Errorf("failed to decode memory_note embedding: %w", err)
		}

		results = append(results, &store.MemoryNoteSearchResult{
			Note:  note,
			Score: float64(cosineSimilarity(search.Embedding, embedding)),
		})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate memory_note search candidates: %w", err)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > limit {
		results = results[:limit]
	}

	return results, nil
}
