package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/repcircle/repcircle/store"
)

func (d *DB) CreatePersonalRecord(ctx context.Context, create *store.CreatePersonalRecord) (*store.PersonalRecord, error) {
	fields := []string{"member_id", "exercise_name", "value", "unit", "rep_max", "achieved_ts", "created_ts"}
	now := time.Now().Unix()
	args := []any{create.MemberID, create.ExerciseName, create.Value, create.Unit, create.RepMax, create.AchievedTs, now}

	stmt := `INSERT INTO personal_record (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id`

	record := &store.PersonalRecord{
		MemberID:     create.MemberID,
		ExerciseName: create.ExerciseName,
		Value:        create.Value,
		Unit:         create.Unit,
		RepMax:       create.RepMax,
		AchievedTs:   create.AchievedTs,
		CreatedTs:    now,
	}
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(&record.ID); err != nil {
		return nil, fmt.Errorf("failed to create personal_record: %w", err)
	}

	return record, nil
}

func (d *DB) ListPersonalRecords(ctx context.Context, find *store.FindPersonalRecord) ([]*store.PersonalRecord, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.MemberID != nil {
		where, args = append(where, "member_id = "+placeholder(len(args)+1)), append(args, *find.MemberID)
	}

	query := `
		SELECT id, member_id, created_ts, exercise_name, value, unit, rep_max, achieved_ts
		FROM personal_record
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY achieved_ts DESC, id DESC`
	if find.Limit != nil {
		query += fmt.Sprintf(" LIMIT %d", *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list personal_records: %w", err)
	}
	defer rows.Close()

	list := make([]*store.PersonalRecord, 0)
	for rows.Next() {
		record := &store.PersonalRecord{}
		if err := rows.Scan(
			&record.ID, &record.MemberID, &record.CreatedTs,
			&record.ExerciseName, &record.Value, &record.Unit, &record.RepMax, &record.AchievedTs,
		); err != nil {
			return nil, fmt.Errorf("failed to scan personal_record: %w", err)
		}
		list = append(list, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate personal_records: %w", err)
	}

	return list, nil
}
