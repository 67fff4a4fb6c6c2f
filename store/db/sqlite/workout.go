package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/repcircle/repcircle/store"
)

func (d *DB) CreateWorkoutSession(ctx context.Context, create *store.CreateWorkoutSession) (*store.WorkoutSession, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().Unix()
	durationMin := int32(0)
	if create.EndedTs != nil && *create.EndedTs > create.StartedTs {
		durationMin = int32((*create.EndedTs - create.StartedTs) / 60)
	}

	fields := []string{"member_id", "title", "notes", "started_ts", "ended_ts", "duration_min", "created_ts"}
	args := []any{create.MemberID, create.Title, create.Notes, create.StartedTs, create.EndedTs, durationMin, now}

	stmt := `INSERT INTO workout_session (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id, row_status`

	session := &store.WorkoutSession{
		MemberID:    create.MemberID,
		Title:       create.Title,
		Notes:       create.Notes,
		StartedTs:   create.StartedTs,
		EndedTs:     create.EndedTs,
		DurationMin: durationMin,
		CreatedTs:   now,
	}
	if err := tx.QueryRowContext(ctx, stmt, args...).Scan(&session.ID, &session.RowStatus); err != nil {
		return nil, fmt.Errorf("failed to create workout_session: %w", err)
	}

	for i, input := range create.Exercises {
		stmt := `INSERT INTO session_exercise (session_id, exercise_id, sets, reps, weight_kg, order_index)
			VALUES (` + placeholders(6) + `)`
		if _, err := tx.ExecContext(ctx, stmt, session.ID, input.ExerciseID, input.Sets, input.Reps, input.WeightKg, i); err != nil {
			return nil, fmt.Errorf("failed to create session_exercise: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit workout_session: %w", err)
	}

	return session, nil
}

func (d *DB) CompleteWorkoutSession(ctx context.Context, complete *store.CompleteWorkoutSession) (*store.WorkoutSession, error) {
	stmt := `
		UPDATE workout_session
		SET ended_ts = ?, duration_min = (? - started_ts) / 60
		WHERE id = ? AND ended_ts IS NULL
		RETURNING id, member_id, created_ts, row_status, title, notes, started_ts, ended_ts, duration_min`

	session := &store.WorkoutSession{}
	err := d.db.QueryRowContext(ctx, stmt, complete.EndedTs, complete.EndedTs, complete.ID).Scan(
		&session.ID, &session.MemberID, &session.CreatedTs, &session.RowStatus,
		&session.Title, &session.Notes, &session.StartedTs, &session.EndedTs, &session.DurationMin,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("workout_session not found or already completed")
		}
		return nil, fmt.Errorf("failed to complete workout_session: %w", err)
	}

	return session, nil
}

func (d *DB) ListWorkoutSessions(ctx context.Context, find *store.FindWorkoutSession) ([]*store.WorkoutSession, error) {
	where, args := []string{"row_status = 'NORMAL'"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.MemberID != nil {
		where, args = append(where, "member_id = "+placeholder(len(args)+1)), append(args, *find.MemberID)
	}
	if find.CompletedOnly {
		where = append(where, "ended_ts IS NOT NULL")
	}
	if find.CompletedAfter != nil {
		where, args = append(where, "ended_ts >= "+placeholder(len(args)+1)), append(args, *find.CompletedAfter)
	}

	query := `
		SELECT id, member_id, created_ts, row_status, title, notes, started_ts, ended_ts, duration_min
		FROM workout_session
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY COALESCE(ended_ts, started_ts) DESC, id DESC`
	if find.Limit != nil {
		query += fmt.Sprintf(" LIMIT %d", *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list workout_sessions: %w", err)
	}
	defer rows.Close()

	list := make([]*store.WorkoutSession, 0)
	for rows.Next() {
		session := &store.WorkoutSession{}
		if err := rows.Scan(
			&session.ID, &session.MemberID, &session.CreatedTs, &session.RowStatus,
			&session.Title, &session.Notes, &session.StartedTs, &session.EndedTs, &session.DurationMin,
		); err != nil {
			return nil, fmt.Errorf("failed to scan workout_session: %w", err)
		}
		list = append(list, session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate workout_sessions: %w", err)
	}

	return list, nil
}

func (d *DB) ListSessionExercises(ctx context.Context, find *store.FindSessionExercise) ([]*store.SessionExercise, error) {
	if len(find.SessionIDs) == 0 {
		return []*store.SessionExercise{}, nil
	}

	args := make([]any, 0, len(find.SessionIDs))
	for _, id := range find.SessionIDs {
		args = append(args, id)
	}

	query := `
		SELECT se.id, se.session_id, se.exercise_id, se.sets, se.reps, se.weight_kg, se.order_index, e.name, e.muscle_groups
		FROM session_exercise se
		JOIN exercise e ON e.id = se.exercise_id
		WHERE se.session_id IN (` + placeholders(len(args)) + `)
		ORDER BY se.session_id, se.order_index, se.id`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list session_exercises: %w", err)
	}
	defer rows.Close()

	list := make([]*store.SessionExercise, 0)
	for rows.Next() {
		se := &store.SessionExercise{}
		var muscleGroups string
		if err := rows.Scan(
			&se.ID, &se.SessionID, &se.ExerciseID, &se.Sets, &se.Reps, &se.WeightKg, &se.OrderIndex,
			&se.ExerciseName, &muscleGroups,
		); err != nil {
			return nil, fmt.Errorf("failed to scan session_exercise: %w", err)
		}
		if err := unmarshalStringList(muscleGroups, &se.MuscleGroups); err != nil {
			return nil, err
		}
		list = append(list, se)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate session_exercises: %w", err)
	}

	return list, nil
}

func (d *DB) GetWorkoutStats(ctx context.Context, find *store.FindWorkoutStats) (*store.WorkoutStats, error) {
	query := `
		SELECT COUNT(*), COALESCE(AVG(duration_min), 0), MAX(ended_ts)
		FROM workout_session
		WHERE member_id = ? AND row_status = 'NORMAL' AND ended_ts IS NOT NULL AND ended_ts >= ?`

	stats := &store.WorkoutStats{}
	if err := d.db.QueryRowContext(ctx, query, find.MemberID, find.SinceTs).Scan(
		&stats.CompletedCount, &stats.AvgDurationMin, &stats.LastCompletedTs,
	); err != nil {
		return nil, fmt.Errorf("failed to get workout stats: %w", err)
	}

	return stats, nil
}
