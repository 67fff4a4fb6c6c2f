package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/repcircle/repcircle/store"
)

const snapshotFieldList = `member_id, updated_ts, version, fitness_level, training_age_years, weight_kg, body_fat_pct,
	limitations, goals, personal_records, skills, muscle_recovery,
	weekly_workout_avg, avg_workout_duration_min, deload_recommended, last_workout_ts`

func (d *DB) GetMemberContextSnapshot(ctx context.Context, find *store.FindMemberContextSnapshot) (*store.MemberContextSnapshot, error) {
	query := `SELECT ` + snapshotFieldList + `
		FROM member_context_snapshot
		WHERE member_id = ?`

	snapshot, err := scanSnapshot(d.db.QueryRowContext(ctx, query, find.MemberID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Never computed. Absence is a signal, not an error.
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get member_context_snapshot: %w", err)
	}

	return snapshot, nil
}

// UpsertMemberContextSnapshot writes the snapshot in one statement. The
// version counter is maintained inside the upsert: 1 on insert,
// previous+1 on conflict.
func (d *DB) UpsertMemberContextSnapshot(ctx context.Context, upsert *store.UpsertMemberContextSnapshot) (*store.MemberContextSnapshot, error) {
	limitations, err := json.Marshal(upsert.Limitations)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal limitations: %w", err)
	}
	goals, err := json.Marshal(upsert.Goals)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal goals: %w", err)
	}
	records, err := json.Marshal(upsert.PersonalRecords)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal personal records: %w", err)
	}
	skills, err := json.Marshal(upsert.Skills)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal skills: %w", err)
	}
	recovery, err := json.Marshal(upsert.MuscleRecovery)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal muscle recovery: %w", err)
	}

	updatedTs := upsert.UpdatedTs
	if updatedTs == 0 {
		updatedTs = time.Now().Unix()
	}

	stmt := `
		INSERT INTO member_context_snapshot (
			member_id, updated_ts, version, fitness_level, training_age_years, weight_kg, body_fat_pct,
			limitations, goals, personal_records, skills, muscle_recovery,
			weekly_workout_avg, avg_workout_duration_min, deload_recommended, last_workout_ts
		)
		VALUES (?, ?, 1, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (member_id) DO UPDATE SET
			updated_ts = excluded.updated_ts,
			version = version + 1,
			fitness_level = excluded.fitness_level,
			training_age_years = excluded.training_age_years,
			weight_kg = excluded.weight_kg,
			body_fat_pct = excluded.body_fat_pct,
			limitations = excluded.limitations,
			goals = excluded.goals,
			personal_records = excluded.personal_records,
			skills = excluded.skills,
			muscle_recovery = excluded.muscle_recovery,
			weekly_workout_avg = excluded.weekly_workout_avg,
			avg_workout_duration_min = excluded.avg_workout_duration_min,
			deload_recommended = excluded.deload_recommended,
			last_workout_ts = excluded.last_workout_ts
		RETURNING ` + snapshotFieldList

	snapshot, err := scanSnapshot(d.db.QueryRowContext(ctx, stmt,
		upsert.MemberID, updatedTs, upsert.FitnessLevel, upsert.TrainingAgeYears, upsert.WeightKg, upsert.BodyFatPct,
		string(limitations), string(goals), string(records), string(skills), string(recovery),
		upsert.WeeklyWorkoutAvg, upsert.AvgWorkoutDurationMin, upsert.DeloadRecommended, upsert.LastWorkoutTs,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to upsert member_context_snapshot: %w", err)
	}

	return snapshot, nil
}

// ListSnapshotRefreshCandidates returns members with an absent snapshot
// or one older than StaleBeforeTs, most out-of-date first.
func (d *DB) ListSnapshotRefreshCandidates(ctx context.Context, find *store.FindSnapshotRefreshCandidates) ([]int32, error) {
	query := `
		SELECT m.id
		FROM member m
		LEFT JOIN member_context_snapshot s ON s.member_id = m.id
		WHERE m.row_status = 'NORMAL' AND (s.member_id IS NULL OR s.updated_ts < ?)
		ORDER BY COALESCE(s.updated_ts, 0) ASC, m.id ASC
		LIMIT ?`

	rows, err := d.db.QueryContext(ctx, query, find.StaleBeforeTs, find.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshot refresh candidates: %w", err)
	}
	defer rows.Close()

	memberIDs := make([]int32, 0)
	for rows.Next() {
		var id int32
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan member id: %w", err)
		}
		memberIDs = append(memberIDs, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate snapshot refresh candidates: %w", err)
	}

	return memberIDs, nil
}

func (d *DB) DeleteMemberContextSnapshot(ctx context.Context, memberID int32) error {
	if _, err := d.db.ExecContext(ctx, `DELETE FROM member_context_snapshot WHERE member_id = ?`, memberID); err != nil {
		return fmt.Errorf("failed to delete member_context_snapshot: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row rowScanner) (*store.MemberContextSnapshot, error) {
	snapshot := &store.MemberContextSnapshot{}
	var limitations, goals, records, skills, recovery []byte

	if err := row.Scan(
		&snapshot.MemberID, &snapshot.UpdatedTs, &snapshot.Version,
		&snapshot.FitnessLevel, &snapshot.TrainingAgeYears, &snapshot.WeightKg, &snapshot.BodyFatPct,
		&limitations, &goals, &records, &skills, &recovery,
		&snapshot.WeeklyWorkoutAvg, &snapshot.AvgWorkoutDurationMin, &snapshot.DeloadRecommended, &snapshot.LastWorkoutTs,
	); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(limitations, &snapshot.Limitations); err != nil {
		return nil, fmt.Errorf("failed to unmarshal limitations: %w", err)
	}
	if err := json.Unmarshal(goals, &snapshot.Goals); err != nil {
		return nil, fmt.Errorf("failed to unmarshal goals: %w", err)
	}
	if err := json.Unmarshal(records, &snapshot.PersonalRecords); err != nil {
		return nil, fmt.Errorf("failed to unmarshal personal records: %w", err)
	}
	if err := json.Unmarshal(skills, &snapshot.Skills); err != nil {
		return nil, fmt.Errorf("failed to unmarshal skills: %w", err)
	}
	if err := json.Unmarshal(recovery, &snapshot.MuscleRecovery); err != nil {
		return nil, fmt.Errorf("failed to unmarshal muscle recovery: %w", err)
	}

	return snapshot, nil
}
