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

func (d *DB) CreateMember(ctx context.Context, create *store.CreateMember) (*store.Member, error) {
	fields := []string{"username", "display_name", "fitness_level", "training_age_years", "weight_kg", "body_fat_pct", "created_ts", "updated_ts"}
	now := time.Now().Unix()
	args := []any{create.Username, create.DisplayName, create.FitnessLevel, create.TrainingAgeYears, create.WeightKg, create.BodyFatPct, now, now}

	stmt := `INSERT INTO member (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id, row_status`

	member := &store.Member{
		Username:         create.Username,
		DisplayName:      create.DisplayName,
		FitnessLevel:     create.FitnessLevel,
		TrainingAgeYears: create.TrainingAgeYears,
		WeightKg:         create.WeightKg,
		BodyFatPct:       create.BodyFatPct,
		CreatedTs:        now,
		UpdatedTs:        now,
	}
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(&member.ID, &member.RowStatus); err != nil {
		return nil, fmt.Errorf("failed to create member: %w", err)
	}

	return member, nil
}

func (d *DB) GetMember(ctx context.Context, find *store.FindMember) (*store.Member, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.Username != nil {
		where, args = append(where, "username = "+placeholder(len(args)+1)), append(args, *find.Username)
	}
	if find.RowStatus != nil {
		where, args = append(where, "row_status = "+placeholder(len(args)+1)), append(args, find.RowStatus.String())
	}

	query := `
		SELECT id, created_ts, updated_ts, row_status, username, display_name, fitness_level, training_age_years, weight_kg, body_fat_pct
		FROM member
		WHERE ` + strings.Join(where, " AND ") + `
		LIMIT 1`

	member := &store.Member{}
	err := d.db.QueryRowContext(ctx, query, args...).Scan(
		&member.ID, &member.CreatedTs, &member.UpdatedTs, &member.RowStatus,
		&member.Username, &member.DisplayName, &member.FitnessLevel,
		&member.TrainingAgeYears, &member.WeightKg, &member.BodyFatPct,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get member: %w", err)
	}

	return member, nil
}

func (d *DB) UpdateMember(ctx context.Context, update *store.UpdateMember) (*store.Member, error) {
	set, args := []string{}, []any{}

	if update.DisplayName != nil {
		set, args = append(set, "display_name = "+placeholder(len(args)+1)), append(args, *update.DisplayName)
	}
	if update.FitnessLevel != nil {
		set, args = append(set, "fitness_level = "+placeholder(len(args)+1)), append(args, *update.FitnessLevel)
	}
	if update.TrainingAgeYears != nil {
		set, args = append(set, "training_age_years = "+placeholder(len(args)+1)), append(args, *update.TrainingAgeYears)
	}
	if update.WeightKg != nil {
		set, args = append(set, "weight_kg = "+placeholder(len(args)+1)), append(args, *update.WeightKg)
	}
	if update.BodyFatPct != nil {
		set, args = append(set, "body_fat_pct = "+placeholder(len(args)+1)), append(args, *update.BodyFatPct)
	}
	if update.RowStatus != nil {
		set, args = append(set, "row_status = "+placeholder(len(args)+1)), append(args, update.RowStatus.String())
	}

	if len(set) == 0 {
		return nil, fmt.Errorf("no fields to update")
	}

	set, args = append(set, "updated_ts = "+placeholder(len(args)+1)), append(args, time.Now().Unix())
	args = append(args, update.ID)

	stmt := `UPDATE member SET ` + strings.Join(set, ", ") + ` WHERE id = ` + placeholder(len(args)) + `
		RETURNING id, created_ts, updated_ts, row_status, username, display_name, fitness_level, training_age_years, weight_kg, body_fat_pct`

	member := &store.Member{}
	err := d.db.QueryRowContext(ctx, stmt, args...).Scan(
		&member.ID, &member.CreatedTs, &member.UpdatedTs, &member.RowStatus,
		&member.Username, &member.DisplayName, &member.FitnessLevel,
		&member.TrainingAgeYears, &member.WeightKg, &member.BodyFatPct,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("member not found")
		}
		return nil, fmt.Errorf("failed to update member: %w", err)
	}

	return member, nil
}
