package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/repcircle/repcircle/store"
)

func (d *DB) CreateFitnessGoal(ctx context.Context, create *store.CreateFitnessGoal) (*store.FitnessGoal, error) {
	fields := []string{"member_id", "title", "category", "unit", "target_value", "current_value", "target_date", "created_ts", "updated_ts"}
	now := time.Now().Unix()
	args := []any{create.MemberID, create.Title, create.Category, create.Unit, create.TargetValue, create.CurrentValue, create.TargetDate, now, now}

	stmt := `INSERT INTO fitness_goal (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id, row_status`

	goal := &store.FitnessGoal{
		MemberID:     create.MemberID,
		Title:        create.Title,
		Category:     create.Category,
		Unit:         create.Unit,
		TargetValue:  create.TargetValue,
		CurrentValue: create.CurrentValue,
		TargetDate:   create.TargetDate,
		CreatedTs:    now,
		UpdatedTs:    now,
	}
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(&goal.ID, &goal.RowStatus); err != nil {
		return nil, fmt.Errorf("failed to create fitness_goal: %w", err)
	}

	return goal, nil
}

func (d *DB) ListFitnessGoals(ctx context.Context, find *store.FindFitnessGoal) ([]*store.FitnessGoal, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.MemberID != nil {
		where, args = append(where, "member_id = "+placeholder(len(args)+1)), append(args, *find.MemberID)
	}
	if find.RowStatus != nil {
		where, args = append(where, "row_status = "+placeholder(len(args)+1)), append(args, find.RowStatus.String())
	}

	query := `
		SELECT id, member_id, created_ts, updated_ts, row_status, title, category, unit, target_value, current_value, target_date
		FROM fitness_goal
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts DESC, id DESC`
	if find.Limit != nil {
		query += fmt.Sprintf(" LIMIT %d", *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list fitness_goals: %w", err)
	}
	defer rows.Close()

	list := make([]*store.FitnessGoal, 0)
	for rows.Next() {
		goal := &store.FitnessGoal{}
		if err := rows.Scan(
			&goal.ID, &goal.MemberID, &goal.CreatedTs, &goal.UpdatedTs, &goal.RowStatus,
			&goal.Title, &goal.Category, &goal.Unit, &goal.TargetValue, &goal.CurrentValue, &goal.TargetDate,
		); err != nil {
			return nil, fmt.Errorf("failed to scan fitness_goal: %w", err)
		}
		list = append(list, goal)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate fitness_goals: %w", err)
	}

	return list, nil
}

func (d *DB) UpdateFitnessGoal(ctx context.Context, update *store.UpdateFitnessGoal) (*store.FitnessGoal, error) {
	set, args := []string{}, []any{}

	if update.Title != nil {
		set, args = append(set, "title = "+placeholder(len(args)+1)), append(args, *update.Title)
	}
	if update.CurrentValue != nil {
		set, args = append(set, "current_value = "+placeholder(len(args)+1)), append(args, *update.CurrentValue)
	}
	if update.TargetValue != nil {
		set, args = append(set, "target_value = "+placeholder(len(args)+1)), append(args, *update.TargetValue)
	}
	if update.TargetDate != nil {
		set, args = append(set, "target_date = "+placeholder(len(args)+1)), append(args, *update.TargetDate)
	}
	if update.RowStatus != nil {
		set, args = append(set, "row_status = "+placeholder(len(args)+1)), append(args, update.RowStatus.String())
	}

	if len(set) == 0 {
		return nil, fmt.Errorf("no fields to update")
	}

	set, args = append(set, "updated_ts = "+placeholder(len(args)+1)), append(args, time.Now().Unix())
	args = append(args, update.ID)

	stmt := `UPDATE fitness_goal SET ` + strings.Join(set, ", ") + ` WHERE id = ` + placeholder(len(args)) + `
		RETURNING id, member_id, created_ts, updated_ts, row_status, title, category, unit, target_value, current_value, target_date`

	goal := &store.FitnessGoal{}
	err := d.db.QueryRowContext(ctx, stmt, args...).Scan(
		&goal.ID, &goal.MemberID, &goal.CreatedTs, &goal.UpdatedTs, &goal.RowStatus,
		&goal.Title, &goal.Category, &goal.Unit, &goal.TargetValue, &goal.CurrentValue, &goal.TargetDate,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("fitness_goal not found")
		}
		return nil, fmt.Errorf("failed to update fitness_goal: %w", err)
	}

	return goal, nil
}
