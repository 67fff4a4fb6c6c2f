package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/repcircle/repcircle/store"
)

func (d *DB) CreateExercise(ctx context.Context, create *store.CreateExercise) (*store.Exercise, error) {
	muscleGroups, err := marshalStringList(create.MuscleGroups)
	if err != nil {
		return nil, err
	}
	equipment, err := marshalStringList(create.Equipment)
	if err != nil {
		return nil, err
	}

	fields := []string{"name", "category", "muscle_groups", "equipment", "created_ts"}
	now := time.Now().Unix()
	args := []any{create.Name, create.Category, muscleGroups, equipment, now}

	stmt := `INSERT INTO exercise (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id`

	exercise := &store.Exercise{
		Name:         create.Name,
		Category:     create.Category,
		MuscleGroups: create.MuscleGroups,
		Equipment:    create.Equipment,
		CreatedTs:    now,
	}
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(&exercise.ID); err != nil {
		return nil, fmt.Errorf("failed to create exercise: %w", err)
	}

	return exercise, nil
}

func (d *DB) ListExercises(ctx context.Context, find *store.FindExercise) ([]*store.Exercise, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if len(find.IDs) > 0 {
		where = append(where, "id IN ("+placeholders(len(find.IDs))+")")
		for _, id := range find.IDs {
			args = append(args, id)
		}
	}
	if find.Name != nil {
		where, args = append(where, "name = "+placeholder(len(args)+1)), append(args, *find.Name)
	}

	query := `
		SELECT id, created_ts, name, category, muscle_groups, equipment
		FROM exercise
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY name ASC`
	if find.Limit != nil {
		query += fmt.Sprintf(" LIMIT %d", *find.Limit)
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list exercises: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Exercise, 0)
	for rows.Next() {
		exercise := &store.Exercise{}
		var muscleGroups, equipment string
		if err := rows.Scan(
			&exercise.ID, &exercise.CreatedTs, &exercise.Name, &exercise.Category,
			&muscleGroups, &equipment,
		); err != nil {
			return nil, fmt.Errorf("failed to scan exercise: %w", err)
		}
		if err := unmarshalStringList(muscleGroups, &exercise.MuscleGroups); err != nil {
			return nil, err
		}
		if err := unmarshalStringList(equipment, &exercise.Equipment); err != nil {
			return nil, err
		}
		list = append(list, exercise)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate exercises: %w", err)
	}

	return list, nil
}
