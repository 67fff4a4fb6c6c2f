package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/repcircle/repcircle/store"
)

func (d *DB) CreateLimitation(ctx context.Context, create *store.CreateLimitation) (*store.Limitation, error) {
	fields := []string{"member_id", "type", "description", "severity", "body_areas", "active", "created_ts", "updated_ts"}
	now := time.Now().Unix()
	args := []any{create.MemberID, create.Type, create.Description, create.Severity, pq.Array(create.BodyAreas), true, now, now}

	stmt := `INSERT INTO limitation (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id`

	limitation := &store.Limitation{
		MemberID:    create.MemberID,
		Type:        create.Type,
		Description: create.Description,
		Severity:    create.Severity,
		BodyAreas:   create.BodyAreas,
		Active:      true,
		CreatedTs:   now,
		UpdatedTs:   now,
	}
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(&limitation.ID); err != nil {
		return nil, fmt.Errorf("failed to create limitation: %w", err)
	}

	return limitation, nil
}

func (d *DB) ListLimitations(ctx context.Context, find *store.FindLimitation) ([]*store.Limitation, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.ID != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *find.ID)
	}
	if find.MemberID != nil {
		where, args = append(where, "member_id = "+placeholder(len(args)+1)), append(args, *find.MemberID)
	}
	if find.Active != nil {
		where, args = append(where, "active = "+placeholder(len(args)+1)), append(args, *find.Active)
	}

	// Severe limitations first so downstream prompt builders can trim
	// from the tail safely.
	query := `
		SELECT id, member_id, created_ts, updated_ts, type, description, severity, body_areas, active
		FROM limitation
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY CASE severity WHEN 'severe' THEN 0 WHEN 'moderate' THEN 1 ELSE 2 END, created_ts DESC`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list limitations: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Limitation, 0)
	for rows.Next() {
		limitation := &store.Limitation{}
		if err := rows.Scan(
			&limitation.ID, &limitation.MemberID, &limitation.CreatedTs, &limitation.UpdatedTs,
			&limitation.Type, &limitation.Description, &limitation.Severity,
			pq.Array(&limitation.BodyAreas), &limitation.Active,
		); err != nil {
			return nil, fmt.Errorf("failed to scan limitation: %w", err)
		}
		list = append(list, limitation)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate limitations: %w", err)
	}

	return list, nil
}

func (d *DB) UpdateLimitation(ctx context.Context, update *store.UpdateLimitation) (*store.Limitation, error) {
	set, args := []string{}, []any{}

	if update.Description != nil {
		set, args = append(set, "description = "+placeholder(len(args)+1)), append(args, *update.Description)
	}
	if update.Severity != nil {
		set, args = append(set, "severity = "+placeholder(len(args)+1)), append(args, *update.Severity)
	}
	if update.Active != nil {
		set, args = append(set, "active = "+placeholder(len(args)+1)), append(args, *update.Active)
	}

	if len(set) == 0 {
		return nil, fmt.Errorf("no fields to update")
	}

	set, args = append(set, "updated_ts = "+placeholder(len(args)+1)), append(args, time.Now().Unix())
	args = append(args, update.ID)

	stmt := `UPDATE limitation SET ` + strings.Join(set, ", ") + ` WHERE id = ` + placeholder(len(args)) + `
		RETURNING id, member_id, created_ts, updated_ts, type, description, severity, body_areas, active`

	limitation := &store.Limitation{}
	err := d.db.QueryRowContext(ctx, stmt, args...).Scan(
		&limitation.ID, &limitation.MemberID, &limitation.CreatedTs, &limitation.UpdatedTs,
		&limitation.Type, &limitation.Description, &limitation.Severity,
		pq.Array(&limitation.BodyAreas), &limitation.Active,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("limitation not found")
		}
		return nil, fmt.Errorf("failed to update limitation: %w", err)
	}

	return limitation, nil
}
