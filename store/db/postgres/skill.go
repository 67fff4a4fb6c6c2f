package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/repcircle/repcircle/store"
)

func (d *DB) CreateSkill(ctx context.Context, create *store.CreateSkill) (*store.Skill, error) {
	fields := []string{"member_id", "name", "category", "status", "created_ts", "updated_ts"}
	now := time.Now().Unix()
	args := []any{create.MemberID, create.Name, create.Category, create.Status, now, now}

	stmt := `INSERT INTO skill (` + strings.Join(fields, ", ") + `)
		VALUES (` + placeholders(len(args)) + `)
		RETURNING id`

	skill := &store.Skill{
		MemberID:  create.MemberID,
		Name:      create.Name,
		Category:  create.Category,
		Status:    create.Status,
		CreatedTs: now,
		UpdatedTs: now,
	}
	if err := d.db.QueryRowContext(ctx, stmt, args...).Scan(&skill.ID); err != nil {
		return nil, fmt.Errorf("failed to create skill: %w", err)
	}

	return skill, nil
}

func (d *DB) ListSkills(ctx context.Context, find *store.FindSkill) ([]*store.Skill, error) {
	where, args := []string{"1 = 1"}, []any{}

	if find.MemberID != nil {
		where, args = append(where, "member_id = "+placeholder(len(args)+1)), append(args, *find.MemberID)
	}
	if find.Status != nil {
		where, args = append(where, "status = "+placeholder(len(args)+1)), append(args, *find.Status)
	}

	query := `
		SELECT id, member_id, created_ts, updated_ts, name, category, status
		FROM skill
		WHERE ` + strings.Join(where, " AND ") + `
		ORDER BY created_ts DESC, id DESC`

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list skills: %w", err)
	}
	defer rows.Close()

	list := make([]*store.Skill, 0)
	for rows.Next() {
		skill := &store.Skill{}
		if err := rows.Scan(
			&skill.ID, &skill.MemberID, &skill.CreatedTs, &skill.UpdatedTs,
			&skill.Name, &skill.Category, &skill.Status,
		); err != nil {
			return nil, fmt.Errorf("failed to scan skill: %w", err)
		}
		list = append(list, skill)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate skills: %w", err)
	}

	return list, nil
}
