package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/repcircle/repcircle/store"
)

// TryAcquireEndpointCooldown takes the cooldown slot in one conditional
// upsert: only one caller can move last_run_ts forward past the cutoff.
func (d *DB) TryAcquireEndpointCooldown(ctx context.Context, acquire *store.TryAcquireEndpointCooldown) (*store.EndpointCooldown, error) {
	stmt := `
		INSERT INTO endpoint_cooldown (name, last_run_ts)
		VALUES (?, ?)
		ON CONFLICT (name) DO UPDATE SET last_run_ts = excluded.last_run_ts
		WHERE last_run_ts <= ?
		RETURNING name, last_run_ts`

	cooldown := &store.EndpointCooldown{}
	err := d.db.QueryRowContext(ctx, stmt, acquire.Name, acquire.NowTs, acquire.CutoffTs).Scan(
		&cooldown.Name, &cooldown.LastRunTs,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Still cooling down.
			return nil, nil
		}
		return nil, fmt.Errorf("failed to acquire endpoint_cooldown: %w", err)
	}

	return cooldown, nil
}

func (d *DB) GetEndpointCooldown(ctx context.Context, name string) (*store.EndpointCooldown, error) {
	cooldown := &store.EndpointCooldown{}
	err := d.db.QueryRowContext(ctx,
		`SELECT name, last_run_ts FROM endpoint_cooldown WHERE name = ?`, name,
	).Scan(&cooldown.Name, &cooldown.LastRunTs)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get endpoint_cooldown: %w", err)
	}

	return cooldown, nil
}
