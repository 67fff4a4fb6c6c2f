package snapshot

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/repcircle/repcircle/store"
)

// RefresherConfig bounds one sweep. Zero values fall back to defaults.
type RefresherConfig struct {
	// StaleAfter is the snapshot age beyond which a member becomes a
	// refresh candidate.
	StaleAfter time.Duration
	// BatchSize caps how many members one run selects.
	BatchSize int
	// Parallelism caps concurrent per-member recomputes.
	Parallelism int
	// Budget is the wall-clock limit for the whole run.
	Budget time.Duration
}

func (c *RefresherConfig) withDefaults() RefresherConfig {
	cfg := RefresherConfig{}
	if c != nil {
		cfg = *c
	}
	if cfg.StaleAfter <= 0 {
		cfg.StaleAfter = DefaultStaleAfter
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.Parallelism <= 0 {
		cfg.Parallelism = 8
	}
	if cfg.Budget <= 0 {
		cfg.Budget = time.Minute
	}
	return cfg
}

// Result summarizes one refresh sweep. Scanned counts selected
// candidates; members not attempted before the budget ran out are
// included in Scanned but in neither Updated nor Errored.
type Result struct {
	RunID   string        `json:"runId"`
	Scanned int           `json:"scanned"`
	Updated int           `json:"updated"`
	Errored int           `json:"errored"`
	Elapsed time.Duration `json:"-"`
}

// Refresher sweeps members whose snapshot is absent or stale and
// recomputes each independently. One member's failure is counted and
// never aborts the run.
type Refresher struct {
	store   Store
	builder *Builder
	cfg     RefresherConfig
}

func NewRefresher(store Store, cfg *RefresherConfig) *Refresher {
	return &Refresher{
		store:   store,
		builder: NewBuilder(store),
		cfg:     cfg.withDefaults(),
	}
}

// Run performs one bounded sweep. Recomputes run in parallel under a
// weighted semaphore; the run reports partial results when the budget
// expires instead of hanging.
func (r *Refresher) Run(ctx context.Context) (*Result, error) {
	start := time.Now()
	runID := uuid.New().String()[:8]

	ctx, cancel := context.WithTimeout(ctx, r.cfg.Budget)
	defer cancel()

	candidates, err := r.store.ListSnapshotRefreshCandidates(ctx, &store.FindSnapshotRefreshCandidates{
		StaleBeforeTs: start.Add(-r.cfg.StaleAfter).Unix(),
		Limit:         r.cfg.BatchSize,
	})
	if err != nil {
		return nil, fmt.Errorf("list refresh candidates: %w", err)
	}
	slog.Info("snapshot refresh started", "runID", runID, "candidates", len(candidates))

	var (
		wg      sync.WaitGroup
		updated atomic.Int64
		errored atomic.Int64
	)
	sem := semaphore.NewWeighted(int64(r.cfg.Parallelism))
	for _, memberID := range candidates {
		if err := sem.Acquire(ctx, 1); err != nil {
			slog.Warn("snapshot refresh budget exhausted", "runID", runID, "error", err)
			break
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer sem.Release(1)
			if _, err := r.builder.Rebuild(ctx, memberID); err != nil {
				errored.Add(1)
				slog.Error("snapshot refresh failed", "runID", runID, "memberID", memberID, "error", err)
				return
			}
			updated.Add(1)
		}()
	}
	wg.Wait()

	result := &Result{
		RunID:   runID,
		Scanned: len(candidates),
		Updated: int(updated.Load()),
		Errored: int(errored.Load()),
		Elapsed: time.Since(start),
	}
	slog.Info("snapshot refresh finished",
		"runID", runID,
		"scanned", result.Scanned,
		"updated", result.Updated,
		"errored", result.Errored,
		"elapsedMs", result.Elapsed.Milliseconds(),
	)
	return result, nil
}
