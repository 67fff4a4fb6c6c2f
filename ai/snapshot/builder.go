// Package snapshot materializes per-member coaching context: a
// versioned cache row computed from the source tables, read with a
// freshness check and recomputed by a batch refresher. The source
// tables stay authoritative; a snapshot is never more than a cache.
package snapshot

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/repcircle/repcircle/ai/recovery"
	"github.com/repcircle/repcircle/store"
)

const (
	// recentSessionLimit bounds the activity window fed to the
	// recovery model.
	recentSessionLimit = 7

	// statsWindowDays is the trailing window for workout aggregates.
	statsWindowDays = 14

	// recordLimit caps how many personal records ride on the snapshot.
	recordLimit = 10

	// Deload is recommended when the trailing window shows this many
	// completed sessions or this many fatigued muscle groups.
	deloadSessionThreshold = 12
	deloadFatiguedMuscles  = 3
)

// Store is the persistence surface the snapshot pipeline reads from
// and writes to.
type Store interface {
	GetMember(ctx context.Context, find *store.FindMember) (*store.Member, error)
	ListFitnessGoals(ctx context.Context, find *store.FindFitnessGoal) ([]*store.FitnessGoal, error)
	ListLimitations(ctx context.Context, find *store.FindLimitation) ([]*store.Limitation, error)
	ListPersonalRecords(ctx context.Context, find *store.FindPersonalRecord) ([]*store.PersonalRecord, error)
	ListSkills(ctx context.Context, find *store.FindSkill) ([]*store.Skill, error)
	ListWorkoutSessions(ctx context.Context, find *store.FindWorkoutSession) ([]*store.WorkoutSession, error)
	ListSessionExercises(ctx context.Context, find *store.FindSessionExercise) ([]*store.SessionExercise, error)
	GetWorkoutStats(ctx context.Context, find *store.FindWorkoutStats) (*store.WorkoutStats, error)
	GetMemberContextSnapshot(ctx context.Context, find *store.FindMemberContextSnapshot) (*store.MemberContextSnapshot, error)
	UpsertMemberContextSnapshot(ctx context.Context, upsert *store.UpsertMemberContextSnapshot) (*store.MemberContextSnapshot, error)
	ListSnapshotRefreshCandidates(ctx context.Context, find *store.FindSnapshotRefreshCandidates) ([]int32, error)
}

// Builder recomputes one member's snapshot from the source tables.
type Builder struct {
	store Store
}

func NewBuilder(store Store) *Builder {
	return &Builder{store: store}
}

// Build aggregates the member's current training state as of now.
// Independent source reads fan out in parallel; session exercises are
// fetched in a second level once the session ids are known, because
// muscle groups live on the exercise catalog.
func (b *Builder) Build(ctx context.Context, memberID int32, now time.Time) (*store.UpsertMemberContextSnapshot, error) {
	normal := store.Normal
	sessionLimit := recentSessionLimit
	recordCap := recordLimit

	var (
		member   *store.Member
		goals    []*store.FitnessGoal
		limits   []*store.Limitation
		records  []*store.PersonalRecord
		skills   []*store.Skill
		sessions []*store.WorkoutSession
		stats    *store.WorkoutStats
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		member, err = b.store.GetMember(gctx, &store.FindMember{ID: &memberID})
		if err != nil {
			return fmt.Errorf("get member: %w", err)
		}
		if member == nil {
			return fmt.Errorf("member %d not found", memberID)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		goals, err = b.store.ListFitnessGoals(gctx, &store.FindFitnessGoal{MemberID: &memberID, RowStatus: &normal})
		if err != nil {
			return fmt.Errorf("list goals: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		active := true
		var err error
		limits, err = b.store.ListLimitations(gctx, &store.FindLimitation{MemberID: &memberID, Active: &active})
		if err != nil {
			return fmt.Errorf("list limitations: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		records, err = b.store.ListPersonalRecords(gctx, &store.FindPersonalRecord{MemberID: &memberID, Limit: &recordCap})
		if err != nil {
			return fmt.Errorf("list personal records: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		skills, err = b.store.ListSkills(gctx, &store.FindSkill{MemberID: &memberID})
		if err != nil {
			return fmt.Errorf("list skills: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		sessions, err = b.store.ListWorkoutSessions(gctx, &store.FindWorkoutSession{
			MemberID:      &memberID,
			CompletedOnly: true,
			Limit:         &sessionLimit,
		})
		if err != nil {
			return fmt.Errorf("list workout sessions: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		sinceTs := now.AddDate(0, 0, -statsWindowDays).Unix()
		var err error
		stats, err = b.store.GetWorkoutStats(gctx, &store.FindWorkoutStats{MemberID: memberID, SinceTs: sinceTs})
		if err != nil {
			return fmt.Errorf("get workout stats: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	activity, err := b.loadActivity(ctx, sessions)
	if err != nil {
		return nil, err
	}
	muscleRecovery := toSnapshotRecovery(recovery.Classify(activity, now))

	upsert := &store.UpsertMemberContextSnapshot{
		MemberID:         memberID,
		FitnessLevel:     member.FitnessLevel,
		TrainingAgeYears: member.TrainingAgeYears,
		WeightKg:         member.WeightKg,
		BodyFatPct:       member.BodyFatPct,
		Limitations:      toSnapshotLimitations(limits),
		Goals:            toSnapshotGoals(goals),
		PersonalRecords:  toSnapshotRecords(records),
		Skills:           toSnapshotSkills(skills),
		MuscleRecovery:   muscleRecovery,
		UpdatedTs:        now.Unix(),
	}

	if stats != nil {
		// Rolling estimate: completed count over the trailing 14 days
		// halved, not a true per-week average.
		upsert.WeeklyWorkoutAvg = float64(stats.CompletedCount) / 2
		upsert.AvgWorkoutDurationMin = stats.AvgDurationMin
		upsert.DeloadRecommended = recommendDeload(stats.CompletedCount, muscleRecovery)
	}
	if len(sessions) > 0 && sessions[0].EndedTs != nil {
		upsert.LastWorkoutTs = sessions[0].EndedTs
	}

	return upsert, nil
}

// Rebuild recomputes and persists the member's snapshot, returning the
// stored row with its new version.
func (b *Builder) Rebuild(ctx context.Context, memberID int32) (*store.MemberContextSnapshot, error) {
	upsert, err := b.Build(ctx, memberID, time.Now())
	if err != nil {
		return nil, err
	}
	snapshot, err := b.store.UpsertMemberContextSnapshot(ctx, upsert)
	if err != nil {
		return nil, fmt.Errorf("upsert snapshot: %w", err)
	}
	return snapshot, nil
}

// loadActivity resolves the muscle groups worked in each completed
// session via one batched exercise lookup.
func (b *Builder) loadActivity(ctx context.Context, sessions []*store.WorkoutSession) ([]recovery.Activity, error) {
	if len(sessions) == 0 {
		return nil, nil
	}

	sessionIDs := make([]int32, 0, len(sessions))
	for _, session := range sessions {
		sessionIDs = append(sessionIDs, session.ID)
	}
	exercises, err := b.store.ListSessionExercises(ctx, &store.FindSessionExercise{SessionIDs: sessionIDs})
	if err != nil {
		return nil, fmt.Errorf("list session exercises: %w", err)
	}

	musclesBySession := make(map[int32][]string, len(sessions))
	for _, exercise := range exercises {
		musclesBySession[exercise.SessionID] = append(musclesBySession[exercise.SessionID], exercise.MuscleGroups...)
	}

	activity := make([]recovery.Activity, 0, len(sessions))
	for _, session := range sessions {
		if session.EndedTs == nil {
			continue
		}
		activity = append(activity, recovery.Activity{
			Date:    time.Unix(*session.EndedTs, 0),
			Muscles: musclesBySession[session.ID],
		})
	}
	return activity, nil
}

func toSnapshotLimitations(limits []*store.Limitation) []store.SnapshotLimitation {
	sorted := make([]*store.Limitation, len(limits))
	copy(sorted, limits)
	sort.SliceStable(sorted, func(i, j int) bool {
		ri, rj := severityRank(sorted[i].Severity), severityRank(sorted[j].Severity)
		if ri != rj {
			return ri > rj
		}
		return sorted[i].CreatedTs > sorted[j].CreatedTs
	})

	out := make([]store.SnapshotLimitation, 0, len(sorted))
	for _, l := range sorted {
		out = append(out, store.SnapshotLimitation{
			Type:        l.Type,
			Description: l.Description,
			Severity:    l.Severity,
			BodyAreas:   l.BodyAreas,
		})
	}
	return out
}

func severityRank(severity store.LimitationSeverity) int {
	switch severity {
	case store.LimitationSeveritySevere:
		return 3
	case store.LimitationSeverityModerate:
		return 2
	case store.LimitationSeverityMild:
		return 1
	default:
		return 0
	}
}

func toSnapshotGoals(goals []*store.FitnessGoal) []store.SnapshotGoal {
	out := make([]store.SnapshotGoal, 0, len(goals))
	for _, g := range goals {
		out = append(out, store.SnapshotGoal{
			ID:              g.ID,
			Title:           g.Title,
			Category:        g.Category,
			Unit:            g.Unit,
			TargetValue:     g.TargetValue,
			CurrentValue:    g.CurrentValue,
			ProgressPercent: progressPercent(g.CurrentValue, g.TargetValue),
			TargetDate:      g.TargetDate,
		})
	}
	return out
}

func progressPercent(current, target float64) float64 {
	if target <= 0 {
		return 0
	}
	return math.Max(0, math.Min(100, current/target*100))
}

func toSnapshotRecords(records []*store.PersonalRecord) []store.SnapshotRecord {
	out := make([]store.SnapshotRecord, 0, len(records))
	for _, r := range records {
		out = append(out, store.SnapshotRecord{
			ExerciseName: r.ExerciseName,
			Value:        r.Value,
			Unit:         r.Unit,
			RepMax:       r.RepMax,
			AchievedTs:   r.AchievedTs,
		})
	}
	return out
}

func toSnapshotSkills(skills []*store.Skill) []store.SnapshotSkill {
	out := make([]store.SnapshotSkill, 0, len(skills))
	for _, s := range skills {
		out = append(out, store.SnapshotSkill{
			Name:     s.Name,
			Status:   s.Status,
			Category: s.Category,
		})
	}
	return out
}

func toSnapshotRecovery(readiness map[string]recovery.Readiness) map[string]store.SnapshotRecovery {
	out := make(map[string]store.SnapshotRecovery, len(readiness))
	for muscle, r := range readiness {
		out[muscle] = store.SnapshotRecovery{
			Status:           string(r.Status),
			HoursSinceWorked: r.HoursSinceWorked,
			ReadyToTrain:     r.ReadyToTrain,
		}
	}
	return out
}

func recommendDeload(completedSessions int32, muscleRecovery map[string]store.SnapshotRecovery) bool {
	if completedSessions >= deloadSessionThreshold {
		return true
	}
	fatigued := 0
	for _, r := range muscleRecovery {
		if r.Status == string(recovery.StatusFatigued) {
			fatigued++
		}
	}
	return fatigued >= deloadFatiguedMuscles
}
