package snapshot

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repcircle/repcircle/store"
)

type fakeStore struct {
	mu sync.Mutex

	members   map[int32]*store.Member
	memberErr map[int32]error

	goals     []*store.FitnessGoal
	limits    []*store.Limitation
	records   []*store.PersonalRecord
	skills    []*store.Skill
	sessions  []*store.WorkoutSession
	exercises []*store.SessionExercise
	stats     *store.WorkoutStats

	snapshots  map[int32]*store.MemberContextSnapshot
	candidates []int32
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		members:   map[int32]*store.Member{},
		memberErr: map[int32]error{},
		snapshots: map[int32]*store.MemberContextSnapshot{},
		stats:     &store.WorkoutStats{},
	}
}

func (s *fakeStore) GetMember(_ context.Context, find *store.FindMember) (*store.Member, error) {
	if find.ID == nil {
		return nil, nil
	}
	if err := s.memberErr[*find.ID]; err != nil {
		return nil, err
	}
	return s.members[*find.ID], nil
}

func (s *fakeStore) ListFitnessGoals(_ context.Context, _ *store.FindFitnessGoal) ([]*store.FitnessGoal, error) {
	return s.goals, nil
}

func (s *fakeStore) ListLimitations(_ context.Context, _ *store.FindLimitation) ([]*store.Limitation, error) {
	return s.limits, nil
}

func (s *fakeStore) ListPersonalRecords(_ context.Context, _ *store.FindPersonalRecord) ([]*store.PersonalRecord, error) {
	return s.records, nil
}

func (s *fakeStore) ListSkills(_ context.Context, _ *store.FindSkill) ([]*store.Skill, error) {
	return s.skills, nil
}

func (s *fakeStore) ListWorkoutSessions(_ context.Context, _ *store.FindWorkoutSession) ([]*store.WorkoutSession, error) {
	return s.sessions, nil
}

func (s *fakeStore) ListSessionExercises(_ context.Context, find *store.FindSessionExercise) ([]*store.SessionExercise, error) {
	wanted := map[int32]bool{}
	for _, id := range find.SessionIDs {
		wanted[id] = true
	}
	var out []*store.SessionExercise
	for _, e := range s.exercises {
		if wanted[e.SessionID] {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *fakeStore) GetWorkoutStats(_ context.Context, _ *store.FindWorkoutStats) (*store.WorkoutStats, error) {
	return s.stats, nil
}

func (s *fakeStore) GetMemberContextSnapshot(_ context.Context, find *store.FindMemberContextSnapshot) (*store.MemberContextSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshots[find.MemberID], nil
}

func (s *fakeStore) UpsertMemberContextSnapshot(_ context.Context, upsert *store.UpsertMemberContextSnapshot) (*store.MemberContextSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	version := int32(1)
	if prev, ok := s.snapshots[upsert.MemberID]; ok {
		version = prev.Version + 1
	}
	updatedTs := upsert.UpdatedTs
	if updatedTs == 0 {
		updatedTs = time.Now().Unix()
	}
	snapshot := &store.MemberContextSnapshot{
		MemberID:              upsert.MemberID,
		FitnessLevel:          upsert.FitnessLevel,
		TrainingAgeYears:      upsert.TrainingAgeYears,
		WeightKg:              upsert.WeightKg,
		BodyFatPct:            upsert.BodyFatPct,
		Limitations:           upsert.Limitations,
		Goals:                 upsert.Goals,
		PersonalRecords:       upsert.PersonalRecords,
		Skills:                upsert.Skills,
		MuscleRecovery:        upsert.MuscleRecovery,
		WeeklyWorkoutAvg:      upsert.WeeklyWorkoutAvg,
		AvgWorkoutDurationMin: upsert.AvgWorkoutDurationMin,
		DeloadRecommended:     upsert.DeloadRecommended,
		LastWorkoutTs:         upsert.LastWorkoutTs,
		UpdatedTs:             updatedTs,
		Version:               version,
	}
	s.snapshots[upsert.MemberID] = snapshot
	return snapshot, nil
}

func (s *fakeStore) ListSnapshotRefreshCandidates(_ context.Context, _ *store.FindSnapshotRefreshCandidates) ([]int32, error) {
	return s.candidates, nil
}

func float64Ptr(v float64) *float64 { return &v }
func int64Ptr(v int64) *int64       { return &v }

func TestBuild_AssemblesSnapshot(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1700000000, 0)
	fs := newFakeStore()
	fs.members[1] = &store.Member{
		ID:               1,
		FitnessLevel:     store.FitnessLevelIntermediate,
		TrainingAgeYears: 2.5,
		WeightKg:         float64Ptr(80),
	}
	fs.goals = []*store.FitnessGoal{
		{ID: 10, Title: "Bench 100kg", Category: store.GoalCategoryStrength, Unit: "kg", TargetValue: 100, CurrentValue: 85},
		{ID: 11, Title: "Run 5k weekly", Category: store.GoalCategoryHabit, TargetValue: 4, CurrentValue: 6},
	}
	fs.limits = []*store.Limitation{
		{Type: store.LimitationTypeMobility, Description: "tight hips", Severity: store.LimitationSeverityMild, CreatedTs: 100},
		{Type: store.LimitationTypeInjury, Description: "shoulder impingement", Severity: store.LimitationSeveritySevere, BodyAreas: []string{"shoulders"}, CreatedTs: 50},
	}
	fs.records = []*store.PersonalRecord{
		{ExerciseName: "Deadlift", Value: 180, Unit: "kg", AchievedTs: now.Unix() - 86400},
	}
	fs.skills = []*store.Skill{
		{Name: "Muscle-up", Status: store.SkillStatusWorkingOn, Category: "calisthenics"},
	}
	fs.sessions = []*store.WorkoutSession{
		{ID: 2, MemberID: 1, EndedTs: int64Ptr(now.Unix() - 40*3600)},
		{ID: 1, MemberID: 1, EndedTs: int64Ptr(now.Unix() - 100*3600)},
	}
	fs.exercises = []*store.SessionExercise{
		{SessionID: 2, ExerciseName: "Bench Press", MuscleGroups: []string{"chest", "triceps"}},
		{SessionID: 1, ExerciseName: "Back Squat", MuscleGroups: []string{"quadriceps", "glutes"}},
	}
	fs.stats = &store.WorkoutStats{CompletedCount: 4, AvgDurationMin: 55.5, LastCompletedTs: int64Ptr(now.Unix() - 40*3600)}

	upsert, err := NewBuilder(fs).Build(ctx, 1, now)
	require.NoError(t, err)

	assert.Equal(t, int32(1), upsert.MemberID)
	assert.Equal(t, store.FitnessLevelIntermediate, upsert.FitnessLevel)
	assert.Equal(t, 2.5, upsert.TrainingAgeYears)
	assert.Equal(t, now.Unix(), upsert.UpdatedTs)

	require.Len(t, upsert.Goals, 2)
	assert.Equal(t, 85.0, upsert.Goals[0].ProgressPercent)
	assert.Equal(t, 100.0, upsert.Goals[1].ProgressPercent, "progress is clamped to 100")

	require.Len(t, upsert.Limitations, 2)
	assert.Equal(t, store.LimitationSeveritySevere, upsert.Limitations[0].Severity, "most severe first")

	chest := upsert.MuscleRecovery["chest"]
	require.NotNil(t, chest.HoursSinceWorked)
	assert.InDelta(t, 40, *chest.HoursSinceWorked, 0.01)
	assert.Equal(t, "recovering", chest.Status)
	assert.False(t, chest.ReadyToTrain)

	quads := upsert.MuscleRecovery["quadriceps"]
	assert.Equal(t, "ready", quads.Status)
	assert.True(t, quads.ReadyToTrain)

	back := upsert.MuscleRecovery["back"]
	assert.Nil(t, back.HoursSinceWorked, "never-worked muscle has no elapsed hours")
	assert.True(t, back.ReadyToTrain)

	assert.Equal(t, 2.0, upsert.WeeklyWorkoutAvg)
	assert.Equal(t, 55.5, upsert.AvgWorkoutDurationMin)
	assert.False(t, upsert.DeloadRecommended)
	require.NotNil(t, upsert.LastWorkoutTs)
	assert.Equal(t, now.Unix()-40*3600, *upsert.LastWorkoutTs)
}

func TestBuild_NoTrainingHistory(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1700000000, 0)
	fs := newFakeStore()
	fs.members[1] = &store.Member{ID: 1, FitnessLevel: store.FitnessLevelBeginner}

	upsert, err := NewBuilder(fs).Build(ctx, 1, now)
	require.NoError(t, err)

	assert.Nil(t, upsert.LastWorkoutTs)
	assert.Zero(t, upsert.WeeklyWorkoutAvg)
	assert.False(t, upsert.DeloadRecommended)
	for muscle, r := range upsert.MuscleRecovery {
		assert.True(t, r.ReadyToTrain, muscle)
		assert.Nil(t, r.HoursSinceWorked, muscle)
	}
}

func TestBuild_DeloadOnHighFrequency(t *testing.T) {
	ctx := context.Background()
	fs := newFakeStore()
	fs.members[1] = &store.Member{ID: 1, FitnessLevel: store.FitnessLevelAdvanced}
	fs.stats = &store.WorkoutStats{CompletedCount: 12, AvgDurationMin: 45}

	upsert, err := NewBuilder(fs).Build(ctx, 1, time.Unix(1700000000, 0))
	require.NoError(t, err)

	assert.True(t, upsert.DeloadRecommended)
}

func TestBuild_DeloadOnWidespreadFatigue(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1700000000, 0)
	fs := newFakeStore()
	fs.members[1] = &store.Member{ID: 1, FitnessLevel: store.FitnessLevelAdvanced}
	fs.sessions = []*store.WorkoutSession{
		{ID: 1, MemberID: 1, EndedTs: int64Ptr(now.Unix() - 3600)},
	}
	fs.exercises = []*store.SessionExercise{
		{SessionID: 1, ExerciseName: "Bench Press", MuscleGroups: []string{"chest", "shoulders", "triceps"}},
	}
	fs.stats = &store.WorkoutStats{CompletedCount: 3, AvgDurationMin: 60}

	upsert, err := NewBuilder(fs).Build(ctx, 1, now)
	require.NoError(t, err)

	assert.Equal(t, "fatigued", upsert.MuscleRecovery["chest"].Status)
	assert.True(t, upsert.DeloadRecommended)
}

func TestBuild_MemberNotFound(t *testing.T) {
	fs := newFakeStore()

	_, err := NewBuilder(fs).Build(context.Background(), 42, time.Now())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "member 42 not found")
}

func TestProgressPercent(t *testing.T) {
	tests := []struct {
		name    string
		current float64
		target  float64
		want    float64
	}{
		{"halfway", 50, 100, 50},
		{"overshoot clamps", 150, 100, 100},
		{"negative clamps", -10, 100, 0},
		{"zero target", 50, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, progressPercent(tt.current, tt.target))
		})
	}
}
