package coach

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repcircle/repcircle/ai/memory"
	"github.com/repcircle/repcircle/store"
)

type fakeToolStore struct {
	sessions  []*store.WorkoutSession
	exercises []*store.SessionExercise
	goals     []*store.FitnessGoal
	records   []*store.PersonalRecord

	sessionsErr error
}

func (f *fakeToolStore) ListWorkoutSessions(_ context.Context, find *store.FindWorkoutSession) ([]*store.WorkoutSession, error) {
	if f.sessionsErr != nil {
		return nil, f.sessionsErr
	}
	sessions := f.sessions
	if find.Limit != nil && len(sessions) > *find.Limit {
		sessions = sessions[:*find.Limit]
	}
	return sessions, nil
}

func (f *fakeToolStore) ListSessionExercises(_ context.Context, find *store.FindSessionExercise) ([]*store.SessionExercise, error) {
	wanted := map[int32]bool{}
	for _, id := range find.SessionIDs {
		wanted[id] = true
	}
	var result []*store.SessionExercise
	for _, exercise := range f.exercises {
		if wanted[exercise.SessionID] {
			result = append(result, exercise)
		}
	}
	return result, nil
}

func (f *fakeToolStore) ListFitnessGoals(context.Context, *store.FindFitnessGoal) ([]*store.FitnessGoal, error) {
	return f.goals, nil
}

func (f *fakeToolStore) ListPersonalRecords(context.Context, *store.FindPersonalRecord) ([]*store.PersonalRecord, error) {
	return f.records, nil
}

type fakeMemories struct {
	saved  []string
	err    error
	nextID int32
}

func (f *fakeMemories) Remember(_ context.Context, memberID int32, content string, category store.MemoryNoteCategory) (*store.MemoryNote, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.nextID++
	f.saved = append(f.saved, content)
	return &store.MemoryNote{ID: f.nextID, MemberID: memberID, Content: content, Category: category}, nil
}

func TestExecute_RecentWorkouts(t *testing.T) {
	ctx := context.Background()
	ended := int64(1770000000)
	weight := 80.0
	fs := &fakeToolStore{
		sessions: []*store.WorkoutSession{
			{ID: 1, Title: "Leg Day", EndedTs: &ended, DurationMin: 45},
			{ID: 2, EndedTs: &ended, DurationMin: 30},
		},
		exercises: []*store.SessionExercise{
			{SessionID: 1, ExerciseName: "Back Squat", Sets: 4, Reps: 8, WeightKg: &weight},
			{SessionID: 1, ExerciseName: "Lunges", Sets: 3, Reps: 12},
		},
	}
	toolbox := NewToolbox(fs, &fakeMemories{})

	result, err := toolbox.Execute(ctx, 1, nil, &ToolRequest{Name: ToolRecentWorkouts})

	require.NoError(t, err)
	assert.Contains(t, result, "Leg Day, 45 min")
	assert.Contains(t, result, "Back Squat 4x8 @ 80.0kg")
	assert.Contains(t, result, "Lunges 3x12")
	assert.Contains(t, result, "Workout, 30 min", "untitled sessions get a placeholder title")
}

func TestExecute_RecentWorkoutsEmpty(t *testing.T) {
	ctx := context.Background()
	toolbox := NewToolbox(&fakeToolStore{}, &fakeMemories{})

	result, err := toolbox.Execute(ctx, 1, nil, &ToolRequest{Name: ToolRecentWorkouts})

	require.NoError(t, err)
	assert.Equal(t, "No completed workouts on record.", result)
}

func TestExecute_GoalProgress(t *testing.T) {
	ctx := context.Background()
	fs := &fakeToolStore{
		goals: []*store.FitnessGoal{
			{Title: "Bench 100kg", CurrentValue: 85, TargetValue: 100, Unit: "kg"},
			{Title: "Run 5k", CurrentValue: 6, TargetValue: 5, Unit: "km"},
		},
	}
	toolbox := NewToolbox(fs, &fakeMemories{})

	result, err := toolbox.Execute(ctx, 1, nil, &ToolRequest{Name: ToolGoalProgress})

	require.NoError(t, err)
	assert.Contains(t, result, "Bench 100kg: 85 of 100 kg (85%)")
	assert.Contains(t, result, "Run 5k: 6 of 5 km (100%)", "progress caps at 100%")
}

func TestExecute_PersonalRecords(t *testing.T) {
	ctx := context.Background()
	repMax := int32(1)
	fs := &fakeToolStore{
		records: []*store.PersonalRecord{
			{ExerciseName: "Deadlift", Value: 180, Unit: "kg", RepMax: &repMax, AchievedTs: 1770000000},
			{ExerciseName: "Plank", Value: 240, Unit: "seconds", AchievedTs: 1770000000},
		},
	}
	toolbox := NewToolbox(fs, &fakeMemories{})

	result, err := toolbox.Execute(ctx, 1, nil, &ToolRequest{Name: ToolPersonalRecords})

	require.NoError(t, err)
	assert.Contains(t, result, "Deadlift: 180.0 kg (1RM)")
	assert.Contains(t, result, "Plank: 240.0 seconds")
}

func TestExecute_RecoveryStatus(t *testing.T) {
	ctx := context.Background()
	toolbox := NewToolbox(&fakeToolStore{}, &fakeMemories{})
	hours := 40.0
	snapshot := &store.MemberContextSnapshot{
		MuscleRecovery: map[string]store.SnapshotRecovery{
			"chest":      {Status: "recovering", HoursSinceWorked: &hours},
			"quadriceps": {Status: "ready"},
		},
	}

	result, err := toolbox.Execute(ctx, 1, snapshot, &ToolRequest{Name: ToolRecoveryStatus})

	require.NoError(t, err)
	assert.Contains(t, result, "ready: quadriceps")
	assert.Contains(t, result, "recovering: chest (40h ago)")
}

func TestExecute_RecoveryStatusWithoutSnapshot(t *testing.T) {
	ctx := context.Background()
	toolbox := NewToolbox(&fakeToolStore{}, &fakeMemories{})

	result, err := toolbox.Execute(ctx, 1, nil, &ToolRequest{Name: ToolRecoveryStatus})

	require.NoError(t, err)
	assert.Equal(t, "No recovery data available.", result)
}

func TestExecute_SaveMemory(t *testing.T) {
	ctx := context.Background()
	memories := &fakeMemories{}
	toolbox := NewToolbox(&fakeToolStore{}, memories)

	result, err := toolbox.Execute(ctx, 1, nil, &ToolRequest{
		Name:  ToolSaveMemory,
		Input: "prefers kettlebell work over barbells",
	})

	require.NoError(t, err)
	assert.Equal(t, "Noted: prefers kettlebell work over barbells", result)
	assert.Equal(t, []string{"prefers kettlebell work over barbells"}, memories.saved)
}

func TestExecute_SaveMemoryEmptyInput(t *testing.T) {
	ctx := context.Background()
	memories := &fakeMemories{}
	toolbox := NewToolbox(&fakeToolStore{}, memories)

	result, err := toolbox.Execute(ctx, 1, nil, &ToolRequest{Name: ToolSaveMemory, Input: "  "})

	require.NoError(t, err)
	assert.Contains(t, result, "Nothing to save")
	assert.Empty(t, memories.saved)
}

func TestExecute_SaveMemoryRejectionIsUserSafe(t *testing.T) {
	ctx := context.Background()
	memories := &fakeMemories{err: &memory.RejectionError{Reason: "pii_ssn"}}
	toolbox := NewToolbox(&fakeToolStore{}, memories)

	result, err := toolbox.Execute(ctx, 1, nil, &ToolRequest{Name: ToolSaveMemory, Input: "my ssn is 123-45-6789"})

	require.NoError(t, err, "a rejection is a normal outcome, not a tool failure")
	assert.Contains(t, result, "could not be saved")
	assert.NotContains(t, result, "123-45-6789", "rejected content never echoes back")
}

func TestExecute_UnknownTool(t *testing.T) {
	ctx := context.Background()
	toolbox := NewToolbox(&fakeToolStore{}, &fakeMemories{})

	_, err := toolbox.Execute(ctx, 1, nil, &ToolRequest{Name: "web_search"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown tool "web_search"`)
}

func TestExecute_StoreErrorPropagates(t *testing.T) {
	ctx := context.Background()
	fs := &fakeToolStore{sessionsErr: errors.New("connection reset")}
	toolbox := NewToolbox(fs, &fakeMemories{})

	_, err := toolbox.Execute(ctx, 1, nil, &ToolRequest{Name: ToolRecentWorkouts})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestAgentExecuteTool_Delegates(t *testing.T) {
	ctx := context.Background()
	fs := &fakeToolStore{
		goals: []*store.FitnessGoal{{Title: "Bench 100kg", CurrentValue: 85, TargetValue: 100, Unit: "kg"}},
	}
	agent := NewAgent(&fakeLLM{}, nil, NewToolbox(fs, &fakeMemories{}), nil, nil)

	result, err := agent.ExecuteTool(ctx, 1, nil, &ToolRequest{Name: ToolGoalProgress})

	require.NoError(t, err)
	assert.Contains(t, result, "Bench 100kg")
}
