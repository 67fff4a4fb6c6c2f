package coach

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/repcircle/repcircle/store"
)

func TestRenderMemberContext(t *testing.T) {
	weight := 82.5
	hours := 40.0
	lastWorkout := int64(1770000000)
	snapshot := &store.MemberContextSnapshot{
		MemberID:         1,
		FitnessLevel:     store.FitnessLevelIntermediate,
		TrainingAgeYears: 2.5,
		WeightKg:         &weight,
		Goals: []store.SnapshotGoal{
			{Title: "Bench 100kg", Category: store.GoalCategoryStrength, Unit: "kg", TargetValue: 100, CurrentValue: 85, ProgressPercent: 85},
		},
		Limitations: []store.SnapshotLimitation{
			{Type: store.LimitationTypeInjury, Description: "left knee pain", Severity: store.LimitationSeverityModerate, BodyAreas: []string{"knee"}},
		},
		PersonalRecords: []store.SnapshotRecord{
			{ExerciseName: "Deadlift", Value: 180, Unit: "kg"},
		},
		Skills: []store.SnapshotSkill{
			{Name: "Pull-up", Status: store.SkillStatusAchieved},
		},
		MuscleRecovery: map[string]store.SnapshotRecovery{
			"chest":      {Status: "recovering", HoursSinceWorked: &hours},
			"quadriceps": {Status: "ready", ReadyToTrain: true},
		},
		WeeklyWorkoutAvg:      3.5,
		AvgWorkoutDurationMin: 48,
		LastWorkoutTs:         &lastWorkout,
		DeloadRecommended:     true,
		UpdatedTs:             1770000000,
	}

	text := renderMemberContext(snapshot)

	assert.Contains(t, text, "intermediate, 2.5 years of training, 82.5 kg")
	assert.Contains(t, text, "Bench 100kg (strength): 85% there (85 of 100 kg)")
	assert.Contains(t, text, "left knee pain (injury, moderate; affects knee)")
	assert.Contains(t, text, "Deadlift 180kg")
	assert.Contains(t, text, "Pull-up (achieved)")
	assert.Contains(t, text, "ready: quadriceps")
	assert.Contains(t, text, "recovering: chest (40h ago)")
	assert.Contains(t, text, "3.5 workouts/week, 48 min average")
	assert.Contains(t, text, "deload week is recommended")
}

func TestRenderMemberContext_Nil(t *testing.T) {
	assert.Equal(t, "Member context: unavailable this turn.\n\n", renderMemberContext(nil))
}

func TestRenderMemories(t *testing.T) {
	notes := []*store.MemoryNote{
		{Content: "prefers kettlebell work over barbells"},
		{Content: "trains before work, mornings only"},
	}

	text := renderMemories(notes)

	assert.Contains(t, text, "Remembered about this member:")
	assert.Contains(t, text, "- prefers kettlebell work over barbells")
	assert.Contains(t, text, "- trains before work, mornings only")

	assert.Empty(t, renderMemories(nil))
}

func TestRenderSlots(t *testing.T) {
	duration := 30
	slots := store.CoachSlots{
		DurationMinutes: &duration,
		Energy:          "low",
		Focus:           "legs",
	}

	text := renderSlots(slots)

	assert.Contains(t, text, "duration=30 min")
	assert.Contains(t, text, "energy=low")
	assert.Contains(t, text, "focus=legs")
	assert.NotContains(t, text, "location=")

	assert.Equal(t, "Collected slots: none yet.\n\n", renderSlots(store.CoachSlots{}))
}
