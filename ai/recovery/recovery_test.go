package recovery

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hoursAgo(now time.Time, h float64) time.Time {
	return now.Add(-time.Duration(h * float64(time.Hour)))
}

func TestClassify_NoActivityAllReady(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	result := Classify(nil, now)

	require.Len(t, result, len(Muscles()))
	for _, muscle := range Muscles() {
		r, ok := result[muscle]
		require.True(t, ok, "missing muscle %s", muscle)
		assert.Equal(t, StatusReady, r.Status)
		assert.True(t, r.ReadyToTrain)
		assert.Nil(t, r.HoursSinceWorked, "never-worked muscle must carry no elapsed hours")
	}
}

func TestClassify_Thresholds(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		muscle     string
		elapsed    float64
		wantStatus Status
		wantReady  bool
	}{
		{"chest exactly at required is ready", MuscleChest, 48, StatusReady, true},
		{"chest beyond required is ready", MuscleChest, 80, StatusReady, true},
		{"chest exactly at 0.75x required is recovering", MuscleChest, 36, StatusRecovering, false},
		{"chest just below 0.75x required is fatigued", MuscleChest, 35.9, StatusFatigued, false},
		{"chest just worked is fatigued", MuscleChest, 1, StatusFatigued, false},
		{"quadriceps at 54h is recovering", MuscleQuadriceps, 54, StatusRecovering, false},
		{"calves at 24h is ready", MuscleCalves, 24, StatusReady, true},
		{"core at 18h is recovering", MuscleCore, 18, StatusRecovering, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			activity := []Activity{
				{Date: hoursAgo(now, tt.elapsed), Muscles: []string{tt.muscle}},
			}

			result := Classify(activity, now)

			r := result[tt.muscle]
			assert.Equal(t, tt.wantStatus, r.Status)
			assert.Equal(t, tt.wantReady, r.ReadyToTrain)
			require.NotNil(t, r.HoursSinceWorked)
			assert.InDelta(t, tt.elapsed, *r.HoursSinceWorked, 0.01)
		})
	}
}

func TestClassify_MostRecentActivityWins(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	activity := []Activity{
		{Date: hoursAgo(now, 100), Muscles: []string{MuscleChest}},
		{Date: hoursAgo(now, 10), Muscles: []string{MuscleChest}},
	}

	result := Classify(activity, now)

	r := result[MuscleChest]
	assert.Equal(t, StatusFatigued, r.Status)
	require.NotNil(t, r.HoursSinceWorked)
	assert.InDelta(t, 10, *r.HoursSinceWorked, 0.01)
}

func TestClassify_BoundsToSevenMostRecentSessions(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	// Seven recent back sessions push an older chest session out of the
	// considered window entirely.
	activity := []Activity{
		{Date: hoursAgo(now, 200), Muscles: []string{MuscleChest}},
	}
	for i := 0; i < 7; i++ {
		activity = append(activity, Activity{
			Date:    hoursAgo(now, float64(10+i)),
			Muscles: []string{MuscleBack},
		})
	}

	result := Classify(activity, now)

	chest := result[MuscleChest]
	assert.Equal(t, StatusReady, chest.Status)
	assert.Nil(t, chest.HoursSinceWorked, "activity outside the 7-session window must not count")

	back := result[MuscleBack]
	require.NotNil(t, back.HoursSinceWorked)
	assert.InDelta(t, 10, *back.HoursSinceWorked, 0.01)
}

func TestClassify_IgnoresUnknownMuscles(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	activity := []Activity{
		{Date: hoursAgo(now, 5), Muscles: []string{"forearms", MuscleBiceps}},
	}

	result := Classify(activity, now)

	_, ok := result["forearms"]
	assert.False(t, ok)
	assert.Equal(t, StatusFatigued, result[MuscleBiceps].Status)
}

func TestRequiredHours(t *testing.T) {
	h, ok := RequiredHours(MuscleHamstrings)
	require.True(t, ok)
	assert.Equal(t, float64(72), h)

	_, ok = RequiredHours("neck")
	assert.False(t, ok)
}
