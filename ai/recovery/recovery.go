// Package recovery models per-muscle physiological recovery from
// recent workout activity. Classification is a pure function of the
// supplied activity and clock, with no storage or provider calls.
package recovery

import (
	"sort"
	"time"
)

// Tracked muscle groups. Exercise catalog rows reference these names.
const (
	MuscleChest      = "chest"
	MuscleBack       = "back"
	MuscleShoulders  = "shoulders"
	MuscleBiceps     = "biceps"
	MuscleTriceps    = "triceps"
	MuscleQuadriceps = "quadriceps"
	MuscleHamstrings = "hamstrings"
	MuscleGlutes     = "glutes"
	MuscleCalves     = "calves"
	MuscleCore       = "core"
)

// requiredRecoveryHours is fixed domain knowledge: large muscle groups
// need 48-72h between sessions, small groups and core 24-36h.
var requiredRecoveryHours = map[string]float64{
	MuscleChest:      48,
	MuscleBack:       48,
	MuscleShoulders:  48,
	MuscleBiceps:     36,
	MuscleTriceps:    36,
	MuscleQuadriceps: 72,
	MuscleHamstrings: 72,
	MuscleGlutes:     48,
	MuscleCalves:     24,
	MuscleCore:       24,
}

// muscleOrder keeps catalog iteration deterministic for prompts and
// rendered views.
var muscleOrder = []string{
	MuscleChest,
	MuscleBack,
	MuscleShoulders,
	MuscleBiceps,
	MuscleTriceps,
	MuscleQuadriceps,
	MuscleHamstrings,
	MuscleGlutes,
	MuscleCalves,
	MuscleCore,
}

// Muscles returns the catalog in stable order.
func Muscles() []string {
	out := make([]string, len(muscleOrder))
	copy(out, muscleOrder)
	return out
}

// RequiredHours returns the recovery constant for a catalog muscle.
func RequiredHours(muscle string) (float64, bool) {
	h, ok := requiredRecoveryHours[muscle]
	return h, ok
}

// Status is a muscle group's 3-state readiness classification.
type Status string

const (
	StatusReady      Status = "ready"
	StatusRecovering Status = "recovering"
	StatusFatigued   Status = "fatigued"
)

// Activity is one completed workout's date and the muscle groups it
// worked.
type Activity struct {
	Date    time.Time
	Muscles []string
}

// Readiness is the classification for one muscle group.
// HoursSinceWorked is nil when the muscle has no recorded activity in
// the considered window; the elapsed time is conceptually infinite,
// which a number cannot carry.
type Readiness struct {
	HoursSinceWorked *float64
	Status           Status
	ReadyToTrain     bool
}

// maxSessions bounds how much history the classification considers.
// Recent work dominates recovery state; the cap also keeps the
// computation O(muscles x sessions) regardless of a member's logging
// history.
const maxSessions = 7

// recoveringFraction is the share of the required hours past which a
// muscle counts as recovering rather than fatigued.
const recoveringFraction = 0.75

// Classify maps recent workout activity to a readiness classification
// for every muscle in the catalog. It is deterministic: the caller
// supplies now so tests control the clock. A muscle is ready when
// elapsed >= required, recovering when elapsed >= 0.75 x required, and
// fatigued otherwise; ReadyToTrain holds exactly for ready. Muscle
// names outside the catalog are ignored.
func Classify(activity []Activity, now time.Time) map[string]Readiness {
	lastWorked := make(map[string]time.Time, len(requiredRecoveryHours))
	for _, a := range boundRecent(activity) {
		for _, muscle := range a.Muscles {
			if _, ok := requiredRecoveryHours[muscle]; !ok {
				continue
			}
			if prev, ok := lastWorked[muscle]; !ok || a.Date.After(prev) {
				lastWorked[muscle] = a.Date
			}
		}
	}

	result := make(map[string]Readiness, len(requiredRecoveryHours))
	for muscle, required := range requiredRecoveryHours {
		last, worked := lastWorked[muscle]
		if !worked {
			result[muscle] = Readiness{Status: StatusReady, ReadyToTrain: true}
			continue
		}

		elapsed := now.Sub(last).Hours()
		status := StatusFatigued
		switch {
		case elapsed >= required:
			status = StatusReady
		case elapsed >= recoveringFraction*required:
			status = StatusRecovering
		}
		hours := elapsed
		result[muscle] = Readiness{
			HoursSinceWorked: &hours,
			Status:           status,
			ReadyToTrain:     status == StatusReady,
		}
	}
	return result
}

// boundRecent keeps the maxSessions most recent activities.
func boundRecent(activity []Activity) []Activity {
	if len(activity) <= maxSessions {
		return activity
	}
	sorted := make([]Activity, len(activity))
	copy(sorted, activity)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Date.After(sorted[j].Date)
	})
	return sorted[:maxSessions]
}
