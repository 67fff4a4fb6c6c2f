package store

// WorkoutSession is one logged workout. A session counts as completed
// once EndedTs is set; recovery and snapshot aggregation only consider
// completed sessions.
type WorkoutSession struct {
	Title       string
	Notes       string
	RowStatus   RowStatus
	CreatedTs   int64
	StartedTs   int64
	EndedTs     *int64
	DurationMin int32
	ID          int32
	MemberID    int32
}

// SessionExercise joins a session to a catalog exercise with the
// performed volume. ExerciseName and MuscleGroups are populated from
// the catalog on list.
type SessionExercise struct {
	ExerciseName string
	MuscleGroups []string
	WeightKg     *float64
	ID           int32
	SessionID    int32
	ExerciseID   int32
	Sets         int32
	Reps         int32
	OrderIndex   int32
}

type SessionExerciseInput struct {
	WeightKg   *float64
	ExerciseID int32
	Sets       int32
	Reps       int32
}

type CreateWorkoutSession struct {
	Title     string
	Notes     string
	Exercises []SessionExerciseInput
	StartedTs int64
	// EndedTs may be set on create when a finished workout is logged in
	// one call.
	EndedTs  *int64
	MemberID int32
}

type CompleteWorkoutSession struct {
	ID      int32
	EndedTs int64
}

// FindWorkoutSession lists sessions newest first (by end time for
// completed sessions, start time otherwise).
type FindWorkoutSession struct {
	ID             *int32
	MemberID       *int32
	CompletedOnly  bool
	CompletedAfter *int64
	Limit          *int
}

type FindSessionExercise struct {
	SessionIDs []int32
}

// WorkoutStats aggregates completed sessions since a cutoff.
type WorkoutStats struct {
	CompletedCount  int32
	AvgDurationMin  float64
	LastCompletedTs *int64
}

type FindWorkoutStats struct {
	MemberID int32
	SinceTs  int64
}
