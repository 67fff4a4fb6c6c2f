package store

// Exercise is a catalog entry. Muscle group names follow the recovery
// model catalog (chest, back, shoulders, biceps, triceps, quadriceps,
// hamstrings, glutes, calves, core).
type Exercise struct {
	Name         string
	Category     string
	MuscleGroups []string
	Equipment    []string
	CreatedTs    int64
	ID           int32
}

type CreateExercise struct {
	Name         string
	Category     string
	MuscleGroups []string
	Equipment    []string
}

type FindExercise struct {
	ID    *int32
	IDs   []int32
	Name  *string
	Limit *int
}
