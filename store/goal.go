package store

// GoalCategory groups fitness goals for coaching context.
type GoalCategory string

const (
	GoalCategoryStrength   GoalCategory = "strength"
	GoalCategoryEndurance  GoalCategory = "endurance"
	GoalCategoryWeightLoss GoalCategory = "weight_loss"
	GoalCategoryMuscleGain GoalCategory = "muscle_gain"
	GoalCategorySkill      GoalCategory = "skill"
	GoalCategoryHabit      GoalCategory = "habit"
)

type FitnessGoal struct {
	Title        string
	Category     GoalCategory
	Unit         string
	RowStatus    RowStatus
	CreatedTs    int64
	UpdatedTs    int64
	TargetDate   *int64
	TargetValue  float64
	CurrentValue float64
	ID           int32
	MemberID     int32
}

type CreateFitnessGoal struct {
	Title        string
	Category     GoalCategory
	Unit         string
	TargetDate   *int64
	TargetValue  float64
	CurrentValue float64
	MemberID     int32
}

type FindFitnessGoal struct {
	ID        *int32
	MemberID  *int32
	RowStatus *RowStatus
	Limit     *int
}

type UpdateFitnessGoal struct {
	Title        *string
	CurrentValue *float64
	TargetValue  *float64
	TargetDate   *int64
	RowStatus    *RowStatus
	ID           int32
}
