package store

// FitnessLevel is a member's self-assessed training level.
type FitnessLevel string

const (
	FitnessLevelBeginner     FitnessLevel = "beginner"
	FitnessLevelIntermediate FitnessLevel = "intermediate"
	FitnessLevelAdvanced     FitnessLevel = "advanced"
)

type Member struct {
	Username         string
	DisplayName      string
	FitnessLevel     FitnessLevel
	RowStatus        RowStatus
	CreatedTs        int64
	UpdatedTs        int64
	ID               int32
	TrainingAgeYears float64
	WeightKg         *float64
	BodyFatPct       *float64
}

type CreateMember struct {
	Username         string
	DisplayName      string
	FitnessLevel     FitnessLevel
	TrainingAgeYears float64
	WeightKg         *float64
	BodyFatPct       *float64
}

type FindMember struct {
	ID        *int32
	Username  *string
	RowStatus *RowStatus
}

type UpdateMember struct {
	DisplayName      *string
	FitnessLevel     *FitnessLevel
	TrainingAgeYears *float64
	WeightKg         *float64
	BodyFatPct       *float64
	RowStatus        *RowStatus
	ID               int32
}
