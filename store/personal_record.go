package store

type PersonalRecord struct {
	ExerciseName string
	Unit         string
	CreatedTs    int64
	AchievedTs   int64
	Value        float64
	RepMax       *int32
	ID           int32
	MemberID     int32
}

type CreatePersonalRecord struct {
	ExerciseName string
	Unit         string
	AchievedTs   int64
	Value        float64
	RepMax       *int32
	MemberID     int32
}

// FindPersonalRecord lists records ordered by achieved time, newest first.
type FindPersonalRecord struct {
	MemberID *int32
	Limit    *int
}
