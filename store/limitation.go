package store

// LimitationType classifies a physical limitation.
type LimitationType string

const (
	LimitationTypeInjury    LimitationType = "injury"
	LimitationTypeCondition LimitationType = "condition"
	LimitationTypeMobility  LimitationType = "mobility"
	LimitationTypeEquipment LimitationType = "equipment"
)

// LimitationSeverity grades how restrictive a limitation is.
type LimitationSeverity string

const (
	LimitationSeverityMild     LimitationSeverity = "mild"
	LimitationSeverityModerate LimitationSeverity = "moderate"
	LimitationSeveritySevere   LimitationSeverity = "severe"
)

type Limitation struct {
	Type        LimitationType
	Description string
	Severity    LimitationSeverity
	BodyAreas   []string
	CreatedTs   int64
	UpdatedTs   int64
	ID          int32
	MemberID    int32
	Active      bool
}

type CreateLimitation struct {
	Type        LimitationType
	Description string
	Severity    LimitationSeverity
	BodyAreas   []string
	MemberID    int32
}

type FindLimitation struct {
	ID       *int32
	MemberID *int32
	Active   *bool
}

type UpdateLimitation struct {
	Description *string
	Severity    *LimitationSeverity
	Active      *bool
	ID          int32
}
