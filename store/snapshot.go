package store

// MemberContextSnapshot is the materialized coaching context for one
// member, one row per member. It is a cache over the source tables,
// never the source of truth: the version counter increments by exactly
// one on every successful write, and UpdatedTs always reflects write
// time. Absence of a row means "never computed", which is distinct
// from a stale row.
//
// The list-valued fields are stored as JSON documents on the row so a
// read is a single indexed lookup with no joins.
type MemberContextSnapshot struct {
	FitnessLevel          FitnessLevel                `json:"fitnessLevel"`
	Limitations           []SnapshotLimitation        `json:"limitations"`
	Goals                 []SnapshotGoal              `json:"goals"`
	PersonalRecords       []SnapshotRecord            `json:"personalRecords"`
	Skills                []SnapshotSkill             `json:"skills"`
	MuscleRecovery        map[string]SnapshotRecovery `json:"muscleRecovery"`
	TrainingAgeYears      float64                     `json:"trainingAgeYears"`
	WeightKg              *float64                    `json:"weightKg"`
	BodyFatPct            *float64                    `json:"bodyFatPct"`
	WeeklyWorkoutAvg      float64                     `json:"weeklyWorkoutAvg"`
	AvgWorkoutDurationMin float64                     `json:"avgWorkoutDurationMin"`
	DeloadRecommended     bool                        `json:"deloadRecommended"`
	LastWorkoutTs         *int64                      `json:"lastWorkoutTs"`
	UpdatedTs             int64                       `json:"updatedTs"`
	Version               int32                       `json:"version"`
	MemberID              int32                       `json:"memberId"`
}

// SnapshotLimitation is the denormalized limitation shape stored on the
// snapshot row, ordered by severity then recency.
type SnapshotLimitation struct {
	Type        LimitationType     `json:"type"`
	Description string             `json:"description"`
	Severity    LimitationSeverity `json:"severity"`
	BodyAreas   []string           `json:"bodyAreas,omitempty"`
}

// SnapshotGoal carries an active goal plus its computed progress
// percent, clamped to [0,100].
type SnapshotGoal struct {
	Title           string       `json:"title"`
	Category        GoalCategory `json:"category"`
	Unit            string       `json:"unit,omitempty"`
	TargetValue     float64      `json:"targetValue"`
	CurrentValue    float64      `json:"currentValue"`
	ProgressPercent float64      `json:"progressPercent"`
	TargetDate      *int64       `json:"targetDate,omitempty"`
	ID              int32        `json:"id"`
}

type SnapshotRecord struct {
	ExerciseName string  `json:"exerciseName"`
	Unit         string  `json:"unit,omitempty"`
	Value        float64 `json:"value"`
	RepMax       *int32  `json:"repMax,omitempty"`
	AchievedTs   int64   `json:"achievedTs"`
}

type SnapshotSkill struct {
	Name     string      `json:"name"`
	Status   SkillStatus `json:"status"`
	Category string      `json:"category,omitempty"`
}

// SnapshotRecovery is one muscle group's readiness classification.
// HoursSinceWorked is null when the muscle has no recorded activity in
// the considered window (conceptually infinite rest).
type SnapshotRecovery struct {
	Status           string   `json:"status"`
	HoursSinceWorked *float64 `json:"hoursSinceWorked"`
	ReadyToTrain     bool     `json:"readyToTrain"`
}

// UpsertMemberContextSnapshot writes a freshly computed snapshot. The
// driver assigns Version (1 on insert, previous+1 on conflict) and
// UpdatedTs atomically in the upsert statement.
type UpsertMemberContextSnapshot struct {
	FitnessLevel          FitnessLevel
	Limitations           []SnapshotLimitation
	Goals                 []SnapshotGoal
	PersonalRecords       []SnapshotRecord
	Skills                []SnapshotSkill
	MuscleRecovery        map[string]SnapshotRecovery
	TrainingAgeYears      float64
	WeightKg              *float64
	BodyFatPct            *float64
	WeeklyWorkoutAvg      float64
	AvgWorkoutDurationMin float64
	DeloadRecommended     bool
	LastWorkoutTs         *int64
	UpdatedTs             int64
	MemberID              int32
}

type FindMemberContextSnapshot struct {
	MemberID int32
}

// FindSnapshotRefreshCandidates selects members whose snapshot is
// absent or older than StaleBeforeTs, oldest snapshots first so the
// most out-of-date members are refreshed before the budget runs out.
type FindSnapshotRefreshCandidates struct {
	StaleBeforeTs int64
	Limit         int
}
