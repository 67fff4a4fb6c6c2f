package store

// SkillStatus tracks progression on a movement skill.
type SkillStatus string

const (
	SkillStatusGoal      SkillStatus = "goal"
	SkillStatusWorkingOn SkillStatus = "working_on"
	SkillStatusAchieved  SkillStatus = "achieved"
)

type Skill struct {
	Name      string
	Category  string
	Status    SkillStatus
	CreatedTs int64
	UpdatedTs int64
	ID        int32
	MemberID  int32
}

type CreateSkill struct {
	Name     string
	Category string
	Status   SkillStatus
	MemberID int32
}

type FindSkill struct {
	MemberID *int32
	Status   *SkillStatus
}
