package store

import (
	"context"
	"database/sql"
)

// Driver is an interface for store driver.
// It contains all methods that store database driver should implement.
type Driver interface {
	GetDB() *sql.DB
	Type() string
	Close() error

	IsInitialized(ctx context.Context) (bool, error)

	// MigrationHistory
	FindMigrationHistoryList(ctx context.Context, find *FindMigrationHistory) ([]*MigrationHistory, error)
	UpsertMigrationHistory(ctx context.Context, upsert *UpsertMigrationHistory) (*MigrationHistory, error)

	// Member
	CreateMember(ctx context.Context, create *CreateMember) (*Member, error)
	GetMember(ctx context.Context, find *FindMember) (*Member, error)
	UpdateMember(ctx context.Context, update *UpdateMember) (*Member, error)

	// FitnessGoal
	CreateFitnessGoal(ctx context.Context, create *CreateFitnessGoal) (*FitnessGoal, error)
	ListFitnessGoals(ctx context.Context, find *FindFitnessGoal) ([]*FitnessGoal, error)
	UpdateFitnessGoal(ctx context.Context, update *UpdateFitnessGoal) (*FitnessGoal, error)

	// Limitation
	CreateLimitation(ctx context.Context, create *CreateLimitation) (*Limitation, error)
	ListLimitations(ctx context.Context, find *FindLimitation) ([]*Limitation, error)
	UpdateLimitation(ctx context.Context, update *UpdateLimitation) (*Limitation, error)

	// PersonalRecord
	CreatePersonalRecord(ctx context.Context, create *CreatePersonalRecord) (*PersonalRecord, error)
	ListPersonalRecords(ctx context.Context, find *FindPersonalRecord) ([]*PersonalRecord, error)

	// Skill
	CreateSkill(ctx context.Context, create *CreateSkill) (*Skill, error)
	ListSkills(ctx context.Context, find *FindSkill) ([]*Skill, error)

	// Exercise catalog
	CreateExercise(ctx context.Context, create *CreateExercise) (*Exercise, error)
	ListExercises(ctx context.Context, find *FindExercise) ([]*Exercise, error)

	// WorkoutSession
	CreateWorkoutSession(ctx context.Context, create *CreateWorkoutSession) (*WorkoutSession, error)
	CompleteWorkoutSession(ctx context.Context, complete *CompleteWorkoutSession) (*WorkoutSession, error)
	ListWorkoutSessions(ctx context.Context, find *FindWorkoutSession) ([]*WorkoutSession, error)
	ListSessionExercises(ctx context.Context, find *FindSessionExercise) ([]*SessionExercise, error)
	GetWorkoutStats(ctx context.Context, find *FindWorkoutStats) (*WorkoutStats, error)

	// MemberContextSnapshot
	GetMemberContextSnapshot(ctx context.Context, find *FindMemberContextSnapshot) (*MemberContextSnapshot, error)
	UpsertMemberContextSnapshot(ctx context.Context, upsert *UpsertMemberContextSnapshot) (*MemberContextSnapshot, error)
	ListSnapshotRefreshCandidates(ctx context.Context, find *FindSnapshotRefreshCandidates) ([]int32, error)
	DeleteMemberContextSnapshot(ctx context.Context, memberID int32) error

	// CoachConversation
	CreateCoachConversation(ctx context.Context, create *CreateCoachConversation) (*CoachConversation, error)
	GetCoachConversation(ctx context.Context, find *FindCoachConversation) (*CoachConversation, error)
	ListCoachConversations(ctx context.Context, find *FindCoachConversation) ([]*CoachConversation, error)
	UpdateCoachConversation(ctx context.Context, update *UpdateCoachConversation) (*CoachConversation, error)
	CreateCoachTurn(ctx context.Context, create *CreateCoachTurn) (*CoachTurn, error)
	ListCoachTurns(ctx context.Context, find *FindCoachTurn) ([]*CoachTurn, error)

	// ConversationThread
	GetConversationThread(ctx context.Context, conversationID int32) (*ConversationThread, error)
	UpsertConversationThread(ctx context.Context, upsert *UpsertConversationThread) (*ConversationThread, error)

	// MemoryNote
	CreateMemoryNote(ctx context.Context, create *CreateMemoryNote) (*MemoryNote, error)
	ListMemoryNotes(ctx context.Context, find *FindMemoryNote) ([]*MemoryNote, error)
	DeleteMemoryNote(ctx context.Context, delete *DeleteMemoryNote) error
	UpsertMemoryNoteEmbedding(ctx context.Context, upsert *UpsertMemoryNoteEmbedding) error
	SearchMemoryNotes(ctx context.Context, search *SearchMemoryNotes) ([]*MemoryNoteSearchResult, error)

	// EndpointCooldown
	TryAcquireEndpointCooldown(ctx context.Context, acquire *TryAcquireEndpointCooldown) (*EndpointCooldown, error)
	GetEndpointCooldown(ctx context.Context, name string) (*EndpointCooldown, error)
}
