package store

import (
	"context"
	"fmt"
	"time"

	"github.com/repcircle/repcircle/internal/profile"
	"github.com/repcircle/repcircle/store/cache"
)

// Store provides database access to all raw objects.
type Store struct {
	profile *profile.Profile
	driver  Driver

	// Snapshot reads are hot (every coaching turn and several web views
	// hit them), so they sit behind a short-TTL cache. The TTL is a
	// burst absorber only: the entry is replaced on every upsert so a
	// read right after a write observes the new version.
	snapshotCache    *cache.Cache
	snapshotCacheTTL time.Duration

	memberCache *cache.Cache
}

// New creates a new instance of Store.
func New(driver Driver, profile *profile.Profile) *Store {
	snapshotTTL := 30 * time.Second
	if profile != nil && profile.SnapshotCacheTTLSeconds > 0 {
		snapshotTTL = time.Duration(profile.SnapshotCacheTTLSeconds) * time.Second
	}

	store := &Store{
		driver:  driver,
		profile: profile,
		snapshotCache: cache.New(cache.Config{
			DefaultTTL:      snapshotTTL,
			CleanupInterval: time.Minute,
			MaxItems:        4096,
		}),
		snapshotCacheTTL: snapshotTTL,
		memberCache: cache.New(cache.Config{
			DefaultTTL:      10 * time.Minute,
			CleanupInterval: 5 * time.Minute,
			MaxItems:        4096,
		}),
	}

	return store
}

func (s *Store) GetDriver() Driver {
	return s.driver
}

func (s *Store) Close() error {
	// Stop all cache cleanup goroutines
	s.snapshotCache.Close()
	s.memberCache.Close()

	return s.driver.Close()
}

func snapshotCacheKey(memberID int32) string {
	return fmt.Sprintf("snapshot:%d", memberID)
}

func memberCacheKey(memberID int32) string {
	return fmt.Sprintf("member:%d", memberID)
}

// Member

func (s *Store) CreateMember(ctx context.Context, create *CreateMember) (*Member, error) {
	return s.driver.CreateMember(ctx, create)
}

func (s *Store) GetMember(ctx context.Context, find *FindMember) (*Member, error) {
	if find.ID != nil && find.Username == nil && find.RowStatus == nil {
		if v, ok := s.memberCache.Get(memberCacheKey(*find.ID)); ok {
			return v.(*Member), nil
		}
	}
	member, err := s.driver.GetMember(ctx, find)
	if err != nil {
		return nil, err
	}
	if member != nil {
		s.memberCache.Set(memberCacheKey(member.ID), member)
	}
	return member, nil
}

func (s *Store) UpdateMember(ctx context.Context, update *UpdateMember) (*Member, error) {
	member, err := s.driver.UpdateMember(ctx, update)
	if err != nil {
		return nil, err
	}
	s.memberCache.Delete(memberCacheKey(update.ID))
	return member, nil
}

// FitnessGoal

func (s *Store) CreateFitnessGoal(ctx context.Context, create *CreateFitnessGoal) (*FitnessGoal, error) {
	return s.driver.CreateFitnessGoal(ctx, create)
}

func (s *Store) ListFitnessGoals(ctx context.Context, find *FindFitnessGoal) ([]*FitnessGoal, error) {
	return s.driver.ListFitnessGoals(ctx, find)
}

func (s *Store) UpdateFitnessGoal(ctx context.Context, update *UpdateFitnessGoal) (*FitnessGoal, error) {
	return s.driver.UpdateFitnessGoal(ctx, update)
}

// Limitation

func (s *Store) CreateLimitation(ctx context.Context, create *CreateLimitation) (*Limitation, error) {
	return s.driver.CreateLimitation(ctx, create)
}

func (s *Store) ListLimitations(ctx context.Context, find *FindLimitation) ([]*Limitation, error) {
	return s.driver.ListLimitations(ctx, find)
}

func (s *Store) UpdateLimitation(ctx context.Context, update *UpdateLimitation) (*Limitation, error) {
	return s.driver.UpdateLimitation(ctx, update)
}

// PersonalRecord

func (s *Store) CreatePersonalRecord(ctx context.Context, create *CreatePersonalRecord) (*PersonalRecord, error) {
	return s.driver.CreatePersonalRecord(ctx, create)
}

func (s *Store) ListPersonalRecords(ctx context.Context, find *FindPersonalRecord) ([]*PersonalRecord, error) {
	return s.driver.ListPersonalRecords(ctx, find)
}

// Skill

func (s *Store) CreateSkill(ctx context.Context, create *CreateSkill) (*Skill, error) {
	return s.driver.CreateSkill(ctx, create)
}

func (s *Store) ListSkills(ctx context.Context, find *FindSkill) ([]*Skill, error) {
	return s.driver.ListSkills(ctx, find)
}

// Exercise

func (s *Store) CreateExercise(ctx context.Context, create *CreateExercise) (*Exercise, error) {
	return s.driver.CreateExercise(ctx, create)
}

func (s *Store) ListExercises(ctx context.Context, find *FindExercise) ([]*Exercise, error) {
	return s.driver.ListExercises(ctx, find)
}

// WorkoutSession

func (s *Store) CreateWorkoutSession(ctx context.Context, create *CreateWorkoutSession) (*WorkoutSession, error) {
	return s.driver.CreateWorkoutSession(ctx, create)
}

func (s *Store) CompleteWorkoutSession(ctx context.Context, complete *CompleteWorkoutSession) (*WorkoutSession, error) {
	return s.driver.CompleteWorkoutSession(ctx, complete)
}

func (s *Store) ListWorkoutSessions(ctx context.Context, find *FindWorkoutSession) ([]*WorkoutSession, error) {
	return s.driver.ListWorkoutSessions(ctx, find)
}

func (s *Store) ListSessionExercises(ctx context.Context, find *FindSessionExercise) ([]*SessionExercise, error) {
	return s.driver.ListSessionExercises(ctx, find)
}

func (s *Store) GetWorkoutStats(ctx context.Context, find *FindWorkoutStats) (*WorkoutStats, error) {
	return s.driver.GetWorkoutStats(ctx, find)
}

// MemberContextSnapshot

func (s *Store) GetMemberContextSnapshot(ctx context.Context, find *FindMemberContextSnapshot) (*MemberContextSnapshot, error) {
	key := snapshotCacheKey(find.MemberID)
	if v, ok := s.snapshotCache.Get(key); ok {
		return v.(*MemberContextSnapshot), nil
	}
	snapshot, err := s.driver.GetMemberContextSnapshot(ctx, find)
	if err != nil {
		return nil, err
	}
	// Absence is not cached: an absent snapshot triggers recomputation
	// and the next read should see the freshly written row.
	if snapshot != nil {
		s.snapshotCache.SetWithTTL(key, snapshot, s.snapshotCacheTTL)
	}
	return snapshot, nil
}

func (s *Store) UpsertMemberContextSnapshot(ctx context.Context, upsert *UpsertMemberContextSnapshot) (*MemberContextSnapshot, error) {
	snapshot, err := s.driver.UpsertMemberContextSnapshot(ctx, upsert)
	if err != nil {
		return nil, err
	}
	s.snapshotCache.SetWithTTL(snapshotCacheKey(upsert.MemberID), snapshot, s.snapshotCacheTTL)
	return snapshot, nil
}

func (s *Store) ListSnapshotRefreshCandidates(ctx context.Context, find *FindSnapshotRefreshCandidates) ([]int32, error) {
	return s.driver.ListSnapshotRefreshCandidates(ctx, find)
}

func (s *Store) DeleteMemberContextSnapshot(ctx context.Context, memberID int32) error {
	if err := s.driver.DeleteMemberContextSnapshot(ctx, memberID); err != nil {
		return err
	}
	s.snapshotCache.Delete(snapshotCacheKey(memberID))
	return nil
}

// CoachConversation

func (s *Store) CreateCoachConversation(ctx context.Context, create *CreateCoachConversation) (*CoachConversation, error) {
	return s.driver.CreateCoachConversation(ctx, create)
}

func (s *Store) GetCoachConversation(ctx context.Context, find *FindCoachConversation) (*CoachConversation, error) {
	return s.driver.GetCoachConversation(ctx, find)
}

func (s *Store) ListCoachConversations(ctx context.Context, find *FindCoachConversation) ([]*CoachConversation, error) {
	return s.driver.ListCoachConversations(ctx, find)
}

func (s *Store) UpdateCoachConversation(ctx context.Context, update *UpdateCoachConversation) (*CoachConversation, error) {
	return s.driver.UpdateCoachConversation(ctx, update)
}

func (s *Store) CreateCoachTurn(ctx context.Context, create *CreateCoachTurn) (*CoachTurn, error) {
	return s.driver.CreateCoachTurn(ctx, create)
}

func (s *Store) ListCoachTurns(ctx context.Context, find *FindCoachTurn) ([]*CoachTurn, error) {
	return s.driver.ListCoachTurns(ctx, find)
}

// ConversationThread

func (s *Store) GetConversationThread(ctx context.Context, conversationID int32) (*ConversationThread, error) {
	return s.driver.GetConversationThread(ctx, conversationID)
}

func (s *Store) UpsertConversationThread(ctx context.Context, upsert *UpsertConversationThread) (*ConversationThread, error) {
	return s.driver.UpsertConversationThread(ctx, upsert)
}

// MemoryNote

func (s *Store) CreateMemoryNote(ctx context.Context, create *CreateMemoryNote) (*MemoryNote, error) {
	return s.driver.CreateMemoryNote(ctx, create)
}

func (s *Store) ListMemoryNotes(ctx context.Context, find *FindMemoryNote) ([]*MemoryNote, error) {
	return s.driver.ListMemoryNotes(ctx, find)
}

func (s *Store) DeleteMemoryNote(ctx context.Context, delete *DeleteMemoryNote) error {
	return s.driver.DeleteMemoryNote(ctx, delete)
}

func (s *Store) UpsertMemoryNoteEmbedding(ctx context.Context, upsert *UpsertMemoryNoteEmbedding) error {
	return s.driver.UpsertMemoryNoteEmbedding(ctx, upsert)
}

func (s *Store) SearchMemoryNotes(ctx context.Context, search *SearchMemoryNotes) ([]*MemoryNoteSearchResult, error) {
	return s.driver.SearchMemoryNotes(ctx, search)
}

// EndpointCooldown

func (s *Store) TryAcquireEndpointCooldown(ctx context.Context, acquire *TryAcquireEndpointCooldown) (*EndpointCooldown, error) {
	return s.driver.TryAcquireEndpointCooldown(ctx, acquire)
}

func (s *Store) GetEndpointCooldown(ctx context.Context, name string) (*EndpointCooldown, error) {
	return s.driver.GetEndpointCooldown(ctx, name)
}
