package coach

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/repcircle/repcircle/ai/memory"
	"github.com/repcircle/repcircle/store"
)

// Data tools the decision schema can request by name.
const (
	ToolRecentWorkouts  = "recent_workouts"
	ToolGoalProgress    = "goal_progress"
	ToolPersonalRecords = "personal_records"
	ToolRecoveryStatus  = "recovery_status"
	ToolSaveMemory      = "save_memory"
)

const recentWorkoutLimit = 5

// ToolStore is the read surface the data tools pull from. Tools read
// live so they can surface data fresher than the snapshot.
type ToolStore interface {
	ListWorkoutSessions(ctx context.Context, find *store.FindWorkoutSession) ([]*store.WorkoutSession, error)
	ListSessionExercises(ctx context.Context, find *store.FindSessionExercise) ([]*store.SessionExercise, error)
	ListFitnessGoals(ctx context.Context, find *store.FindFitnessGoal) ([]*store.FitnessGoal, error)
	ListPersonalRecords(ctx context.Context, find *store.FindPersonalRecord) ([]*store.PersonalRecord, error)
}

// Memories is the slice of the memory service save_memory needs.
type Memories interface {
	Remember(ctx context.Context, memberID int32, content string, category store.MemoryNoteCategory) (*store.MemoryNote, error)
}

// Toolbox executes data tools on the agent's behalf. One tool hop per
// turn; the textual result feeds the follow-up answer.
type Toolbox struct {
	store    ToolStore
	memories Memories
}

func NewToolbox(store ToolStore, memories Memories) *Toolbox {
	return &Toolbox{store: store, memories: memories}
}

// Execute runs the requested tool and returns its result as prompt
// text.
func (t *Toolbox) Execute(ctx context.Context, memberID int32, snapshot *store.MemberContextSnapshot, req *ToolRequest) (string, error) {
	switch req.Name {
	case ToolRecentWorkouts:
		return t.recentWorkouts(ctx, memberID)
	case ToolGoalProgress:
		return t.goalProgress(ctx, memberID)
	case ToolPersonalRecords:
		return t.personalRecords(ctx, memberID)
	case ToolRecoveryStatus:
		return recoveryStatus(snapshot), nil
	case ToolSaveMemory:
		return t.saveMemory(ctx, memberID, req.Input)
	default:
		return "", fmt.Errorf("unknown tool %q", req.Name)
	}
}

func (t *Toolbox) recentWorkouts(ctx context.Context, memberID int32) (string, error) {
	limit := recentWorkoutLimit
	sessions, err := t.store.ListWorkoutSessions(ctx, &store.FindWorkoutSession{
		MemberID:      &memberID,
		CompletedOnly: true,
		Limit:         &limit,
	})
	if err != nil {
		return "", fmt.Errorf("list workout sessions: %w", err)
	}
	if len(sessions) == 0 {
		return "No completed workouts on record.", nil
	}

	sessionIDs := make([]int32, 0, len(sessions))
	for _, session := range sessions {
		sessionIDs = append(sessionIDs, session.ID)
	}
	exercises, err := t.store.ListSessionExercises(ctx, &store.FindSessionExercise{SessionIDs: sessionIDs})
	if err != nil {
		return "", fmt.Errorf("list session exercises: %w", err)
	}
	bySession := map[int32][]*store.SessionExercise{}
	for _, exercise := range exercises {
		bySession[exercise.SessionID] = append(bySession[exercise.SessionID], exercise)
	}

	var sb strings.Builder
	sb.WriteString("Recent completed workouts:\n")
	for _, session := range sessions {
		title := session.Title
		if title == "" {
			title = "Workout"
		}
		date := "in progress"
		if session.EndedTs != nil {
			date = formatDate(*session.EndedTs)
		}
		fmt.Fprintf(&sb, "- %s: %s, %d min\n", date, title, session.DurationMin)
		for _, exercise := range bySession[session.ID] {
			fmt.Fprintf(&sb, "  - %s %dx%d", exercise.ExerciseName, exercise.Sets, exercise.Reps)
			if exercise.WeightKg != nil {
				fmt.Fprintf(&sb, " @ %.1fkg", *exercise.WeightKg)
			}
			sb.WriteString("\n")
		}
	}
	return sb.String(), nil
}

func (t *Toolbox) goalProgress(ctx context.Context, memberID int32) (string, error) {
	normal := store.Normal
	goals, err := t.store.ListFitnessGoals(ctx, &store.FindFitnessGoal{MemberID: &memberID, RowStatus: &normal})
	if err != nil {
		return "", fmt.Errorf("list goals: %w", err)
	}
	if len(goals) == 0 {
		return "No active goals.", nil
	}

	var sb strings.Builder
	sb.WriteString("Goal progress:\n")
	for _, g := range goals {
		percent := 0.0
		if g.TargetValue > 0 {
			percent = g.CurrentValue / g.TargetValue * 100
			if percent > 100 {
				percent = 100
			}
		}
		fmt.Fprintf(&sb, "- %s: %.0f of %.0f %s (%.0f%%)\n", g.Title, g.CurrentValue, g.TargetValue, g.Unit, percent)
	}
	return sb.String(), nil
}

func (t *Toolbox) personalRecords(ctx context.Context, memberID int32) (string, error) {
	limit := 10
	records, err := t.store.ListPersonalRecords(ctx, &store.FindPersonalRecord{MemberID: &memberID, Limit: &limit})
	if err != nil {
		return "", fmt.Errorf("list personal records: %w", err)
	}
	if len(records) == 0 {
		return "No personal records logged yet.", nil
	}

	var sb strings.Builder
	sb.WriteString("Personal records:\n")
	for _, r := range records {
		fmt.Fprintf(&sb, "- %s: %.1f %s", r.ExerciseName, r.Value, r.Unit)
		if r.RepMax != nil {
			fmt.Fprintf(&sb, " (%dRM)", *r.RepMax)
		}
		fmt.Fprintf(&sb, ", %s\n", formatDate(r.AchievedTs))
	}
	return sb.String(), nil
}

func recoveryStatus(snapshot *store.MemberContextSnapshot) string {
	if snapshot == nil || len(snapshot.MuscleRecovery) == 0 {
		return "No recovery data available."
	}

	byStatus := groupRecoveryByStatus(snapshot.MuscleRecovery)
	var sb strings.Builder
	sb.WriteString("Muscle recovery status:\n")
	for _, status := range recoveryStatusOrder {
		entries := byStatus[status]
		if len(entries) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "- %s: %s\n", status, strings.Join(entries, ", "))
	}
	return sb.String()
}

// saveMemory runs the note through the memory service. A guardrail
// rejection is a normal outcome here: the tool reports it without
// echoing whatever sensitive content triggered it.
func (t *Toolbox) saveMemory(ctx context.Context, memberID int32, input string) (string, error) {
	if strings.TrimSpace(input) == "" {
		return "Nothing to save: the note was empty.", nil
	}

	note, err := t.memories.Remember(ctx, memberID, input, store.MemoryCategoryFact)
	if err != nil {
		var rejection *memory.RejectionError
		if errors.As(err, &rejection) {
			slog.Info("memory note rejected", "memberID", memberID, "reason", rejection.Reason)
			return "The note could not be saved because it looks like it contains sensitive personal data.", nil
		}
		return "", err
	}
	return "Noted: " + note.Content, nil
}
