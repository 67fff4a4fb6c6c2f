package coach

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/repcircle/repcircle/ai/core/llm"
	"github.com/repcircle/repcircle/store"
)

const decisionSystemPrompt = `You are the coaching brain of a fitness app. Read the member's context and the conversation, then choose exactly one action for this turn:
- ask_clarification: ask one question with 2-4 selectable options when a needed workout parameter is genuinely unknown.
- generate_workout: when enough parameters are known to build a session.
- provide_advice: when the member wants information or feedback rather than a workout.
- invoke_tool: when recent data (recent_workouts, goal_progress, personal_records, recovery_status) would materially improve the answer, or the member asked you to remember something about them (save_memory, with the fact as input).

Respond with a single JSON object matching the provided schema.`

func buildDecisionMessages(req *DecideRequest, turnWindow, clarificationsAsked int) []llm.Message {
	var system strings.Builder
	system.WriteString(decisionSystemPrompt)
	system.WriteString("\n\n")
	system.WriteString(renderMemberContext(req.Snapshot))
	system.WriteString(renderMemories(req.Memories))
	system.WriteString(renderSlots(req.Slots))
	system.WriteString(renderDecisionRules(clarificationsAsked))

	messages := []llm.Message{llm.SystemPrompt(system.String())}
	for _, turn := range trailingTurns(req.Turns, turnWindow) {
		if turn.Role == store.TurnRoleAssistant {
			messages = append(messages, llm.AssistantMessage(turn.Content))
		} else {
			messages = append(messages, llm.UserMessage(turn.Content))
		}
	}
	return append(messages, llm.UserMessage(req.Message))
}

func trailingTurns(turns []*store.CoachTurn, window int) []*store.CoachTurn {
	if window <= 0 || len(turns) <= window {
		return turns
	}
	return turns[len(turns)-window:]
}

func renderDecisionRules(clarificationsAsked int) string {
	var sb strings.Builder
	sb.WriteString("Decision rules:\n")
	fmt.Fprintf(&sb, "- Ask at most 2 clarifying questions per conversation before generating a workout; %d asked so far.\n", clarificationsAsked)
	sb.WriteString("- Never ask about information already present in the member context or the collected slots.\n")
	sb.WriteString("- Ask about limitations only if the member mentions pain or injury, or a known active limitation is listed above.\n")
	sb.WriteString("- If the intent is ambiguous, ask one open question about what they want help with.\n")
	return sb.String()
}

// renderMemberContext flattens the snapshot into prompt text. A nil
// snapshot renders a placeholder so the prompt shape stays stable.
func renderMemberContext(s *store.MemberContextSnapshot) string {
	if s == nil {
		return "Member context: unavailable this turn.\n\n"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Member context (as of %s):\n", formatDate(s.UpdatedTs))
	fmt.Fprintf(&sb, "- Profile: %s, %.1f years of training", s.FitnessLevel, s.TrainingAgeYears)
	if s.WeightKg != nil {
		fmt.Fprintf(&sb, ", %.1f kg", *s.WeightKg)
	}
	sb.WriteString("\n")

	if len(s.Goals) > 0 {
		sb.WriteString("- Goals:\n")
		for _, g := range s.Goals {
			fmt.Fprintf(&sb, "  - %s (%s): %.0f%% there (%.0f of %.0f %s)\n",
				g.Title, g.Category, g.ProgressPercent, g.CurrentValue, g.TargetValue, g.Unit)
		}
	}
	if len(s.Limitations) > 0 {
		sb.WriteString("- Active limitations:\n")
		for _, l := range s.Limitations {
			fmt.Fprintf(&sb, "  - %s (%s, %s", l.Description, l.Type, l.Severity)
			if len(l.BodyAreas) > 0 {
				fmt.Fprintf(&sb, "; affects %s", strings.Join(l.BodyAreas, ", "))
			}
			sb.WriteString(")\n")
		}
	}
	if len(s.PersonalRecords) > 0 {
		sb.WriteString("- Personal records: ")
		parts := make([]string, 0, len(s.PersonalRecords))
		for _, r := range s.PersonalRecords {
			parts = append(parts, fmt.Sprintf("%s %.0f%s", r.ExerciseName, r.Value, r.Unit))
		}
		sb.WriteString(strings.Join(parts, ", "))
		sb.WriteString("\n")
	}
	if len(s.Skills) > 0 {
		sb.WriteString("- Skills: ")
		parts := make([]string, 0, len(s.Skills))
		for _, skill := range s.Skills {
			parts = append(parts, fmt.Sprintf("%s (%s)", skill.Name, skill.Status))
		}
		sb.WriteString(strings.Join(parts, ", "))
		sb.WriteString("\n")
	}

	sb.WriteString(renderRecovery(s.MuscleRecovery))

	fmt.Fprintf(&sb, "- Training habits: %.1f workouts/week, %.0f min average", s.WeeklyWorkoutAvg, s.AvgWorkoutDurationMin)
	if s.LastWorkoutTs != nil {
		fmt.Fprintf(&sb, ", last workout %s", formatDate(*s.LastWorkoutTs))
	}
	sb.WriteString("\n")
	if s.DeloadRecommended {
		sb.WriteString("- A deload week is recommended: recent volume or fatigue is high.\n")
	}
	sb.WriteString("\n")
	return sb.String()
}

func renderRecovery(recovery map[string]store.SnapshotRecovery) string {
	if len(recovery) == 0 {
		return ""
	}

	byStatus := groupRecoveryByStatus(recovery)
	var sb strings.Builder
	sb.WriteString("- Muscle recovery:\n")
	for _, status := range recoveryStatusOrder {
		entries := byStatus[status]
		if len(entries) == 0 {
			continue
		}
		fmt.Fprintf(&sb, "  - %s: %s\n", status, strings.Join(entries, ", "))
	}
	return sb.String()
}

var recoveryStatusOrder = []string{"ready", "recovering", "fatigued"}

func groupRecoveryByStatus(recovery map[string]store.SnapshotRecovery) map[string][]string {
	byStatus := map[string][]string{}
	for muscle, r := range recovery {
		entry := muscle
		if r.HoursSinceWorked != nil {
			entry = fmt.Sprintf("%s (%.0fh ago)", muscle, *r.HoursSinceWorked)
		}
		byStatus[r.Status] = append(byStatus[r.Status], entry)
	}
	for _, entries := range byStatus {
		sort.Strings(entries)
	}
	return byStatus
}

// renderMemories replays durable notes verbatim; they passed the
// guardrail before being stored.
func renderMemories(notes []*store.MemoryNote) string {
	if len(notes) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("Remembered about this member:\n")
	for _, note := range notes {
		fmt.Fprintf(&sb, "- %s\n", note.Content)
	}
	sb.WriteString("\n")
	return sb.String()
}

func renderSlots(slots store.CoachSlots) string {
	if slots.IsZero() {
		return "Collected slots: none yet.\n\n"
	}

	var parts []string
	if slots.DurationMinutes != nil {
		parts = append(parts, fmt.Sprintf("duration=%d min", *slots.DurationMinutes))
	}
	if slots.Energy != "" {
		parts = append(parts, "energy="+slots.Energy)
	}
	if slots.Location != "" {
		parts = append(parts, "location="+slots.Location)
	}
	if slots.LimitationsToday != "" {
		parts = append(parts, "limitations today="+slots.LimitationsToday)
	}
	if slots.Focus != "" {
		parts = append(parts, "focus="+slots.Focus)
	}
	if slots.Intensity != "" {
		parts = append(parts, "intensity="+slots.Intensity)
	}
	return "Collected slots: " + strings.Join(parts, ", ") + "\n\n"
}

func formatDate(ts int64) string {
	return time.Unix(ts, 0).UTC().Format("2006-01-02")
}
