package coach

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/repcircle/repcircle/ai/core/llm"
	"github.com/repcircle/repcircle/ai/metrics"
	"github.com/repcircle/repcircle/ai/thread"
	"github.com/repcircle/repcircle/store"
)

// defaultTurnWindow is how many trailing turns ride on the decision
// prompt.
const defaultTurnWindow = 4

const adviceSystemPrompt = `You are a friendly, knowledgeable fitness coach. Answer in concise markdown. Ground your answer in the member context when relevant, be encouraging, and never invent training history the context does not show.`

// Config tunes the agent. Zero values fall back to defaults.
type Config struct {
	TurnWindow int
}

// Agent drives one coaching turn: a single structured-generation call
// decides the move, then the caller acts on it through the agent's
// response helpers. Threading is a soft dependency; when it fails the
// agent answers through a direct chat call instead.
type Agent struct {
	llm      llm.Service
	threads  *thread.Manager
	toolbox  *Toolbox
	exporter *metrics.PrometheusExporter

	turnWindow int
}

func NewAgent(llmService llm.Service, threads *thread.Manager, toolbox *Toolbox, exporter *metrics.PrometheusExporter, cfg *Config) *Agent {
	turnWindow := defaultTurnWindow
	if cfg != nil && cfg.TurnWindow > 0 {
		turnWindow = cfg.TurnWindow
	}
	return &Agent{
		llm:        llmService,
		threads:    threads,
		toolbox:    toolbox,
		exporter:   exporter,
		turnWindow: turnWindow,
	}
}

// DecideRequest is one turn's input to the decision call.
type DecideRequest struct {
	Message  string
	Snapshot *store.MemberContextSnapshot
	Slots    store.CoachSlots
	// Memories are recalled durable notes, replayed into the prompt.
	Memories []*store.MemoryNote
	// Turns is the conversation so far, oldest first. Only the
	// trailing window is prompted; the full list still feeds the
	// clarification count.
	Turns []*store.CoachTurn
}

// Decide produces exactly one validated decision for the turn. A
// malformed model output is logged and replaced with a generic advice
// fallback; it never propagates raw.
func (a *Agent) Decide(ctx context.Context, req *DecideRequest) (*Decision, error) {
	start := time.Now()
	clarifications := countClarifications(req.Turns)
	messages := buildDecisionMessages(req, a.turnWindow, clarifications)

	raw, stats, err := a.llm.GenerateObject(ctx, messages, "coach_decision", decisionSchema)
	if err != nil {
		a.exporter.RecordDecision("none", "error", time.Since(start))
		return nil, fmt.Errorf("decide: %w", err)
	}
	a.recordUsage(stats)

	var decision Decision
	if err := json.Unmarshal(raw, &decision); err != nil {
		slog.Warn("coach decision did not parse, falling back to advice", "error", err)
		a.exporter.RecordDecision(string(DecisionProvideAdvice), "fallback", time.Since(start))
		return fallbackAdvice("unparseable decision"), nil
	}
	if err := decision.Validate(); err != nil {
		slog.Warn("coach decision failed validation, falling back to advice", "type", decision.Type, "error", err)
		a.exporter.RecordDecision(string(DecisionProvideAdvice), "fallback", time.Since(start))
		return fallbackAdvice(err.Error()), nil
	}

	slog.Debug("coach decision",
		"type", decision.Type,
		"confidence", decision.Confidence,
		"clarificationsAsked", clarifications,
	)
	a.exporter.RecordDecision(string(decision.Type), "ok", time.Since(start))
	return &decision, nil
}

// Advise produces a free-text coaching answer for the current message.
func (a *Agent) Advise(ctx context.Context, conversationID int32, req *DecideRequest) (string, error) {
	instructions := adviceSystemPrompt + "\n\n" + renderMemberContext(req.Snapshot) + renderMemories(req.Memories)
	return a.respond(ctx, conversationID, instructions, req.Message)
}

// GenerateWorkout produces a workout session in markdown from the
// decided parameters.
func (a *Agent) GenerateWorkout(ctx context.Context, conversationID int32, req *DecideRequest, params *WorkoutParams) (string, error) {
	var instructions strings.Builder
	instructions.WriteString(adviceSystemPrompt)
	instructions.WriteString("\n\n")
	instructions.WriteString(renderMemberContext(req.Snapshot))
	instructions.WriteString(renderMemories(req.Memories))
	instructions.WriteString(renderWorkoutBrief(params))
	instructions.WriteString("Return markdown with a one-line intro, a short warmup, the main block as a list of exercises with sets x reps (and weight guidance where personal records allow), and a cooldown.\n")

	return a.respond(ctx, conversationID, instructions.String(), req.Message)
}

// AnswerWithTool produces the follow-up answer once a data tool has
// run, grounding the reply in the tool's result.
func (a *Agent) AnswerWithTool(ctx context.Context, conversationID int32, req *DecideRequest, toolResult string) (string, error) {
	instructions := adviceSystemPrompt + "\n\n" + renderMemberContext(req.Snapshot) +
		"Data pulled for this turn:\n" + toolResult + "\nAnswer using this data; do not claim to lack access to it.\n"
	return a.respond(ctx, conversationID, instructions, req.Message)
}

// ExecuteTool runs the requested data tool and returns its text
// result, observing latency and outcome.
func (a *Agent) ExecuteTool(ctx context.Context, memberID int32, snapshot *store.MemberContextSnapshot, req *ToolRequest) (string, error) {
	start := time.Now()
	result, err := a.toolbox.Execute(ctx, memberID, snapshot, req)
	a.exporter.RecordToolCall(req.Name, time.Since(start), err == nil)
	return result, err
}

// respond generates free text, preferring the provider-side thread so
// follow-up turns keep context. Thread failures degrade to a direct
// chat call; they never fail the turn by themselves.
func (a *Agent) respond(ctx context.Context, conversationID int32, instructions, input string) (string, error) {
	if a.threads != nil {
		text, err := a.threads.Respond(ctx, conversationID, instructions, input)
		if err == nil {
			return text, nil
		}
		a.exporter.RecordThreadFailure("respond")
		slog.Warn("threaded response failed, answering without provider-side state",
			"conversationID", conversationID, "error", err)
	}

	text, stats, err := a.llm.Chat(ctx, []llm.Message{
		llm.SystemPrompt(instructions),
		llm.UserMessage(input),
	})
	if err != nil {
		return "", fmt.Errorf("chat: %w", err)
	}
	a.recordUsage(stats)
	return text, nil
}

func (a *Agent) recordUsage(stats *llm.CallStats) {
	if stats == nil {
		return
	}
	a.exporter.RecordLLMTokens(stats.Model, "prompt", stats.PromptTokens)
	a.exporter.RecordLLMTokens(stats.Model, "completion", stats.CompletionTokens)
	if stats.CacheReadTokens > 0 {
		a.exporter.RecordLLMCachedTokens(stats.Model, stats.CacheReadTokens)
	}
}

func renderWorkoutBrief(params *WorkoutParams) string {
	var sb strings.Builder
	sb.WriteString("Workout brief:\n")
	fmt.Fprintf(&sb, "- Duration: %d minutes\n", params.DurationMin)
	fmt.Fprintf(&sb, "- Intensity: %s\n", params.Intensity)
	if params.Focus != "" {
		fmt.Fprintf(&sb, "- Focus: %s\n", params.Focus)
	}
	if params.Location != "" {
		fmt.Fprintf(&sb, "- Location: %s\n", params.Location)
	}
	if len(params.MusclesToAvoid) > 0 {
		fmt.Fprintf(&sb, "- Avoid loading: %s\n", strings.Join(params.MusclesToAvoid, ", "))
	}
	return sb.String()
}

// countClarifications counts prior ask_clarification decisions from
// the persisted assistant turns.
func countClarifications(turns []*store.CoachTurn) int {
	count := 0
	for _, turn := range turns {
		if turn.Role != store.TurnRoleAssistant || len(turn.Decision) == 0 {
			continue
		}
		var decision Decision
		if err := json.Unmarshal(turn.Decision, &decision); err != nil {
			continue
		}
		if decision.Type == DecisionAskClarification {
			count++
		}
	}
	return count
}
