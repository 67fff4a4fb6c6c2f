// Package coach is the decision agent behind the coaching chat. Each
// turn produces exactly one typed decision: ask a clarifying question,
// generate a workout, give advice, or pull more data through a tool.
package coach

import (
	"encoding/json"
	"fmt"

	"github.com/repcircle/repcircle/ai/core/llm"
)

// DecisionType discriminates the agent's four possible moves.
type DecisionType string

const (
	DecisionAskClarification DecisionType = "ask_clarification"
	DecisionGenerateWorkout  DecisionType = "generate_workout"
	DecisionProvideAdvice    DecisionType = "provide_advice"
	DecisionInvokeTool       DecisionType = "invoke_tool"
)

// ContextTag labels which slot a clarifying question is trying to fill
// so the client can render the right picker.
type ContextTag string

const (
	TagDuration    ContextTag = "duration"
	TagEnergy      ContextTag = "energy"
	TagLocation    ContextTag = "location"
	TagLimitations ContextTag = "limitations"
	TagFocus       ContextTag = "focus"
	TagIntensity   ContextTag = "intensity"
	TagGeneral     ContextTag = "general"
)

// Clarification asks the member one question. Options stay between 2
// and 4 so the UI renders buttons; AllowCustomInput keeps free text
// available so the member is never trapped.
type Clarification struct {
	Question         string     `json:"question"`
	ContextTag       ContextTag `json:"contextTag"`
	Options          []string   `json:"options"`
	AllowCustomInput bool       `json:"allowCustomInput"`
	Priority         string     `json:"priority"`
}

// WorkoutParams parameterizes the workout generator.
type WorkoutParams struct {
	DurationMin    int      `json:"durationMin"`
	Intensity      string   `json:"intensity"`
	Focus          string   `json:"focus,omitempty"`
	Location       string   `json:"location,omitempty"`
	MusclesToAvoid []string `json:"musclesToAvoid,omitempty"`
}

// ToolRequest names a data tool the agent wants run before answering.
// Input carries tool-specific free text (for save_memory, the note).
type ToolRequest struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
	Input  string `json:"input,omitempty"`
}

// Decision is the agent's single typed output per turn. The payload
// matching Type must be present; Validate rejects any mismatch before
// the decision is acted on.
type Decision struct {
	Type          DecisionType   `json:"type"`
	Reasoning     string         `json:"reasoning"`
	Confidence    float64        `json:"confidence"`
	Clarification *Clarification `json:"clarification,omitempty"`
	WorkoutParams *WorkoutParams `json:"workoutParams,omitempty"`
	ToolCall      *ToolRequest   `json:"toolCall,omitempty"`
}

// Validate checks internal consistency. A failure here means the model
// produced a malformed decision; callers replace it with a fallback
// instead of propagating it.
func (d *Decision) Validate() error {
	if d.Confidence < 0 || d.Confidence > 1 {
		return fmt.Errorf("confidence %v outside [0,1]", d.Confidence)
	}

	switch d.Type {
	case DecisionAskClarification:
		if d.Clarification == nil {
			return fmt.Errorf("%s decision without clarification payload", d.Type)
		}
		if d.Clarification.Question == "" {
			return fmt.Errorf("clarification without a question")
		}
		if n := len(d.Clarification.Options); n < 2 || n > 4 {
			return fmt.Errorf("clarification needs 2-4 options, got %d", n)
		}
	case DecisionGenerateWorkout:
		if d.WorkoutParams == nil {
			return fmt.Errorf("%s decision without workout params", d.Type)
		}
		if d.WorkoutParams.DurationMin <= 0 {
			return fmt.Errorf("workout duration must be positive, got %d", d.WorkoutParams.DurationMin)
		}
		if d.WorkoutParams.Intensity == "" {
			return fmt.Errorf("workout params without intensity")
		}
	case DecisionProvideAdvice:
		// No payload.
	case DecisionInvokeTool:
		if d.ToolCall == nil {
			return fmt.Errorf("%s decision without tool call", d.Type)
		}
		if d.ToolCall.Name == "" {
			return fmt.Errorf("tool call without a tool name")
		}
	default:
		return fmt.Errorf("unknown decision type %q", d.Type)
	}
	return nil
}

// Raw serializes the decision for persistence on the assistant turn.
func (d *Decision) Raw() json.RawMessage {
	raw, err := json.Marshal(d)
	if err != nil {
		return nil
	}
	return raw
}

// fallbackAdvice is the safe decision substituted when the model's
// output fails validation.
func fallbackAdvice(reason string) *Decision {
	return &Decision{
		Type:       DecisionProvideAdvice,
		Reasoning:  "fallback: " + reason,
		Confidence: 0,
	}
}

// decisionSchema is the fixed structured-generation schema. Variant
// payloads stay optional at the schema level; Validate enforces the
// type/payload pairing after parsing.
var decisionSchema = &llm.JSONSchema{
	Type: "object",
	Properties: map[string]*llm.JSONSchema{
		"type": {
			Type:        "string",
			Enum:        []string{string(DecisionAskClarification), string(DecisionGenerateWorkout), string(DecisionProvideAdvice), string(DecisionInvokeTool)},
			Description: "The single action to take this turn.",
		},
		"reasoning": {
			Type:        "string",
			Description: "One or two sentences on why this action fits.",
		},
		"confidence": {
			Type:        "number",
			Minimum:     llm.Float64(0),
			Maximum:     llm.Float64(1),
			Description: "Confidence in this decision.",
		},
		"clarification": {
			Type:        "object",
			Description: "Required when type is ask_clarification.",
			Properties: map[string]*llm.JSONSchema{
				"question": {Type: "string"},
				"contextTag": {
					Type: "string",
					Enum: []string{string(TagDuration), string(TagEnergy), string(TagLocation), string(TagLimitations), string(TagFocus), string(TagIntensity), string(TagGeneral)},
				},
				"options": {
					Type:     "array",
					Items:    &llm.JSONSchema{Type: "string"},
					MinItems: llm.Int(2),
					MaxItems: llm.Int(4),
				},
				"allowCustomInput": {Type: "boolean"},
				"priority":         {Type: "string", Enum: []string{"high", "normal", "low"}},
			},
			Required: []string{"question", "contextTag", "options", "allowCustomInput"},
		},
		"workoutParams": {
			Type:        "object",
			Description: "Required when type is generate_workout.",
			Properties: map[string]*llm.JSONSchema{
				"durationMin": {Type: "integer", Minimum: llm.Float64(5)},
				"intensity":   {Type: "string", Enum: []string{"light", "moderate", "high"}},
				"focus":       {Type: "string"},
				"location":    {Type: "string"},
				"musclesToAvoid": {
					Type:  "array",
					Items: &llm.JSONSchema{Type: "string"},
				},
			},
			Required: []string{"durationMin", "intensity"},
		},
		"toolCall": {
			Type:        "object",
			Description: "Required when type is invoke_tool.",
			Properties: map[string]*llm.JSONSchema{
				"name": {
					Type: "string",
					Enum: []string{ToolRecentWorkouts, ToolGoalProgress, ToolPersonalRecords, ToolRecoveryStatus, ToolSaveMemory},
				},
				"reason": {Type: "string"},
				"input":  {Type: "string"},
			},
			Required: []string{"name", "reason"},
		},
	},
	Required: []string{"type", "reasoning", "confidence"},
}
