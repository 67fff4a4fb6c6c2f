package coach

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validClarification() *Clarification {
	return &Clarification{
		Question:         "How long do you have?",
		ContextTag:       TagDuration,
		Options:          []string{"20 min", "45 min", "60 min"},
		AllowCustomInput: true,
	}
}

func TestDecisionValidate(t *testing.T) {
	tests := []struct {
		name     string
		decision Decision
		wantErr  string
	}{
		{
			name:     "advice needs no payload",
			decision: Decision{Type: DecisionProvideAdvice, Reasoning: "question about form", Confidence: 0.9},
		},
		{
			name: "clarification with options",
			decision: Decision{
				Type:          DecisionAskClarification,
				Confidence:    0.8,
				Clarification: validClarification(),
			},
		},
		{
			name:     "clarification without payload",
			decision: Decision{Type: DecisionAskClarification, Confidence: 0.8},
			wantErr:  "without clarification payload",
		},
		{
			name: "clarification without question",
			decision: Decision{
				Type:       DecisionAskClarification,
				Confidence: 0.8,
				Clarification: &Clarification{
					Options: []string{"a", "b"},
				},
			},
			wantErr: "without a question",
		},
		{
			name: "clarification with one option",
			decision: Decision{
				Type:       DecisionAskClarification,
				Confidence: 0.8,
				Clarification: &Clarification{
					Question: "Where are you training?",
					Options:  []string{"gym"},
				},
			},
			wantErr: "2-4 options",
		},
		{
			name: "clarification with five options",
			decision: Decision{
				Type:       DecisionAskClarification,
				Confidence: 0.8,
				Clarification: &Clarification{
					Question: "Focus?",
					Options:  []string{"legs", "upper body", "core", "cardio", "full body"},
				},
			},
			wantErr: "2-4 options",
		},
		{
			name: "workout with params",
			decision: Decision{
				Type:          DecisionGenerateWorkout,
				Confidence:    1,
				WorkoutParams: &WorkoutParams{DurationMin: 45, Intensity: "moderate", Focus: "legs"},
			},
		},
		{
			name:     "workout without params",
			decision: Decision{Type: DecisionGenerateWorkout, Confidence: 1},
			wantErr:  "without workout params",
		},
		{
			name: "workout with zero duration",
			decision: Decision{
				Type:          DecisionGenerateWorkout,
				Confidence:    1,
				WorkoutParams: &WorkoutParams{Intensity: "light"},
			},
			wantErr: "duration must be positive",
		},
		{
			name: "workout without intensity",
			decision: Decision{
				Type:          DecisionGenerateWorkout,
				Confidence:    1,
				WorkoutParams: &WorkoutParams{DurationMin: 30},
			},
			wantErr: "without intensity",
		},
		{
			name: "tool call",
			decision: Decision{
				Type:       DecisionInvokeTool,
				Confidence: 0.7,
				ToolCall:   &ToolRequest{Name: ToolRecentWorkouts, Reason: "member asked about last week"},
			},
		},
		{
			name:     "tool call without payload",
			decision: Decision{Type: DecisionInvokeTool, Confidence: 0.7},
			wantErr:  "without tool call",
		},
		{
			name: "tool call without name",
			decision: Decision{
				Type:       DecisionInvokeTool,
				Confidence: 0.7,
				ToolCall:   &ToolRequest{Reason: "curious"},
			},
			wantErr: "without a tool name",
		},
		{
			name:     "confidence below zero",
			decision: Decision{Type: DecisionProvideAdvice, Confidence: -0.1},
			wantErr:  "outside [0,1]",
		},
		{
			name:     "confidence above one",
			decision: Decision{Type: DecisionProvideAdvice, Confidence: 1.1},
			wantErr:  "outside [0,1]",
		},
		{
			name:     "unknown type",
			decision: Decision{Type: "escalate_to_human", Confidence: 0.5},
			wantErr:  "unknown decision type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.decision.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestFallbackAdvice(t *testing.T) {
	decision := fallbackAdvice("unparseable decision")

	assert.Equal(t, DecisionProvideAdvice, decision.Type)
	assert.Zero(t, decision.Confidence)
	assert.Equal(t, "fallback: unparseable decision", decision.Reasoning)
	assert.NoError(t, decision.Validate(), "the fallback must always pass its own validation")
}

func TestDecisionRaw_RoundTrips(t *testing.T) {
	decision := &Decision{
		Type:       DecisionInvokeTool,
		Reasoning:  "member asked to remember a fact",
		Confidence: 0.85,
		ToolCall:   &ToolRequest{Name: ToolSaveMemory, Reason: "explicit request", Input: "prefers morning workouts"},
	}

	raw := decision.Raw()
	require.NotEmpty(t, raw)

	var decoded Decision
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, decision.Type, decoded.Type)
	require.NotNil(t, decoded.ToolCall)
	assert.Equal(t, "prefers morning workouts", decoded.ToolCall.Input)
	assert.Nil(t, decoded.WorkoutParams)
}
