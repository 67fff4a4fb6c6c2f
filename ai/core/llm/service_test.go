package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     string
	}{
		{"bare object", `{"type":"provide_advice"}`, `{"type":"provide_advice"}`},
		{"markdown fence", "```json\n{\"type\":\"provide_advice\"}\n```", `{"type":"provide_advice"}`},
		{"leading prose", `Here you go: {"a":1}`, `{"a":1}`},
		{"nested braces", `{"a":{"b":2}} trailing`, `{"a":{"b":2}}`},
		{"brace inside string", `{"q":"use {curly} braces"}`, `{"q":"use {curly} braces"}`},
		{"escaped quote inside string", `{"q":"say \"hi\" {now}"}`, `{"q":"say \"hi\" {now}"}`},
		{"no json at all", "no structure here", "no structure here"},
		{"unterminated object", `{"a":1`, `{"a":1`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractJSON(tt.response))
		})
	}
}

func TestJSONSchemaMarshal(t *testing.T) {
	schema := &JSONSchema{
		Type: "object",
		Properties: map[string]*JSONSchema{
			"confidence": {Type: "number", Minimum: Float64(0), Maximum: Float64(1)},
			"options":    {Type: "array", Items: &JSONSchema{Type: "string"}, MinItems: Int(2), MaxItems: Int(4)},
		},
		Required: []string{"confidence"},
	}

	data, err := json.Marshal(schema)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "object", decoded["type"])
	assert.Equal(t, false, decoded["additionalProperties"])

	props := decoded["properties"].(map[string]any)
	options := props["options"].(map[string]any)
	assert.Equal(t, "array", options["type"])
	assert.Equal(t, float64(2), options["minItems"])
	items := options["items"].(map[string]any)
	assert.Equal(t, "string", items["type"])
}

// newTestService points the client at a stub completion endpoint.
func newTestService(t *testing.T, handler http.HandlerFunc) Service {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	svc, err := NewService(&Config{
		Provider: "openai",
		Model:    "test-model",
		APIKey:   "test-key",
		BaseURL:  server.URL + "/v1",
	})
	require.NoError(t, err)
	return svc
}

func completionBody(content string) string {
	payload := map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"created": 1700000000,
		"model":   "test-model",
		"choices": []map[string]any{
			{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": content},
				"finish_reason": "stop",
			},
		},
		"usage": map[string]any{"prompt_tokens": 12, "completion_tokens": 5, "total_tokens": 17},
	}
	data, _ := json.Marshal(payload)
	return string(data)
}

func TestChat(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, completionBody("keep your elbows tucked"))
	})

	content, stats, err := svc.Chat(context.Background(), []Message{
		SystemPrompt("you are a coach"),
		UserMessage("bench form tips?"),
	})

	require.NoError(t, err)
	assert.Equal(t, "keep your elbows tucked", content)
	require.NotNil(t, stats)
	assert.Equal(t, 17, stats.TotalTokens)
}

func TestGenerateObject(t *testing.T) {
	var gotFormat string
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		_ = json.NewDecoder(r.Body).Decode(&req)
		if rf, ok := req["response_format"].(map[string]any); ok {
			gotFormat, _ = rf["type"].(string)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, completionBody("```json\n{\"type\":\"provide_advice\",\"confidence\":0.9}\n```"))
	})

	schema := &JSONSchema{Type: "object", Properties: map[string]*JSONSchema{"type": {Type: "string"}}}
	raw, stats, err := svc.GenerateObject(context.Background(), []Message{UserMessage("decide")}, "coach_decision", schema)

	require.NoError(t, err)
	assert.Equal(t, "json_schema", gotFormat)
	assert.JSONEq(t, `{"type":"provide_advice","confidence":0.9}`, string(raw))
	require.NotNil(t, stats)
	assert.Equal(t, 17, stats.TotalTokens)
}

func TestGenerateObject_InvalidJSON(t *testing.T) {
	svc := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, completionBody("I would rather chat than emit JSON"))
	})

	_, _, err := svc.GenerateObject(context.Background(), []Message{UserMessage("decide")}, "coach_decision", &JSONSchema{Type: "object"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid JSON")
}
