package profile

import (
	"os"
	"testing"
)

func TestProfileDefaults(t *testing.T) {
	clearEnvVars()

	profile := &Profile{}
	profile.FromEnv()

	tests := []struct {
		name     string
		expected string
		actual   string
	}{
		{"AIEnabled should be false by default", "false", boolToString(profile.AIEnabled)},
		{"LLMProvider default", "openai", profile.LLMProvider},
		{"LLMBaseURL default", "https://api.openai.com/v1", profile.LLMBaseURL},
		{"LLMModel default", "gpt-5.2", profile.LLMModel},
		{"EmbeddingModel default", "text-embedding-3-small", profile.EmbeddingModel},
		{"CronSecret default", "", profile.CronSecret},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.actual != tt.expected {
				t.Errorf("%s: expected %q, got %q", tt.name, tt.expected, tt.actual)
			}
		})
	}

	if profile.SnapshotStaleMinutes != 30 {
		t.Errorf("SnapshotStaleMinutes: expected 30, got %d", profile.SnapshotStaleMinutes)
	}
	if profile.SnapshotCacheTTLSeconds != 30 {
		t.Errorf("SnapshotCacheTTLSeconds: expected 30, got %d", profile.SnapshotCacheTTLSeconds)
	}
	if profile.RefreshBatchSize != 50 {
		t.Errorf("RefreshBatchSize: expected 50, got %d", profile.RefreshBatchSize)
	}
	if profile.RefreshCooldownSeconds != 120 {
		t.Errorf("RefreshCooldownSeconds: expected 120, got %d", profile.RefreshCooldownSeconds)
	}
	if profile.CoachTurnWindow != 4 {
		t.Errorf("CoachTurnWindow: expected 4, got %d", profile.CoachTurnWindow)
	}
}

func TestProfileFromEnv(t *testing.T) {
	tests := []struct {
		name     string
		envVar   string
		envValue string
		field    func(*Profile) string
		expected string
	}{
		{
			name:     "LLM API key",
			envVar:   "REPCIRCLE_AI_LLM_API_KEY",
			envValue: "test-llm-key",
			field:    func(p *Profile) string { return p.LLMAPIKey },
			expected: "test-llm-key",
		},
		{
			name:     "deepseek provider applies its defaults",
			envVar:   "REPCIRCLE_AI_LLM_PROVIDER",
			envValue: "deepseek",
			field:    func(p *Profile) string { return p.LLMBaseURL },
			expected: "https://api.deepseek.com",
		},
		{
			name:     "unknown provider falls back to openai",
			envVar:   "REPCIRCLE_AI_LLM_PROVIDER",
			envValue: "nonsense",
			field:    func(p *Profile) string { return p.LLMProvider },
			expected: "openai",
		},
		{
			name:     "explicit base URL wins over provider default",
			envVar:   "REPCIRCLE_AI_LLM_BASE_URL",
			envValue: "http://localhost:8088/v1",
			field:    func(p *Profile) string { return p.LLMBaseURL },
			expected: "http://localhost:8088/v1",
		},
		{
			name:     "cron secret",
			envVar:   "REPCIRCLE_CRON_SECRET",
			envValue: "s3cret",
			field:    func(p *Profile) string { return p.CronSecret },
			expected: "s3cret",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnvVars()
			os.Setenv(tt.envVar, tt.envValue)
			defer os.Unsetenv(tt.envVar)

			profile := &Profile{}
			profile.FromEnv()

			actual := tt.field(profile)
			if actual != tt.expected {
				t.Errorf("%s: expected %q, got %q", tt.name, tt.expected, actual)
			}
		})
	}
}

func TestEmbeddingInheritsLLMCredentials(t *testing.T) {
	clearEnvVars()
	os.Setenv("REPCIRCLE_AI_LLM_API_KEY", "shared-key")
	defer os.Unsetenv("REPCIRCLE_AI_LLM_API_KEY")

	profile := &Profile{}
	profile.FromEnv()

	if profile.EmbeddingAPIKey != "shared-key" {
		t.Errorf("EmbeddingAPIKey: expected inherited %q, got %q", "shared-key", profile.EmbeddingAPIKey)
	}
	if profile.ThreadAPIKey != "shared-key" {
		t.Errorf("ThreadAPIKey: expected inherited %q, got %q", "shared-key", profile.ThreadAPIKey)
	}
	if !profile.IsAIEnabled() {
		t.Error("IsAIEnabled(): expected true when LLM API key is set")
	}
}

func TestIsAIEnabled(t *testing.T) {
	tests := []struct {
		name           string
		setupProfile   func(*Profile)
		expectedResult bool
	}{
		{
			name:           "no API key returns false",
			setupProfile:   func(p *Profile) { p.LLMAPIKey = "" },
			expectedResult: false,
		},
		{
			name:           "API key returns true",
			setupProfile:   func(p *Profile) { p.LLMAPIKey = "test-key" },
			expectedResult: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			profile := &Profile{}
			tt.setupProfile(profile)

			result := profile.IsAIEnabled()
			if result != tt.expectedResult {
				t.Errorf("IsAIEnabled(): expected %v, got %v", tt.expectedResult, result)
			}
		})
	}
}

func clearEnvVars() {
	vars := []string{
		"REPCIRCLE_AI_LLM_PROVIDER",
		"REPCIRCLE_AI_LLM_API_KEY",
		"REPCIRCLE_AI_LLM_BASE_URL",
		"REPCIRCLE_AI_LLM_MODEL",
		"REPCIRCLE_AI_LLM_TIMEOUT_SECONDS",
		"REPCIRCLE_AI_EMBEDDING_MODEL",
		"REPCIRCLE_AI_EMBEDDING_API_KEY",
		"REPCIRCLE_AI_EMBEDDING_BASE_URL",
		"REPCIRCLE_AI_THREAD_BASE_URL",
		"REPCIRCLE_AI_THREAD_API_KEY",
		"REPCIRCLE_SNAPSHOT_STALE_MINUTES",
		"REPCIRCLE_SNAPSHOT_CACHE_TTL_SECONDS",
		"REPCIRCLE_REFRESH_BATCH_SIZE",
		"REPCIRCLE_REFRESH_COOLDOWN_SECONDS",
		"REPCIRCLE_REFRESH_BUDGET_SECONDS",
		"REPCIRCLE_REFRESH_PARALLELISM",
		"REPCIRCLE_COACH_TURN_WINDOW",
		"REPCIRCLE_COACH_CHAT_PER_MINUTE",
		"REPCIRCLE_CRON_SECRET",
		"REPCIRCLE_SESSION_SECRET",
	}
	for _, v := range vars {
		os.Unsetenv(v)
	}
}

func boolToString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
