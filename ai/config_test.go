package ai

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repcircle/repcircle/internal/profile"
)

func TestNewConfigFromProfile(t *testing.T) {
	p := &profile.Profile{
		LLMProvider:             "openai",
		LLMAPIKey:               "sk-test",
		LLMBaseURL:              "https://api.openai.com/v1",
		LLMModel:                "gpt-5.2",
		LLMTimeout:              120,
		EmbeddingModel:          "text-embedding-3-small",
		EmbeddingAPIKey:         "sk-test",
		EmbeddingBaseURL:        "https://api.openai.com/v1",
		ThreadAPIKey:            "sk-test",
		ThreadBaseURL:           "https://api.openai.com/v1",
		SnapshotStaleMinutes:    30,
		SnapshotCacheTTLSeconds: 30,
		RefreshBatchSize:        50,
		RefreshParallelism:      8,
		RefreshBudgetSeconds:    60,
		RefreshCooldownSeconds:  120,
		CoachTurnWindow:         4,
		CoachChatPerMinute:      10,
	}

	cfg := NewConfigFromProfile(p)

	require.True(t, cfg.Enabled)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-5.2", cfg.LLM.Model)
	assert.Equal(t, "text-embedding-3-small", cfg.Embedding.Model)
	assert.Equal(t, "gpt-5.2", cfg.Thread.Model)
	assert.Equal(t, 30*time.Minute, cfg.SnapshotStaleAfter)
	assert.Equal(t, 30*time.Second, cfg.SnapshotCacheTTL)
	assert.Equal(t, time.Minute, cfg.RefreshBudget)
	assert.Equal(t, 2*time.Minute, cfg.RefreshCooldown)
	assert.Equal(t, 4, cfg.CoachTurnWindow)
	require.NoError(t, cfg.Validate())
}

func TestNewConfigFromProfile_Disabled(t *testing.T) {
	cfg := NewConfigFromProfile(&profile.Profile{})

	assert.False(t, cfg.Enabled)
	assert.NoError(t, cfg.Validate(), "a disabled config is always valid")
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "missing provider",
			mutate:  func(c *Config) { c.LLM.Provider = "" },
			wantErr: "provider is required",
		},
		{
			name:    "missing api key",
			mutate:  func(c *Config) { c.LLM.APIKey = "" },
			wantErr: "API key is required",
		},
		{
			name:    "missing model",
			mutate:  func(c *Config) { c.LLM.Model = "" },
			wantErr: "model is required",
		},
		{
			name:    "missing embedding model",
			mutate:  func(c *Config) { c.Embedding.Model = "" },
			wantErr: "embedding model is required",
		},
		{
			name:   "ollama needs no key",
			mutate: func(c *Config) { c.LLM.Provider = "ollama"; c.LLM.APIKey = "" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &profile.Profile{
				LLMProvider:    "openai",
				LLMAPIKey:      "sk-test",
				LLMModel:       "gpt-5.2",
				EmbeddingModel: "text-embedding-3-small",
			}
			cfg := NewConfigFromProfile(p)
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}
