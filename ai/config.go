// Package ai assembles the coaching engine's AI configuration from the
// server profile.
package ai

import (
	"errors"
	"time"

	"github.com/repcircle/repcircle/ai/core/embedding"
	"github.com/repcircle/repcircle/ai/core/llm"
	"github.com/repcircle/repcircle/ai/thread"
	"github.com/repcircle/repcircle/internal/profile"
)

// Config represents AI configuration.
type Config struct {
	LLM       llm.Config
	Embedding embedding.Config
	Thread    thread.Config

	// Coaching engine tunables.
	SnapshotStaleAfter time.Duration
	SnapshotCacheTTL   time.Duration
	RefreshBatchSize   int
	RefreshParallelism int
	RefreshBudget      time.Duration
	RefreshCooldown    time.Duration
	CoachTurnWindow    int
	CoachChatPerMinute int

	Enabled bool
}

// NewConfigFromProfile creates AI config from profile. The profile has
// already resolved provider defaults, so values copy through directly.
func NewConfigFromProfile(p *profile.Profile) *Config {
	cfg := &Config{
		Enabled: p.IsAIEnabled(),
	}
	if !cfg.Enabled {
		return cfg
	}

	cfg.LLM = llm.Config{
		Provider:  p.LLMProvider,
		Model:     p.LLMModel,
		APIKey:    p.LLMAPIKey,
		BaseURL:   p.LLMBaseURL,
		MaxTokens: 2048,
		Timeout:   p.LLMTimeout,
	}

	cfg.Embedding = embedding.Config{
		Model:   p.EmbeddingModel,
		APIKey:  p.EmbeddingAPIKey,
		BaseURL: p.EmbeddingBaseURL,
	}

	cfg.Thread = thread.Config{
		Model:   p.LLMModel,
		APIKey:  p.ThreadAPIKey,
		BaseURL: p.ThreadBaseURL,
	}

	cfg.SnapshotStaleAfter = time.Duration(p.SnapshotStaleMinutes) * time.Minute
	cfg.SnapshotCacheTTL = time.Duration(p.SnapshotCacheTTLSeconds) * time.Second
	cfg.RefreshBatchSize = p.RefreshBatchSize
	cfg.RefreshParallelism = p.RefreshParallelism
	cfg.RefreshBudget = time.Duration(p.RefreshBudgetSeconds) * time.Second
	cfg.RefreshCooldown = time.Duration(p.RefreshCooldownSeconds) * time.Second
	cfg.CoachTurnWindow = p.CoachTurnWindow
	cfg.CoachChatPerMinute = p.CoachChatPerMinute

	return cfg
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if !c.Enabled {
		return nil
	}

	if c.LLM.Provider == "" {
		return errors.New("LLM provider is required")
	}
	if c.LLM.Provider != "ollama" && c.LLM.APIKey == "" {
		return errors.New("LLM API key is required")
	}
	if c.LLM.Model == "" {
		return errors.New("LLM model is required")
	}
	if c.Embedding.Model == "" {
		return errors.New("embedding model is required")
	}

	return nil
}
