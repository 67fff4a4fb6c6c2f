package profile

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Profile is configuration to start main server.
type Profile struct {
	// Unified LLM configuration (OpenAI-compatible protocol).
	// All providers (openai, deepseek, zai, siliconflow, openrouter, ollama) use the same config.
	LLMProvider string // Provider identifier: openai, deepseek, zai, siliconflow, openrouter, ollama
	LLMAPIKey   string // Unified LLM API key
	LLMBaseURL  string // Unified LLM base URL (optional, has default per provider)
	LLMModel    string // Model name: gpt-5.2, deepseek-chat, glm-4.7, etc.
	LLMTimeout  int    // LLM request timeout in seconds (default: 120)

	// Embedding configuration, used for coaching memory recall.
	EmbeddingModel   string
	EmbeddingAPIKey  string
	EmbeddingBaseURL string

	// Conversation threading provider (Responses-style API).
	// Defaults to the LLM base URL and key when unset.
	ThreadBaseURL string
	ThreadAPIKey  string

	// Coaching engine tunables.
	SnapshotStaleMinutes    int    // snapshot age beyond which it counts as stale
	SnapshotCacheTTLSeconds int    // read-through cache TTL for snapshot lookups
	RefreshBatchSize        int    // max members recomputed per refresh run
	RefreshCooldownSeconds  int    // minimum interval between refresh trigger runs
	RefreshBudgetSeconds    int    // wall-clock budget for one refresh run
	RefreshParallelism      int    // concurrent member recomputes within a run
	CoachTurnWindow         int    // trailing turns included in the decision prompt
	CoachChatPerMinute      int    // per-member chat rate limit
	CronSecret              string // shared secret guarding the refresh trigger

	// Other configurations
	Mode          string
	Addr          string
	Port          int
	Data          string
	Driver        string
	DSN           string
	Version       string
	InstanceURL   string
	SessionSecret string // HMAC secret for bearer session tokens
	AIEnabled     bool
}

// Provider default configurations for LLM.
// Used when LLM_BASE_URL is not explicitly set.
var llmProviderDefaults = map[string]struct {
	BaseURL string
	Model   string
}{
	"openai": {
		BaseURL: "https://api.openai.com/v1",
		Model:   "gpt-5.2",
	},
	"deepseek": {
		BaseURL: "https://api.deepseek.com",
		Model:   "deepseek-chat",
	},
	"zai": {
		BaseURL: "https://open.bigmodel.cn/api/paas/v4",
		Model:   "glm-4.7",
	},
	"siliconflow": {
		BaseURL: "https://api.siliconflow.cn/v1",
		Model:   "Qwen/Qwen2.5-72B-Instruct",
	},
	"openrouter": {
		BaseURL: "https://openrouter.ai/api/v1",
		Model:   "deepseek/deepseek-chat",
	},
	"ollama": {
		BaseURL: "http://localhost:11434",
		Model:   "llama3.1",
	},
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

// IsAIEnabled returns true if the LLM API key is configured.
func (p *Profile) IsAIEnabled() bool {
	return p.LLMAPIKey != ""
}

// getEnvOrDefault returns environment variable value or default value.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvOrDefaultInt returns environment variable value as int or default value.
func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// FromEnv loads configuration from environment variables.
func (p *Profile) FromEnv() {
	// Unified LLM configuration
	p.LLMProvider = getEnvOrDefault("REPCIRCLE_AI_LLM_PROVIDER", "openai")
	p.LLMAPIKey = getEnvOrDefault("REPCIRCLE_AI_LLM_API_KEY", "")
	p.LLMBaseURL = getEnvOrDefault("REPCIRCLE_AI_LLM_BASE_URL", "")
	p.LLMModel = getEnvOrDefault("REPCIRCLE_AI_LLM_MODEL", "")
	p.LLMTimeout = getEnvOrDefaultInt("REPCIRCLE_AI_LLM_TIMEOUT_SECONDS", 120)

	// AI is enabled if API key is configured
	p.AIEnabled = p.LLMAPIKey != ""

	// Validate and apply provider defaults if not explicitly set
	if p.LLMProvider != "" {
		if _, ok := llmProviderDefaults[p.LLMProvider]; !ok {
			slog.Warn("Unknown LLM provider, using default: openai", "provider", p.LLMProvider)
			p.LLMProvider = "openai"
		}
	}
	if p.LLMBaseURL == "" || p.LLMModel == "" {
		if defaults, ok := llmProviderDefaults[p.LLMProvider]; ok {
			if p.LLMBaseURL == "" {
				p.LLMBaseURL = defaults.BaseURL
			}
			if p.LLMModel == "" {
				p.LLMModel = defaults.Model
			}
		}
	}

	// Embedding configuration
	p.EmbeddingModel = getEnvOrDefault("REPCIRCLE_AI_EMBEDDING_MODEL", "text-embedding-3-small")
	p.EmbeddingAPIKey = getEnvOrDefault("REPCIRCLE_AI_EMBEDDING_API_KEY", p.LLMAPIKey)
	p.EmbeddingBaseURL = getEnvOrDefault("REPCIRCLE_AI_EMBEDDING_BASE_URL", p.LLMBaseURL)

	// Conversation threading provider
	p.ThreadBaseURL = getEnvOrDefault("REPCIRCLE_AI_THREAD_BASE_URL", p.LLMBaseURL)
	p.ThreadAPIKey = getEnvOrDefault("REPCIRCLE_AI_THREAD_API_KEY", p.LLMAPIKey)

	// Coaching engine tunables. Defaults match observed production behavior;
	// they are knobs, not law.
	p.SnapshotStaleMinutes = getEnvOrDefaultInt("REPCIRCLE_SNAPSHOT_STALE_MINUTES", 30)
	p.SnapshotCacheTTLSeconds = getEnvOrDefaultInt("REPCIRCLE_SNAPSHOT_CACHE_TTL_SECONDS", 30)
	p.RefreshBatchSize = getEnvOrDefaultInt("REPCIRCLE_REFRESH_BATCH_SIZE", 50)
	p.RefreshCooldownSeconds = getEnvOrDefaultInt("REPCIRCLE_REFRESH_COOLDOWN_SECONDS", 120)
	p.RefreshBudgetSeconds = getEnvOrDefaultInt("REPCIRCLE_REFRESH_BUDGET_SECONDS", 60)
	p.RefreshParallelism = getEnvOrDefaultInt("REPCIRCLE_REFRESH_PARALLELISM", 8)
	p.CoachTurnWindow = getEnvOrDefaultInt("REPCIRCLE_COACH_TURN_WINDOW", 4)
	p.CoachChatPerMinute = getEnvOrDefaultInt("REPCIRCLE_COACH_CHAT_PER_MINUTE", 10)
	p.CronSecret = getEnvOrDefault("REPCIRCLE_CRON_SECRET", "")
	p.SessionSecret = getEnvOrDefault("REPCIRCLE_SESSION_SECRET", "")
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Mode == "prod" && p.Data == "" {
		if runtime.GOOS == "windows" {
			p.Data = filepath.Join(os.Getenv("ProgramData"), "repcircle")
			if _, err := os.Stat(p.Data); os.IsNotExist(err) {
				if err := os.MkdirAll(p.Data, 0770); err != nil {
					slog.Error("failed to create data directory", slog.String("data", p.Data), slog.String("error", err.Error()))
					return err
				}
			}
		} else {
			p.Data = "/var/opt/repcircle"
		}
	}

	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		slog.Error("failed to check data dir", slog.String("data", dataDir), slog.String("error", err.Error()))
		return err
	}

	p.Data = dataDir
	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("repcircle_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile) + "?_loc=auto"
	} else if p.Driver == "sqlite" && p.DSN != "" && !strings.Contains(p.DSN, "_loc=") {
		separator := "?"
		if strings.Contains(p.DSN, "?") {
			separator = "&"
		}
		p.DSN += separator + "_loc=auto"
	}

	if p.Mode == "prod" && p.CronSecret == "" {
		slog.Warn("cron secret is empty, the refresh trigger endpoint will reject all requests")
	}

	return nil
}
