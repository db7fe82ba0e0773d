// Package config loads the runtime configuration from the environment, with
// a .env file picked up in development.
package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the full runtime configuration.
type Config struct {
	// Provider selects the completion backend: gemini, openai or anthropic.
	Provider string `mapstructure:"provider"`
	Model    string `mapstructure:"model"`

	GeminiAPIKey    string `mapstructure:"gemini_api_key"`
	OpenAIAPIKey    string `mapstructure:"openai_api_key"`
	AnthropicAPIKey string `mapstructure:"anthropic_api_key"`

	TelegramBotToken string `mapstructure:"telegram_bot_token"`
	APIFootballKey   string `mapstructure:"api_football_key"`

	// Calendar OAuth2 client settings plus the token cache location.
	GoogleClientID     string `mapstructure:"google_client_id"`
	GoogleClientSecret string `mapstructure:"google_client_secret"`
	GoogleTokenFile    string `mapstructure:"google_token_file"`

	EmbeddingModel string `mapstructure:"embedding_model"`
	EmbeddingDim   int    `mapstructure:"embedding_dim"`

	RetrievalK        int     `mapstructure:"retrieval_k"`
	RetrievalMinScore float64 `mapstructure:"retrieval_min_score"`
	PromptTokenBudget int     `mapstructure:"prompt_token_budget"`
	MaxIterations     int     `mapstructure:"max_iterations"`

	IngestDaysPast       int    `mapstructure:"ingest_days_past"`
	IngestDaysFuture     int    `mapstructure:"ingest_days_future"`
	IngestRefreshMinutes int    `mapstructure:"ingest_refresh_minutes"`
	LogLevel             string `mapstructure:"log_level"`
	LogFormat            string `mapstructure:"log_format"`
}

// Load reads configuration from LEO_* environment variables, loading a .env
// file first when one exists.
func Load() (*Config, error) {
	// Missing .env is fine, env vars may come from the real environment.
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("LEO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	bindKeys(v)

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	return cfg, nil
}

// Validate checks the settings a running bot cannot do without.
func (c *Config) Validate() error {
	switch c.Provider {
	case "gemini", "openai", "anthropic":
	default:
		return fmt.Errorf("unknown provider: %q", c.Provider)
	}
	if c.Provider == "gemini" && c.GeminiAPIKey == "" {
		return fmt.Errorf("gemini provider needs LEO_GEMINI_API_KEY")
	}
	if c.EmbeddingDim <= 0 {
		return fmt.Errorf("embedding dimension must be positive, got %d", c.EmbeddingDim)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("provider", "gemini")
	v.SetDefault("model", "")
	v.SetDefault("embedding_model", "text-embedding-004")
	v.SetDefault("embedding_dim", 768)
	v.SetDefault("google_token_file", "token.json")
	v.SetDefault("retrieval_k", 10)
	v.SetDefault("retrieval_min_score", 0.5)
	v.SetDefault("prompt_token_budget", 8000)
	v.SetDefault("max_iterations", 5)
	v.SetDefault("ingest_days_past", 1)
	v.SetDefault("ingest_days_future", 7)
	v.SetDefault("ingest_refresh_minutes", 0)
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "json")
}

// bindKeys makes AutomaticEnv see keys that have no default value.
func bindKeys(v *viper.Viper) {
	for _, key := range []string{
		"gemini_api_key",
		"openai_api_key",
		"anthropic_api_key",
		"telegram_bot_token",
		"api_football_key",
		"google_client_id",
		"google_client_secret",
	} {
		_ = v.BindEnv(key)
	}
}
