package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Env holds the process configuration read from the environment.
type Env struct {
	Port               string
	MarketplaceURL     string
	MarketplaceTimeout time.Duration

	LLMProvider      string
	OpenAIAPIKey     string
	OpenAIBaseURL    string
	OpenAIModel      string
	AnthropicAPIKey  string
	AnthropicBaseURL string
	AnthropicModel   string

	AppConfigPath      string
	FrontendConfigPath string
	CityCacheTTL       time.Duration
	MaxToolIterations  int

	LogLevel  string
	LogFormat string
}

// LoadEnv loads .env (if present) and reads the environment with defaults.
func LoadEnv(log logrus.FieldLogger) *Env {
	if err := godotenv.Load(); err != nil {
		log.Info("No .env file found, using environment variables")
	}
	return FromEnviron(os.Getenv, log)
}

// FromEnviron builds an Env from a lookup function.
func FromEnviron(getenv func(string) string, log logrus.FieldLogger) *Env {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}
	duration := func(key string, def time.Duration) time.Duration {
		raw := getenv(key)
		if raw == "" {
			return def
		}
		d, err := time.ParseDuration(raw)
		if err != nil || d <= 0 {
			log.WithField("key", key).WithField("value", raw).Warn("invalid duration, using default")
			return def
		}
		return d
	}
	integer := func(key string, def int) int {
		raw := getenv(key)
		if raw == "" {
			return def
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			log.WithField("key", key).WithField("value", raw).Warn("invalid integer, using default")
			return def
		}
		return n
	}

	return &Env{
		Port:               get("PORT", "8080"),
		MarketplaceURL:     strings.TrimRight(get("MARKETPLACE_API_URL", ""), "/"),
		MarketplaceTimeout: duration("MARKETPLACE_TIMEOUT", 15*time.Second),

		LLMProvider:      strings.ToLower(get("LLM_PROVIDER", "openai")),
		OpenAIAPIKey:     get("OPENAI_API_KEY", ""),
		OpenAIBaseURL:    get("OPENAI_BASE_URL", ""),
		OpenAIModel:      get("OPENAI_MODEL", "gpt-4o-mini"),
		AnthropicAPIKey:  get("ANTHROPIC_API_KEY", ""),
		AnthropicBaseURL: get("ANTHROPIC_BASE_URL", "https://api.anthropic.com/v1"),
		AnthropicModel:   get("ANTHROPIC_MODEL", "claude-3-5-sonnet-latest"),

		AppConfigPath:      get("APP_CONFIG_PATH", "config/app_config.json"),
		FrontendConfigPath: get("FRONTEND_CONFIG_PATH", ""),
		CityCacheTTL:       duration("CITY_CACHE_TTL", 6*time.Hour),
		MaxToolIterations:  integer("MAX_TOOL_ITERATIONS", 5),

		LogLevel:  get("LOG_LEVEL", "info"),
		LogFormat: get("LOG_FORMAT", "text"),
	}
}
