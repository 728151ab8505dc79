package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Global singleton so infrastructure packages can reach config without a
// constructor chain.
var globalConfig *Config

// Config holds all environment backed configuration for chat-api.
type Config struct {
	// HTTP Server
	HTTPPort    int `env:"HTTP_PORT" envDefault:"8080"`
	MetricsPort int `env:"METRICS_PORT" envDefault:"9091"`

	// PostgreSQL
	DatabaseURL string `env:"DATABASE_URL,notEmpty"`
	DBReadDSN   string `env:"DB_POSTGRESQL_READ_DSN"`
	AutoMigrate bool   `env:"AUTO_MIGRATE" envDefault:"true"`

	// Upstream GenAI completion API
	GenAIBaseURL           string        `env:"GENAI_BASE_URL" envDefault:"https://genai.rcac.purdue.edu"`
	GenAIAPIKey            string        `env:"GENAI_API_KEY"`
	GenAIModel             string        `env:"GENAI_MODEL" envDefault:"gpt-stat350"`
	GenAITemperature       float32       `env:"GENAI_TEMPERATURE" envDefault:"0.7"`
	GenAIMaxTokens         int           `env:"GENAI_MAX_TOKENS" envDefault:"2000"`
	CompletionTimeout      time.Duration `env:"COMPLETION_TIMEOUT" envDefault:"120s"`
	CompletionMaxRetries   int           `env:"COMPLETION_MAX_RETRIES" envDefault:"3"`
	CompletionRetryBackoff time.Duration `env:"COMPLETION_RETRY_BACKOFF" envDefault:"1s"`

	// Chat behaviour
	ContextWindow int `env:"CONTEXT_WINDOW" envDefault:"50"`
	TitleMaxChars int `env:"TITLE_MAX_CHARS" envDefault:"50"`

	// Retention
	RetentionDays             int     `env:"RETENTION_DAYS" envDefault:"90"`
	RetentionSweepCron        string  `env:"RETENTION_SWEEP_CRON" envDefault:"0 * * * *"`
	RetentionSweepProbability float64 `env:"RETENTION_SWEEP_PROBABILITY" envDefault:"0.01"`

	// File uploads
	UploadMaxMB       int      `env:"UPLOAD_MAX_MB" envDefault:"10"`
	UploadAllowedExts []string `env:"UPLOAD_ALLOWED_EXTS" envSeparator:"," envDefault:".txt,.pdf,.csv,.xlsx,.json,.py,.md"`
	ExtractMaxChars   int      `env:"EXTRACT_MAX_CHARS" envDefault:"50000"`

	// Rate limiting
	RateLimitEnabled   bool    `env:"RATE_LIMIT_ENABLED" envDefault:"true"`
	RateLimitPerMinute float64 `env:"RATE_LIMIT_PER_MINUTE" envDefault:"30"`

	// Session identification
	SessionTimeout time.Duration `env:"SESSION_TIMEOUT" envDefault:"120m"`

	// Course branding surfaced on /config-info
	CourseName    string `env:"COURSE_NAME" envDefault:"STAT 350"`
	AssistantName string `env:"ASSISTANT_NAME" envDefault:"Course Assistant"`

	// CORS
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	// Observability / Logging
	ServiceName string `env:"SERVICE_NAME" envDefault:"chat-api"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"LOG_FORMAT" envDefault:"console"`
}

// Load parses environment variables into Config and performs minimal validation.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if _, err := url.ParseRequestURI(cfg.GenAIBaseURL); err != nil {
		return nil, fmt.Errorf("invalid GENAI_BASE_URL: %w", err)
	}
	cfg.GenAIBaseURL = strings.TrimRight(cfg.GenAIBaseURL, "/")

	if cfg.ContextWindow <= 0 {
		return nil, errors.New("CONTEXT_WINDOW must be positive")
	}
	if cfg.RetentionDays <= 0 {
		return nil, errors.New("RETENTION_DAYS must be positive")
	}
	if cfg.RetentionSweepProbability < 0 || cfg.RetentionSweepProbability > 1 {
		return nil, errors.New("RETENTION_SWEEP_PROBABILITY must be within [0,1]")
	}

	normalized := make([]string, 0, len(cfg.UploadAllowedExts))
	for _, ext := range cfg.UploadAllowedExts {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext == "" {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		normalized = append(normalized, ext)
	}
	cfg.UploadAllowedExts = normalized

	cfg.LogLevel = strings.ToLower(cfg.LogLevel)
	cfg.LogFormat = strings.ToLower(cfg.LogFormat)

	globalConfig = cfg
	return cfg, nil
}

// GetGlobal returns the global config instance for backwards compatibility.
// Deprecated: Use dependency injection with Load() instead.
func GetGlobal() *Config {
	return globalConfig
}

// UploadMaxBytes returns the upload size cap in bytes.
func (c *Config) UploadMaxBytes() int64 {
	return int64(c.UploadMaxMB) * 1024 * 1024
}

// ExtensionAllowed reports whether an upload extension is permitted.
func (c *Config) ExtensionAllowed(ext string) bool {
	ext = strings.ToLower(ext)
	for _, allowed := range c.UploadAllowedExts {
		if ext == allowed {
			return true
		}
	}
	return false
}

var Version = "dev"

func IsDev() bool {
	return strings.HasPrefix(Version, "dev")
}
