package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for finlens-engine.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values. Secrets (database
// password, oracle API key) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8090"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// Database configuration (hosted financial schema, read-only)
	Database DatabaseConfig `yaml:"database"`

	// Oracle (language model) configuration
	LLM LLMConfig `yaml:"llm"`

	// Engine timeout budget and result caps
	Engine EngineConfig `yaml:"engine"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"finlens"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"finlens"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`
}

// ConnectionString returns a PostgreSQL connection string.
func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Database, c.SSLMode,
	)
}

// LLMConfig holds configuration for the text-completion oracle.
type LLMConfig struct {
	// Provider selects the client implementation: "openai" (any
	// OpenAI-compatible endpoint) or "anthropic".
	Provider string `yaml:"provider" env:"LLM_PROVIDER" env-default:"openai"`
	BaseURL  string `yaml:"base_url" env:"LLM_BASE_URL" env-default:""`
	Model    string `yaml:"model" env:"LLM_MODEL" env-default:"gpt-4o-mini"`
	APIKey   string `yaml:"-" env:"LLM_API_KEY"` // Secret - not in YAML

	PlannerMaxTokens   int `yaml:"planner_max_tokens" env:"LLM_PLANNER_MAX_TOKENS" env-default:"500"`
	ResponderMaxTokens int `yaml:"responder_max_tokens" env:"LLM_RESPONDER_MAX_TOKENS" env-default:"300"`
}

// EngineConfig holds the per-request timeout budget and result caps.
type EngineConfig struct {
	OverallTimeoutSeconds int `yaml:"overall_timeout_seconds" env:"ENGINE_OVERALL_TIMEOUT_SECONDS" env-default:"25"`
	OracleTimeoutSeconds  int `yaml:"oracle_timeout_seconds" env:"ENGINE_ORACLE_TIMEOUT_SECONDS" env-default:"8"`
	QueryTimeoutSeconds   int `yaml:"query_timeout_seconds" env:"ENGINE_QUERY_TIMEOUT_SECONDS" env-default:"10"`

	ListRowCap         int `yaml:"list_row_cap" env:"ENGINE_LIST_ROW_CAP" env-default:"20"`
	FallbackListRowCap int `yaml:"fallback_list_row_cap" env:"ENGINE_FALLBACK_LIST_ROW_CAP" env-default:"50"`

	MaxConcurrentQueries int `yaml:"max_concurrent_queries" env:"ENGINE_MAX_CONCURRENT_QUERIES" env-default:"6"`
}

// OverallTimeout is the top-level wall-clock budget for one request.
func (c *EngineConfig) OverallTimeout() time.Duration {
	return time.Duration(c.OverallTimeoutSeconds) * time.Second
}

// OracleTimeout is the per-call budget for planner and responder oracle calls.
func (c *EngineConfig) OracleTimeout() time.Duration {
	return time.Duration(c.OracleTimeoutSeconds) * time.Second
}

// QueryTimeout is the per-entry budget for one database query.
func (c *EngineConfig) QueryTimeout() time.Duration {
	return time.Duration(c.QueryTimeoutSeconds) * time.Second
}

// Load reads configuration from config.yaml with environment variable
// overrides. Secrets must come from environment variables (yaml:"-" fields).
// Missing database credentials or oracle API key fail here, before the
// server accepts any request.
func Load(version string) (*Config, error) {
	cfg := &Config{Version: version}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		// Config file is optional; environment-only deployments are fine.
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config.yaml: %w", err)
		}
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Database.Password == "" {
		return errors.New("PGPASSWORD is required")
	}
	if c.LLM.APIKey == "" {
		return errors.New("LLM_API_KEY is required")
	}
	switch c.LLM.Provider {
	case "openai", "anthropic":
	default:
		return fmt.Errorf("unsupported LLM provider %q (expected openai or anthropic)", c.LLM.Provider)
	}
	if c.Engine.OverallTimeoutSeconds <= 0 || c.Engine.OracleTimeoutSeconds <= 0 || c.Engine.QueryTimeoutSeconds <= 0 {
		return errors.New("engine timeouts must be positive")
	}
	return nil
}
