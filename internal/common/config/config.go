package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App          AppConfig               `mapstructure:"app"`
	Server       ServerConfig            `mapstructure:"server"`
	Database     DatabaseConfig          `mapstructure:"database"`
	GenAI        GenAIConfig             `mapstructure:"genai"`
	Catalog      CatalogConfig           `mapstructure:"catalog"`
	Entitlements map[string]Entitlements `mapstructure:"entitlements"`
	Strategies   StrategiesConfig        `mapstructure:"strategies"`
	Logging      LoggingConfig           `mapstructure:"logging"`
	Tracing      TracingConfig           `mapstructure:"tracing"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address         string `mapstructure:"address"`
	MetricsAddress  string `mapstructure:"metrics_address"`
	ReadTimeout     int    `mapstructure:"read_timeout"`     // seconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // seconds
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string.
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// GenAIConfig holds settings for the generation backend (OpenAI-compatible).
type GenAIConfig struct {
	BaseURL        string            `mapstructure:"base_url"`
	APIKey         string            `mapstructure:"api_key"`
	Timeout        int               `mapstructure:"timeout"`        // milliseconds, classification/title calls
	StreamTimeout  int               `mapstructure:"stream_timeout"` // milliseconds, full generation stream
	MaxRetries     int               `mapstructure:"max_retries"`
	Models         map[string]string `mapstructure:"models"` // alias -> concrete model id
}

// ModelID resolves a model alias to the backend identifier. Unknown
// aliases pass through unchanged so the backend decides.
func (g GenAIConfig) ModelID(alias string) string {
	if id, ok := g.Models[alias]; ok && id != "" {
		return id
	}
	return alias
}

// CatalogConfig holds settings for the external pricing catalog.
type CatalogConfig struct {
	URL        string `mapstructure:"url"`
	Timeout    int    `mapstructure:"timeout"`     // milliseconds
	RefreshTTL int    `mapstructure:"refresh_ttl"` // seconds
}

// Entitlements configures allowed usage volume per user class.
type Entitlements struct {
	MaxMessagesPerDay     int      `mapstructure:"max_messages_per_day"`
	MaxChatAPICallsPerDay int      `mapstructure:"max_chat_api_calls_per_day"`
	AvailableStrategies   []string `mapstructure:"available_strategies"`
}

// StrategiesConfig parameterizes each generation strategy independently.
type StrategiesConfig struct {
	Default       StrategyConfig `mapstructure:"default"`
	ResumeOpt     StrategyConfig `mapstructure:"resume_opt"`
	MockInterview StrategyConfig `mapstructure:"mock_interview"`
}

type StrategyConfig struct {
	Model           string `mapstructure:"model"`             // model alias
	MaxOutputTokens int    `mapstructure:"max_output_tokens"` // 0 = backend default
	StepLimit       int    `mapstructure:"step_limit"`        // 0 = unconstrained
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// TracingConfig holds Jaeger exporter settings.
type TracingConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}
