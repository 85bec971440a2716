// Package config loads the service configuration from flags, a YAML file,
// the environment and an optional .env file.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	App       = "resume-analyzer"
	EnvPrefix = "RESUME_ANALYZER"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Config struct {
	Addr       string           `mapstructure:"addr"`
	Debug      bool             `mapstructure:"debug"`
	JSON       bool             `mapstructure:"json"`
	Platform   PlatformConfig   `mapstructure:"platform"`
	Storage    StorageConfig    `mapstructure:"storage"`
	KV         KVConfig         `mapstructure:"kv"`
	AI         AIConfig         `mapstructure:"ai"`
	Session    SessionConfig    `mapstructure:"session"`
	Rasterizer RasterizerConfig `mapstructure:"rasterizer"`
	Events     EventsConfig     `mapstructure:"events"`
	Analysis   AnalysisConfig   `mapstructure:"analysis"`
}

type PlatformConfig struct {
	PollInterval     time.Duration `mapstructure:"poll-interval"`
	BootstrapTimeout time.Duration `mapstructure:"bootstrap-timeout"`
}

type StorageConfig struct {
	// Root is a directory on disk. Empty keeps blobs in memory.
	Root string `mapstructure:"root"`
}

type KVConfig struct {
	Backend string      `mapstructure:"backend"`
	Prefix  string      `mapstructure:"prefix"`
	Redis   RedisConfig `mapstructure:"redis"`
	MySQL   MySQLConfig `mapstructure:"mysql"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type MySQLConfig struct {
	DSN string `mapstructure:"dsn"`
}

type AIConfig struct {
	Provider      string       `mapstructure:"provider"`
	FeedbackModel string       `mapstructure:"feedback-model"`
	MaxRetries    int          `mapstructure:"max-retries"`
	MaxLogLength  int          `mapstructure:"max-log-length"`
	Gemini        GeminiConfig `mapstructure:"gemini"`
	OpenAI        OpenAIConfig `mapstructure:"openai"`
}

type GeminiConfig struct {
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
	Model      string `mapstructure:"model"`
}

type OpenAIConfig struct {
	APIKey     string `mapstructure:"api-key"`
	APIKeyFile string `mapstructure:"api-key-file"`
	BaseURL    string `mapstructure:"base-url"`
	Model      string `mapstructure:"model"`
}

type SessionConfig struct {
	Token     string `mapstructure:"token"`
	TokenFile string `mapstructure:"token-file"`
	Secret    string `mapstructure:"secret"`
	Issuer    string `mapstructure:"issuer"`
}

type RasterizerConfig struct {
	Engine     string  `mapstructure:"engine"`
	Scale      float64 `mapstructure:"scale"`
	LicenseKey string  `mapstructure:"license-key"`
}

type EventsConfig struct {
	RabbitMQURL string `mapstructure:"rabbitmq-url"`
	Queue       string `mapstructure:"queue"`
}

type AnalysisConfig struct {
	Timeout time.Duration `mapstructure:"timeout"`
}

// SetDefaults registers every default on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("addr", ":8080")
	v.SetDefault("platform.poll-interval", 100*time.Millisecond)
	v.SetDefault("platform.bootstrap-timeout", 10*time.Second)
	v.SetDefault("kv.backend", "memory")
	v.SetDefault("kv.prefix", "")
	v.SetDefault("kv.redis.addr", "localhost:6379")
	v.SetDefault("ai.provider", "gemini")
	v.SetDefault("ai.feedback-model", "claude-3-7-sonnet")
	v.SetDefault("ai.max-retries", 3)
	v.SetDefault("ai.max-log-length", 512)
	v.SetDefault("ai.gemini.model", "gemini-2.5-flash")
	v.SetDefault("ai.openai.model", "gpt-4o-mini")
	v.SetDefault("session.issuer", App)
	v.SetDefault("rasterizer.engine", "unipdf")
	v.SetDefault("rasterizer.scale", 4.0)
	v.SetDefault("events.queue", "analysis_events")
	v.SetDefault("analysis.timeout", 3*time.Minute)
}

// Init prepares v for Load: .env preloading, environment binding and the
// config file lookup. A missing default config file is not an error.
func Init(v *viper.Viper, cfgFile string) error {
	// .env is optional
	_ = godotenv.Load()

	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName(App)
		v.SetConfigType("yaml")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

// Load unmarshals v into a Config and validates it.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.KV.Backend {
	case "memory":
	case "redis":
		if c.KV.Redis.Addr == "" {
			return fmt.Errorf("%w: kv.redis.addr is required", ErrInvalidConfig)
		}
	case "mysql":
		if c.KV.MySQL.DSN == "" {
			return fmt.Errorf("%w: kv.mysql.dsn is required", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unknown kv backend %q", ErrInvalidConfig, c.KV.Backend)
	}

	switch c.AI.Provider {
	case "gemini", "openai":
	default:
		return fmt.Errorf("%w: unknown ai provider %q", ErrInvalidConfig, c.AI.Provider)
	}

	switch c.Rasterizer.Engine {
	case "unipdf", "fitz":
	default:
		return fmt.Errorf("%w: unknown rasterizer engine %q", ErrInvalidConfig, c.Rasterizer.Engine)
	}
	if c.Rasterizer.Scale <= 0 {
		return fmt.Errorf("%w: rasterizer.scale must be positive", ErrInvalidConfig)
	}

	if c.Platform.PollInterval <= 0 || c.Platform.BootstrapTimeout <= 0 {
		return fmt.Errorf("%w: platform intervals must be positive", ErrInvalidConfig)
	}
	if c.Analysis.Timeout <= 0 {
		return fmt.Errorf("%w: analysis.timeout must be positive", ErrInvalidConfig)
	}
	if c.AI.MaxRetries < 0 {
		return fmt.Errorf("%w: ai.max-retries must not be negative", ErrInvalidConfig)
	}
	return nil
}
