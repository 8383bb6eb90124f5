package config

import (
	"fmt"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DSNEnv overrides postgres.dsn when set.
const DSNEnv = "DATABASE_URL"

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Storage     string            `yaml:"storage" validate:"oneof=memory postgres"`
	Postgres    PostgresConfig    `yaml:"postgres"`
	Auth        AuthConfig        `yaml:"auth"`
	Leaderboard LeaderboardConfig `yaml:"leaderboard"`
	CORS        CORSConfig        `yaml:"cors"`
	RateLimit   RateLimitConfig   `yaml:"rate_limit"`
	Log         LogConfig         `yaml:"log"`
	Tracing     TracingConfig     `yaml:"tracing"`
}

type ServerConfig struct {
	Port         string        `yaml:"port" validate:"required,numeric"`
	ReadTimeout  time.Duration `yaml:"read_timeout" validate:"gt=0"`
	WriteTimeout time.Duration `yaml:"write_timeout" validate:"gt=0"`
}

type PostgresConfig struct {
	DSN           string `yaml:"dsn" validate:"required_if=Enabled true"`
	MigrationsDir string `yaml:"migrations_dir" validate:"required"`
	MaxConns      int32  `yaml:"max_conns" validate:"gt=0"`
	// Enabled is derived from Config.Storage and never read from the file.
	Enabled bool `yaml:"-"`
}

type AuthConfig struct {
	Secret   string        `yaml:"secret" validate:"required,min=8"`
	TokenTTL time.Duration `yaml:"token_ttl" validate:"gt=0"`
}

type LeaderboardConfig struct {
	WindowHours int  `yaml:"window_hours" validate:"gt=0"`
	TopN        int  `yaml:"top_n" validate:"gt=0"`
	Strict      bool `yaml:"strict"`
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" validate:"min=1"`
}

type RateLimitConfig struct {
	RPS   float64 `yaml:"rps" validate:"gt=0"`
	Burst int     `yaml:"burst" validate:"gt=0"`
}

type LogConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

type TracingConfig struct {
	Exporter string `yaml:"exporter" validate:"oneof=none stdout"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         "8080",
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Storage: "memory",
		Postgres: PostgresConfig{
			MigrationsDir: "internal/storage/postgres/migrations",
			MaxConns:      10,
		},
		Auth: AuthConfig{
			Secret:   "change-me-please",
			TokenTTL: 24 * time.Hour,
		},
		Leaderboard: LeaderboardConfig{WindowHours: 24, TopN: 5},
		CORS:        CORSConfig{AllowedOrigins: []string{"*"}},
		RateLimit:   RateLimitConfig{RPS: 20, Burst: 40},
		Log:         LogConfig{Level: "info", Format: "text"},
		Tracing:     TracingConfig{Exporter: "none"},
	}
}

// Load reads a YAML file on top of Default. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if dsn := os.Getenv(DSNEnv); dsn != "" {
		cfg.Postgres.DSN = dsn
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	c.Postgres.Enabled = c.Storage == "postgres"
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
