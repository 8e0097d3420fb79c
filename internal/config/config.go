// Package config loads service settings from configs/config.yml, with
// OCCUPANCY_* environment overrides (dots become underscores, so db.path is
// OCCUPANCY_DB_PATH).
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const envPrefix = "OCCUPANCY"

type Config struct {
	Port      string          `mapstructure:"port" validate:"required"`
	Log       LogConfig       `mapstructure:"log"`
	DB        DBConfig        `mapstructure:"db"`
	Server    ServerConfig    `mapstructure:"server"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Cache     CacheConfig     `mapstructure:"cache"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Runs      RunsConfig      `mapstructure:"runs"`
	Engine    EngineConfig    `mapstructure:"engine"`
	Tracing   TracingConfig   `mapstructure:"tracing"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=console json"`
}

type DBConfig struct {
	Path string `mapstructure:"path" validate:"required"`
}

type ServerConfig struct {
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

type AuthConfig struct {
	SigningKey string        `mapstructure:"signing_key" validate:"required"`
	TokenTTL   time.Duration `mapstructure:"token_ttl" validate:"gt=0"`
}

// CacheConfig selects the result cache. Driver "none" disables caching.
type CacheConfig struct {
	Driver   string        `mapstructure:"driver" validate:"oneof=none redis"`
	Addr     string        `mapstructure:"addr" validate:"required_if=Driver redis"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db" validate:"gte=0"`
	TTL      time.Duration `mapstructure:"ttl" validate:"gte=0"`
	Prefix   string        `mapstructure:"prefix"`
}

// RateLimitConfig throttles the compute endpoints. RPS 0 disables it.
type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps" validate:"gte=0"`
	Burst int     `mapstructure:"burst" validate:"gte=0"`
}

type RunsConfig struct {
	Retention      time.Duration `mapstructure:"retention" validate:"gt=0"`
	PruneInterval  time.Duration `mapstructure:"prune_interval" validate:"gt=0"`
	StreamInterval time.Duration `mapstructure:"stream_interval" validate:"gt=0"`
	StreamLimit    int           `mapstructure:"stream_limit" validate:"gt=0"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
}

// EngineConfig tunes the solver. Zero values take the engine defaults.
type EngineConfig struct {
	MaxIterations       int     `mapstructure:"max_iterations" validate:"gte=0"`
	Tolerance           float64 `mapstructure:"tolerance" validate:"gte=0"`
	RowTolerance        float64 `mapstructure:"row_tolerance" validate:"gte=0"`
	FixedPointTolerance float64 `mapstructure:"fixed_point_tolerance" validate:"gte=0"`
	CesaroWindow        int     `mapstructure:"cesaro_window" validate:"gte=0"`
	MaxStates           int     `mapstructure:"max_states" validate:"gt=0"`
	DefaultHours        int     `mapstructure:"default_hours" validate:"gt=0"`
}

type TracingConfig struct {
	Exporter string `mapstructure:"exporter" validate:"oneof=none stdout"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("db.path", "occupancy.db")

	v.SetDefault("server.read_header_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("auth.signing_key", "change-me")
	v.SetDefault("auth.token_ttl", time.Hour)

	v.SetDefault("cache.driver", "none")
	v.SetDefault("cache.addr", "")
	v.SetDefault("cache.password", "")
	v.SetDefault("cache.db", 0)
	v.SetDefault("cache.ttl", 24*time.Hour)
	v.SetDefault("cache.prefix", "occupancy:result:")

	v.SetDefault("ratelimit.rps", 20.0)
	v.SetDefault("ratelimit.burst", 40)

	v.SetDefault("runs.retention", 7*24*time.Hour)
	v.SetDefault("runs.prune_interval", time.Hour)
	v.SetDefault("runs.stream_interval", time.Second)
	v.SetDefault("runs.stream_limit", 20)
	v.SetDefault("runs.allowed_origins", []string{})

	v.SetDefault("engine.max_iterations", 10_000)
	v.SetDefault("engine.tolerance", 1e-8)
	v.SetDefault("engine.row_tolerance", 1e-6)
	v.SetDefault("engine.fixed_point_tolerance", 1e-6)
	v.SetDefault("engine.cesaro_window", 100)
	v.SetDefault("engine.max_states", 256)
	v.SetDefault("engine.default_hours", 10_000)

	v.SetDefault("tracing.exporter", "none")
}

// Load reads configuration. With an empty path it looks for config.yml under
// ./configs and the working directory and falls back to defaults when none is
// found; an explicit path must exist.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yml")
		v.AddConfigPath("configs")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks field constraints.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
