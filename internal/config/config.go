package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"ctchen222/Cosmic-Tic-Tac-Toe/internal/game"

	"github.com/spf13/viper"
)

// Store drivers
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Store     StoreConfig     `mapstructure:"store"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Session   SessionConfig   `mapstructure:"session"`
	Bot       BotConfig       `mapstructure:"bot"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Log       LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
}

type StoreConfig struct {
	Driver string `mapstructure:"driver"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type SessionConfig struct {
	TTL time.Duration `mapstructure:"ttl"`
}

type BotConfig struct {
	ThinkTime         time.Duration `mapstructure:"think_time"`
	DefaultDifficulty string        `mapstructure:"default_difficulty"`
}

type TelemetryConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Endpoint    string `mapstructure:"endpoint"`
	Stdout      bool   `mapstructure:"stdout"`
	ServiceName string `mapstructure:"service_name"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.shutdown_timeout", 5*time.Second)
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("store.driver", StoreMemory)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("session.ttl", 24*time.Hour)
	v.SetDefault("bot.think_time", 500*time.Millisecond)
	v.SetDefault("bot.default_difficulty", string(game.Hard))
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.endpoint", "otel-collector:4317")
	v.SetDefault("telemetry.stdout", false)
	v.SetDefault("telemetry.service_name", "cosmic-tic-tac-toe")
	v.SetDefault("log.level", "info")
}

// Load reads configuration from defaults, the optional file at cfgPath and
// TICTACTOE_* environment variables, in increasing precedence.
// REDIS_CONNSTRING is honored for the Redis address.
func Load(cfgPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("TICTACTOE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("redis.addr", "TICTACTOE_REDIS_ADDR", "REDIS_CONNSTRING"); err != nil {
		return nil, err
	}

	if cfgPath != "" {
		v.SetConfigFile(cfgPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", cfgPath, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values viper cannot type-check.
func (c *Config) Validate() error {
	var errs []error
	switch c.Store.Driver {
	case StoreMemory, StoreRedis:
	default:
		errs = append(errs, fmt.Errorf("store.driver must be %q or %q, got %q", StoreMemory, StoreRedis, c.Store.Driver))
	}
	if _, err := game.ParseDifficulty(c.Bot.DefaultDifficulty); err != nil {
		errs = append(errs, fmt.Errorf("bot.default_difficulty: %w", err))
	}
	if c.Bot.ThinkTime < 0 {
		errs = append(errs, errors.New("bot.think_time must not be negative"))
	}
	if c.Session.TTL < 0 {
		errs = append(errs, errors.New("session.ttl must not be negative"))
	}
	return errors.Join(errs...)
}

// DefaultDifficulty returns the parsed bot.default_difficulty.
func (c *Config) DefaultDifficulty() game.Difficulty {
	d, err := game.ParseDifficulty(c.Bot.DefaultDifficulty)
	if err != nil {
		return game.Hard
	}
	return d
}
