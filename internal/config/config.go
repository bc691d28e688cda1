package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dkeye/Board/internal/core"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const (
	ArchiveOff   = "off"
	ArchiveRedis = "redis"
	ArchiveQueue = "queue"
)

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	StaticPath string        `mapstructure:"static_path"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	Secret     string        `mapstructure:"secret"`
	LogLevel   string        `mapstructure:"log_level"`

	Room      RoomConfig      `mapstructure:"room"`
	Payload   PayloadConfig   `mapstructure:"payload"`
	Signal    SignalConfig    `mapstructure:"signal"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Archive   ArchiveConfig   `mapstructure:"archive"`
	PubSub    PubSubConfig    `mapstructure:"pubsub"`
	Discovery DiscoveryConfig `mapstructure:"discovery"`
}

type RoomConfig struct {
	CodeLength         int    `mapstructure:"code_length"`
	MaxCodeAttempts    int    `mapstructure:"max_code_attempts"`
	UniqueDisplayNames bool   `mapstructure:"unique_display_names"`
	ReapRule           string `mapstructure:"reap_rule"`
	// MaxParallel bounds concurrent notifications per broadcast.
	MaxParallel int `mapstructure:"max_parallel"`
}

type PayloadConfig struct {
	MaxBytes int `mapstructure:"max_bytes"`
}

type SignalConfig struct {
	SendBuffer     int           `mapstructure:"send_buffer"`
	DrawRateLimit  int           `mapstructure:"draw_rate_limit"`
	DrawRateWindow time.Duration `mapstructure:"draw_rate_window"`
}

type RedisConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Addr        string        `mapstructure:"addr"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	KeyPrefix   string        `mapstructure:"key_prefix"`
	SnapshotTTL time.Duration `mapstructure:"snapshot_ttl"`
}

type ArchiveConfig struct {
	Mode        string `mapstructure:"mode"`
	Concurrency int    `mapstructure:"concurrency"`
}

type PubSubConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type DiscoveryConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Service string `mapstructure:"service"`
}

// Load reads config/config.<CONFIG_ENV>.yaml (env "dev" by default) after
// loading a .env file if one exists.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Str("module", "config").Err(err).Msg(".env not loaded")
	}
	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	return LoadFrom(fmt.Sprintf("config/config.%s.yaml", env))
}

func LoadFrom(fileName string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile(fileName)
	v.SetEnvPrefix("BOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		log.Warn().Str("module", "config").Str("file", fileName).Msg("config file not found, using defaults")
	} else {
		log.Info().Str("module", "config").Str("file", fileName).Msg("loaded config")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	log.Info().
		Str("module", "config").
		Str("mode", cfg.Mode).
		Int("port", cfg.Port).
		Str("static", cfg.StaticPath).
		Str("reap_rule", cfg.Room.ReapRule).
		Str("archive", cfg.Archive.Mode).
		Msg("config ready")
	return &cfg, nil
}

// Every key needs a default so AutomaticEnv can override it.
func setDefaults(v *viper.Viper) {
	v.SetDefault("mode", "release")
	v.SetDefault("port", 8080)
	v.SetDefault("static_path", "./web")
	v.SetDefault("read_limit", 65536)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("secret", "")
	v.SetDefault("log_level", "info")

	v.SetDefault("room.code_length", core.DefaultCodeLength)
	v.SetDefault("room.max_code_attempts", 32)
	v.SetDefault("room.unique_display_names", true)
	v.SetDefault("room.reap_rule", core.ReapRuleEmptyAfterCoordinator)
	v.SetDefault("room.max_parallel", 16)

	v.SetDefault("payload.max_bytes", core.DefaultMaxPayloadBytes)

	v.SetDefault("signal.send_buffer", 64)
	v.SetDefault("signal.draw_rate_limit", 120)
	v.SetDefault("signal.draw_rate_window", "1s")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", "board:")
	v.SetDefault("redis.snapshot_ttl", "24h")

	v.SetDefault("archive.mode", ArchiveOff)
	v.SetDefault("archive.concurrency", 4)

	v.SetDefault("pubsub.enabled", false)

	v.SetDefault("discovery.enabled", false)
	v.SetDefault("discovery.service", "_board._tcp")
}

func (c *Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.Payload.MaxBytes <= 0 {
		errs = append(errs, errors.New("payload.max_bytes must be positive"))
	}
	if c.Room.CodeLength < 4 {
		errs = append(errs, fmt.Errorf("room.code_length %d is too short", c.Room.CodeLength))
	}
	if c.Room.MaxParallel <= 0 {
		errs = append(errs, errors.New("room.max_parallel must be positive"))
	}
	if _, err := core.ParseReapRule(c.Room.ReapRule); err != nil {
		errs = append(errs, fmt.Errorf("room.reap_rule: %w", err))
	}
	switch c.Archive.Mode {
	case ArchiveOff:
	case ArchiveRedis, ArchiveQueue:
		if !c.Redis.Enabled {
			errs = append(errs, fmt.Errorf("archive.mode %q needs redis.enabled", c.Archive.Mode))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown archive.mode %q", c.Archive.Mode))
	}
	if c.PubSub.Enabled && !c.Redis.Enabled {
		errs = append(errs, errors.New("pubsub.enabled needs redis.enabled"))
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}
