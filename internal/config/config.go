// Package config provides configuration management using viper.
// It supports loading from YAML files and environment variable overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Session    SessionConfig    `mapstructure:"session"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Game       GameConfig       `mapstructure:"game"`
	MasterData MasterDataConfig `mapstructure:"masterdata"`
}

// ServerConfig holds HTTP listener configuration.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// LogConfig holds logger configuration.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // console or json
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	PoolSize        int           `mapstructure:"pool_size"`
	ConnectTimeout  time.Duration `mapstructure:"connect_timeout"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `mapstructure:"max_conn_idle_time"`
}

// RedisConfig holds the key-value store connection configuration.
// Addr "memory" selects the in-process store.
type RedisConfig struct {
	Addr        string        `mapstructure:"addr"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	PoolSize    int           `mapstructure:"pool_size"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
}

// SessionConfig holds login session and per-user lock settings.
type SessionConfig struct {
	TTL               time.Duration `mapstructure:"ttl"`
	LockTTL           time.Duration `mapstructure:"lock_ttl"`
	LockRenewInterval time.Duration `mapstructure:"lock_renew_interval"`
}

// CacheConfig holds read-through cache settings.
type CacheConfig struct {
	TTL      time.Duration `mapstructure:"ttl"`
	StageTTL time.Duration `mapstructure:"stage_ttl"`
}

// GameConfig holds balance values that are not part of master data.
type GameConfig struct {
	StartingGold    int64         `mapstructure:"starting_gold"`
	StartingGem     int64         `mapstructure:"starting_gem"`
	StartingLevel   int           `mapstructure:"starting_level"`
	DefaultPageSize int           `mapstructure:"default_page_size"`
	MaxPageSize     int           `mapstructure:"max_page_size"`
	MailTTL         time.Duration `mapstructure:"mail_ttl"`
}

// MasterDataConfig points at the reference tables loaded at boot.
type MasterDataConfig struct {
	Path string `mapstructure:"path"`
}

// DSN returns the PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		d.User, d.Password, d.Host, d.Port, d.Name,
	)
}

// UsesMemoryStore reports whether the in-process key-value store is selected.
func (r *RedisConfig) UsesMemoryStore() bool {
	return r.Addr == "memory"
}

// Load reads configuration from file and environment variables.
// It looks for config.yaml in the config directory.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configPath)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// e.g. DATABASE_HOST, REDIS_ADDR, SESSION_TTL
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Config file is optional, env vars can provide everything
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects settings that would break the request pipeline.
func (c *Config) Validate() error {
	if c.Session.LockTTL <= 0 {
		return fmt.Errorf("session.lock_ttl must be positive")
	}
	if c.Session.LockRenewInterval >= c.Session.LockTTL {
		return fmt.Errorf("session.lock_renew_interval (%s) must be shorter than session.lock_ttl (%s)",
			c.Session.LockRenewInterval, c.Session.LockTTL)
	}
	if c.Game.DefaultPageSize <= 0 || c.Game.DefaultPageSize > c.Game.MaxPageSize {
		return fmt.Errorf("game.default_page_size must be in 1..%d", c.Game.MaxPageSize)
	}
	if c.MasterData.Path == "" {
		return fmt.Errorf("masterdata.path is required")
	}
	return nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "10s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "game")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "game")
	v.SetDefault("database.pool_size", 20)
	v.SetDefault("database.connect_timeout", "10s")
	v.SetDefault("database.max_conn_lifetime", "1h")
	v.SetDefault("database.max_conn_idle_time", "30m")

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)
	v.SetDefault("redis.dial_timeout", "10s")

	v.SetDefault("session.ttl", "60m")
	v.SetDefault("session.lock_ttl", "3s")
	v.SetDefault("session.lock_renew_interval", "1s")

	v.SetDefault("cache.ttl", "10m")
	v.SetDefault("cache.stage_ttl", "30m")

	v.SetDefault("game.starting_gold", 100)
	v.SetDefault("game.starting_gem", 50)
	v.SetDefault("game.starting_level", 1)
	v.SetDefault("game.default_page_size", 10)
	v.SetDefault("game.max_page_size", 100)
	v.SetDefault("game.mail_ttl", "720h")

	v.SetDefault("masterdata.path", "config/masterdata.yaml")
}
