package config

import (
	"time"

	"github.com/spf13/viper"
)

// Config holds the service configuration, read from the environment.
type Config struct {
	HTTPAddr    string `mapstructure:"http_addr"`
	PostgresDSN string `mapstructure:"postgres_dsn"`
	LogLevel    string `mapstructure:"log_level"`
	Env         string `mapstructure:"env"`

	RedisAddr     string `mapstructure:"redis_addr"`
	RedisPassword string `mapstructure:"redis_password"`
	RedisDB       int    `mapstructure:"redis_db"`
	RedisStream   string `mapstructure:"redis_stream"`

	SLAScanInterval time.Duration `mapstructure:"sla_scan_interval"`
	SLAWarnFraction float64       `mapstructure:"sla_warn_fraction"`
}

// Load reads configuration from environment variables with sensible
// defaults. Keys are upper-cased names of the mapstructure tags, e.g.
// HTTP_ADDR, POSTGRES_DSN, SLA_SCAN_INTERVAL.
func Load() (Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("http_addr", ":8080")
	v.SetDefault("postgres_dsn", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("env", "dev")
	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("redis_stream", "sla-events")
	v.SetDefault("sla_scan_interval", 15*time.Minute)
	v.SetDefault("sla_warn_fraction", 0.8)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
