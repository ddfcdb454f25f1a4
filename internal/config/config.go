// Package config loads cmd/server's configuration via viper, reading
// environment variables with the same names and defaults the teacher's
// hand-rolled getEnv/getEnvInt main.go used.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds every knob cmd/server needs at startup.
type Config struct {
	Port                    string
	LogLevel                string
	SQLiteURI               string
	JWTSecret               string
	NATSURL                 string
	ExpiryDuration          time.Duration
	CleanupInterval         time.Duration
	PersistInterval         time.Duration
	MaxPerSecond            int
	MaxPerMinute            int
	CursorBroadcastInterval time.Duration
}

// Load reads configuration from WHITEROOM_-prefixed process
// environment variables, applying defaults. No config file is read.
func Load() (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("whiteroom")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("port", "3030")
	v.SetDefault("log_level", "info")
	v.SetDefault("sqlite_uri", "")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("nats_url", "")
	v.SetDefault("expiry_days", 7)
	v.SetDefault("cleanup_interval_hours", 1)
	v.SetDefault("persist_interval_seconds", 3)
	v.SetDefault("rate_limit_max_per_second", 100)
	v.SetDefault("rate_limit_max_per_minute", 1000)
	v.SetDefault("cursor_broadcast_interval_ms", 75)

	cfg := Config{
		Port:                    v.GetString("port"),
		LogLevel:                v.GetString("log_level"),
		SQLiteURI:               v.GetString("sqlite_uri"),
		JWTSecret:               v.GetString("jwt_secret"),
		NATSURL:                 v.GetString("nats_url"),
		ExpiryDuration:          time.Duration(v.GetInt("expiry_days")) * 24 * time.Hour,
		CleanupInterval:         time.Duration(v.GetInt("cleanup_interval_hours")) * time.Hour,
		PersistInterval:         time.Duration(v.GetInt("persist_interval_seconds")) * time.Second,
		MaxPerSecond:            v.GetInt("rate_limit_max_per_second"),
		MaxPerMinute:            v.GetInt("rate_limit_max_per_minute"),
		CursorBroadcastInterval: time.Duration(v.GetInt("cursor_broadcast_interval_ms")) * time.Millisecond,
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("WHITEROOM_JWT_SECRET must be set")
	}
	return nil
}
