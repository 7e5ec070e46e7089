// Package config holds the protocol constants of the random chat and loads
// the runtime configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the runtime configuration of the server.
type Config struct {
	HTTPAddr  string
	JWTSecret string
	LogLevel  string
	LogFormat string
	GinMode   string

	StreamTick         time.Duration
	ReapInterval       time.Duration
	PendingTimeout     time.Duration
	PairedIdleTimeout  time.Duration
	ChannelIdleTimeout time.Duration
}

// Load reads an optional .env file and then the process environment.
// Values already present in the environment win over the .env file.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		HTTPAddr:           v.GetString("HTTP_ADDR"),
		JWTSecret:          v.GetString("JWT_SECRET"),
		LogLevel:           strings.ToLower(v.GetString("LOG_LEVEL")),
		LogFormat:          strings.ToLower(v.GetString("LOG_FORMAT")),
		GinMode:            v.GetString("GIN_MODE"),
		StreamTick:         v.GetDuration("STREAM_TICK"),
		ReapInterval:       v.GetDuration("REAP_INTERVAL"),
		PendingTimeout:     v.GetDuration("PENDING_TIMEOUT"),
		PairedIdleTimeout:  v.GetDuration("PAIRED_IDLE_TIMEOUT"),
		ChannelIdleTimeout: v.GetDuration("CHANNEL_IDLE_TIMEOUT"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("GIN_MODE", "release")
	v.SetDefault("STREAM_TICK", StreamTick)
	v.SetDefault("REAP_INTERVAL", ReapInterval)
	v.SetDefault("PENDING_TIMEOUT", PendingTimeout)
	v.SetDefault("PAIRED_IDLE_TIMEOUT", PairedIdleTimeout)
	v.SetDefault("CHANNEL_IDLE_TIMEOUT", ChannelIdleTimeout)
}

// Validate checks the values the server cannot start without.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if len(c.JWTSecret) < 32 {
		return errors.New("JWT_SECRET must be at least 32 bytes")
	}
	for name, d := range map[string]time.Duration{
		"STREAM_TICK":          c.StreamTick,
		"REAP_INTERVAL":        c.ReapInterval,
		"PENDING_TIMEOUT":      c.PendingTimeout,
		"PAIRED_IDLE_TIMEOUT":  c.PairedIdleTimeout,
		"CHANNEL_IDLE_TIMEOUT": c.ChannelIdleTimeout,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	return nil
}
