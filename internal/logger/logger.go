// Package logger builds the zap logger shared by every component.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a zap logger for the given level ("debug", "info", "warn",
// "error") and format ("json" selects the production encoder).
func New(levelStr, format string) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	switch levelStr {
	case "debug":
		level = zapcore.DebugLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	}

	var cfg zap.Config
	if format == "json" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	return cfg.Build()
}

// ShortID trims secret-derived identifiers before they reach the logs.
func ShortID(id string) zap.Field {
	return Short("session", id)
}

// Short is ShortID under a custom key.
func Short(key, id string) zap.Field {
	if len(id) > 8 {
		id = id[:8]
	}
	return zap.String(key, id)
}
