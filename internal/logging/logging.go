// Package logging builds the zap.Logger used across the service, mirroring
// the environment-driven production/development split of the teacher's
// observability bootstrap.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Environment selects which base zap configuration to build from.
type Environment string

const (
	Production  Environment = "production"
	Staging     Environment = "staging"
	Development Environment = "development"
)

// Config controls logger construction.
type Config struct {
	Environment Environment
	Level       string // debug, info, warn, error
}

// New builds a *zap.Logger for cfg. An unrecognized Level falls back to info.
func New(cfg Config) (*zap.Logger, error) {
	var zapConfig zap.Config
	if cfg.Environment == Production || cfg.Environment == Staging {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}

	zapConfig.Level = zap.NewAtomicLevelAt(levelFromString(cfg.Level))

	logger, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}
	return logger, nil
}

func levelFromString(level string) zapcore.Level {
	switch level {
	case "debug":
		return zap.DebugLevel
	case "warn":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}
