package config

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	LogFormatJSON    = "json"
	LogFormatConsole = "console"
)

// NewLogger собирает zap логгер. Без явного формата debug пишет
// цветной консольный вывод, остальные уровни пишут JSON.
func NewLogger(cfg LogConfig) (*zap.Logger, error) {
	level := parseLogLevel(cfg.Level)

	format := strings.ToLower(cfg.Format)
	if format == "" {
		format = LogFormatJSON
		if level == zapcore.DebugLevel {
			format = LogFormatConsole
		}
	}

	var config zap.Config
	switch format {
	case LogFormatConsole:
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	case LogFormatJSON:
		config = zap.NewProductionConfig()
		config.EncoderConfig.TimeKey = "timestamp"
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidLogFormat, cfg.Format)
	}

	config.Level = zap.NewAtomicLevelAt(level)
	config.InitialFields = map[string]interface{}{"app": "databot"}

	config.EncoderConfig.CallerKey = "caller"
	config.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger, nil
}

// parseLogLevel понимает имена уровней zap и "warning"; неизвестное - info
func parseLogLevel(level string) zapcore.Level {
	name := strings.ToLower(strings.TrimSpace(level))
	if name == "warning" {
		name = "warn"
	}
	lvl, err := zapcore.ParseLevel(name)
	if err != nil || lvl > zapcore.ErrorLevel {
		return zapcore.InfoLevel
	}
	return lvl
}
