// Package logging builds the process zap logger.
package logging

import (
	"fmt"
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config selects level and output format.
type Config struct {
	Level             string `mapstructure:"level" yaml:"level"`
	Encoding          string `mapstructure:"encoding" yaml:"encoding"`
	Development       bool   `mapstructure:"development" yaml:"development"`
	DisableCaller     bool   `mapstructure:"disable_caller" yaml:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace" yaml:"disable_stacktrace"`
}

// New builds a logger writing to stderr. Encoding is "console" or "json";
// empty picks console in development and json otherwise.
func New(cfg Config) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(defaultString(cfg.Level, "info"))
	if err != nil {
		return nil, fmt.Errorf("parsing log level: %w", err)
	}

	var zc zap.Config
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.Encoding = cfg.Encoding
	if zc.Encoding == "" {
		zc.Encoding = "json"
		if cfg.Development {
			zc.Encoding = "console"
		}
	}
	if zc.Encoding != "json" && zc.Encoding != "console" {
		return nil, fmt.Errorf("unknown log encoding %q", cfg.Encoding)
	}
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zc.DisableCaller = cfg.DisableCaller
	zc.DisableStacktrace = cfg.DisableStacktrace
	zc.OutputPaths = []string{"stderr"}
	zc.ErrorOutputPaths = []string{"stderr"}

	return zc.Build()
}

// Writer adapts l for libraries that log through an io.Writer. Each write
// becomes one Info entry.
func Writer(l *zap.Logger) io.Writer {
	return zap.NewStdLog(l).Writer()
}

func defaultString(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
