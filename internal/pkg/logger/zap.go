package logger

import (
	"fmt"
	"log/slog"

	slogzap "github.com/samber/slog-zap/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewZap builds the process zap logger. Development mode uses the console encoder.
func NewZap(levelStr string, development bool) (*zap.Logger, error) {
	level, ok := ParseLevel(levelStr)
	if !ok {
		return nil, fmt.Errorf("invalid log level %q", levelStr)
	}

	var cfg zap.Config
	if development {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(zapLevel(level))

	return cfg.Build()
}

// InstallZap routes slog, and with it the package functions and the port adapter, into zapLogger.
func InstallZap(zapLogger *zap.Logger, levelStr string) {
	level, _ := ParseLevel(levelStr)
	handler := slogzap.Option{
		Level:  level,
		Logger: zapLogger,
	}.NewZapHandler()
	SetDefault(slog.New(handler))
}

func zapLevel(level slog.Level) zapcore.Level {
	switch {
	case level <= slog.LevelDebug:
		return zapcore.DebugLevel
	case level <= slog.LevelInfo:
		return zapcore.InfoLevel
	case level <= slog.LevelWarn:
		return zapcore.WarnLevel
	default:
		return zapcore.ErrorLevel
	}
}
