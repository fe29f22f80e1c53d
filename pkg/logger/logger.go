package logger

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mozilla-services/cjms-sub000/pkg/config"
)

// New builds a production SugaredLogger at the given level. An unknown level
// string falls back to info rather than failing the process.
func New(level string) (*zap.SugaredLogger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.TimeKey = "time"
	if lvl, err := zapcore.ParseLevel(level); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}

func FromConfig(c *config.Config) (*zap.SugaredLogger, error) {
	return New(c.LogLevel)
}

var Module = fx.Options(
	fx.Provide(FromConfig),
)
