package observability

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a thin key/value facade over zap. A nil *Logger discards
// everything, so components can be built without one in tests.
type Logger struct {
	l *zap.SugaredLogger
}

func NewLogger() *Logger {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zl, err := cfg.Build()
	if err != nil {
		zl = zap.NewExample()
	}
	return &Logger{l: zl.Sugar()}
}

func NewDevelopmentLogger() *Logger {
	zl, err := zap.NewDevelopment()
	if err != nil {
		zl = zap.NewExample()
	}
	return &Logger{l: zl.Sugar()}
}

func NewNopLogger() *Logger {
	return &Logger{l: zap.NewNop().Sugar()}
}

// FromZap wraps an already configured zap logger.
func FromZap(zl *zap.Logger) *Logger {
	return &Logger{l: zl.Sugar()}
}

func (lg *Logger) Info(msg string, kv ...any) {
	if lg == nil || lg.l == nil {
		return
	}
	lg.l.Infow(msg, kv...)
}

func (lg *Logger) Warn(msg string, kv ...any) {
	if lg == nil || lg.l == nil {
		return
	}
	lg.l.Warnw(msg, kv...)
}

func (lg *Logger) Error(msg string, kv ...any) {
	if lg == nil || lg.l == nil {
		return
	}
	lg.l.Errorw(msg, kv...)
}

// With returns a child logger that always carries kv.
func (lg *Logger) With(kv ...any) *Logger {
	if lg == nil || lg.l == nil {
		return lg
	}
	return &Logger{l: lg.l.With(kv...)}
}

func (lg *Logger) Sync() error {
	if lg == nil || lg.l == nil {
		return nil
	}
	return lg.l.Sync()
}
