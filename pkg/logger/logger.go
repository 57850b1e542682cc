// Package logger provides the structured logger injected into the rpcclient and CLI components.
package logger

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

// Logger is the subset of a zap.SugaredLogger the testkit logs through. Components receive it
// named after themselves, e.g. lggr.Named("rpcclient").
type Logger interface {
	Name() string
	Named(name string) Logger

	Debugf(format string, values ...any)
	Infof(format string, values ...any)
	Warnf(format string, values ...any)

	Debugw(msg string, keysAndValues ...any)
	Infow(msg string, keysAndValues ...any)
	Warnw(msg string, keysAndValues ...any)
	Errorw(msg string, keysAndValues ...any)

	Sync() error
}

// Option configures a runtime Logger.
type Option func(*zap.Config)

// WithLevel sets the minimum level written by the logger.
func WithLevel(lvl zapcore.Level) Option {
	return func(cfg *zap.Config) {
		cfg.Level.SetLevel(lvl)
	}
}

// WithConsoleEncoding writes human readable lines instead of JSON.
func WithConsoleEncoding() Option {
	return func(cfg *zap.Config) {
		cfg.Encoding = "console"
		cfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	}
}

// New returns a production Logger writing JSON to stderr at info level unless opts say
// otherwise.
func New(opts ...Option) (Logger, error) {
	cfg := zap.NewProductionConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	core, err := cfg.Build()
	if err != nil {
		return nil, err
	}

	return &logger{core.Sugar()}, nil
}

// Test returns a Logger writing through tb.Log at debug level.
func Test(tb testing.TB) Logger {
	tb.Helper()

	return &logger{zaptest.NewLogger(tb, zaptest.Level(zapcore.DebugLevel)).Sugar()}
}

// TestObserved is Test with the entries at lvl and above also captured for assertions.
func TestObserved(tb testing.TB, lvl zapcore.Level) (Logger, *observer.ObservedLogs) {
	tb.Helper()

	oCore, logs := observer.New(lvl)
	tee := zap.WrapCore(func(c zapcore.Core) zapcore.Core {
		return zapcore.NewTee(c, oCore)
	})

	return &logger{zaptest.NewLogger(tb, zaptest.WrapOptions(tee)).Sugar()}, logs
}

// Nop returns a Logger which discards everything.
func Nop() Logger {
	return &logger{zap.NewNop().Sugar()}
}

type logger struct {
	*zap.SugaredLogger
}

func (l *logger) Name() string {
	return l.Desugar().Name()
}

func (l *logger) Named(name string) Logger {
	return &logger{l.SugaredLogger.Named(name)}
}
