// Package zap adapts a *zap.Logger to menucache.Logger.
package zap

import (
	"fmt"
	"sort"

	"github.com/unkn0wn-root/menucache"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var _ menucache.Logger = Logger{}

type Logger struct{ L *zap.Logger }

// New builds a JSON production logger at the given level ("debug", "info", ...).
func New(level string) (Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return Logger{}, fmt.Errorf("zap: %w", err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.Sampling = nil
	l, err := cfg.Build()
	if err != nil {
		return Logger{}, err
	}
	return Logger{L: l}, nil
}

func (z Logger) Debug(msg string, f menucache.Fields) { z.L.Debug(msg, fields(f)...) }
func (z Logger) Info(msg string, f menucache.Fields)  { z.L.Info(msg, fields(f)...) }
func (z Logger) Warn(msg string, f menucache.Fields)  { z.L.Warn(msg, fields(f)...) }
func (z Logger) Error(msg string, f menucache.Fields) { z.L.Error(msg, fields(f)...) }

// Sync flushes buffered entries.
func (z Logger) Sync() error { return z.L.Sync() }

// fields is sorted so output is stable across runs.
func fields(f menucache.Fields) []zap.Field {
	if len(f) == 0 {
		return nil
	}
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]zap.Field, 0, len(f))
	for _, k := range keys {
		if err, ok := f[k].(error); ok {
			out = append(out, zap.NamedError(k, err))
			continue
		}
		out = append(out, zap.Any(k, f[k]))
	}
	return out
}
