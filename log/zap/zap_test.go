package zap

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/unkn0wn-root/menucache"
)

func TestLoggerWritesFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := Logger{L: zap.New(core)}

	l.Warn("provider call failed", menucache.Fields{"op": "get", "err": errors.New("boom")})
	l.Debug("no fields", nil)

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "get", ctx["op"])
	assert.Equal(t, "boom", ctx["err"])
	assert.Empty(t, entries[1].Context)
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New("loud")
	assert.Error(t, err)

	l, err := New("debug")
	require.NoError(t, err)
	assert.True(t, l.L.Core().Enabled(zapcore.DebugLevel))
}
