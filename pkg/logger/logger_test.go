package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_FormatsAndLevels(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := FromZap(zap.New(core))

	l.Info("joined %s", "general")
	l.Debug("dropped %d", 1)
	l.With("room", "general").Error("send failed: %v", "boom")

	entries := logs.AllUntimed()
	require.Len(t, entries, 2)
	assert.Equal(t, "joined general", entries[0].Message)
	assert.Equal(t, zapcore.ErrorLevel, entries[1].Level)
	assert.Equal(t, "send failed: boom", entries[1].Message)
	assert.Equal(t, "general", entries[1].ContextMap()["room"])
}

func TestNewWithLevel(t *testing.T) {
	_, err := NewWithLevel("loud", false)
	require.Error(t, err)

	l, err := NewWithLevel("debug", true)
	require.NoError(t, err)
	assert.NotNil(t, l)
}

func TestSetGlobal(t *testing.T) {
	prev := GlobalLogger
	defer SetGlobal(prev)

	core, logs := observer.New(zapcore.DebugLevel)
	SetGlobal(FromZap(zap.New(core)))

	Debug("hello %s", "there")
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "hello there", logs.All()[0].Message)
}
