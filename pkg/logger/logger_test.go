package logger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"":        zapcore.InfoLevel,
		"debug":   zapcore.DebugLevel,
		"INFO":    zapcore.InfoLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
	}
	for in, want := range cases {
		got, err := parseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := parseLevel("verbose")
	assert.Error(t, err)
}

func TestLogger_FormatsMessages(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	log := NewWithCore(core)

	log.Debug("hidden %d", 1)
	log.Info("booked appointment id=%s", "abc")
	log.Warn("slot taken")
	log.Error("failed: %v", assert.AnError)

	entries := logs.All()
	require.Len(t, entries, 3)
	assert.Equal(t, "booked appointment id=abc", entries[0].Message)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Contains(t, entries[2].Message, assert.AnError.Error())
}

func TestNew_WritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "service.log")

	log, err := New(path, "info")
	require.NoError(t, err)
	log.Info("hello")
	require.NoError(t, log.Close())

	assert.FileExists(t, path)
}
