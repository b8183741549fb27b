package log

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelError, ParseLevel(" ERROR "))
	assert.Equal(t, LevelInfo, ParseLevel("info"))
	assert.Equal(t, LevelInfo, ParseLevel("verbose"))
}

func TestErrorCarriesErrAndFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	Use(zap.New(core))

	Error("save failed", errors.New("disk full"), "path", "/tmp/x")
	Info("started", "dir", "out")

	entries := logs.All()
	require.Len(t, entries, 2)

	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Equal(t, "save failed", entries[0].Message)
	fields := entries[0].ContextMap()
	assert.Equal(t, "disk full", fields["err"])
	assert.Equal(t, "/tmp/x", fields["path"])

	assert.Equal(t, "out", entries[1].ContextMap()["dir"])
}
