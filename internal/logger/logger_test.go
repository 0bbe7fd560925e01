package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warning"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestNewWritesStructuredLine(t *testing.T) {
	var buf bytes.Buffer
	l := New(&Options{Level: slog.LevelInfo, Writer: &buf, NoColor: true})

	l.Debug("hidden")
	l.Info("round settled", "session", "abc", "win", true)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "round settled")
	assert.Contains(t, out, "session=abc")
	assert.Contains(t, out, "win=true")
}

func TestLFallsBackToDefault(t *testing.T) {
	assert.NotNil(t, L())
	assert.NotNil(t, With("k", "v"))
}
