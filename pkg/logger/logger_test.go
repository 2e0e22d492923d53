package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name  string
		level string
	}{
		{"debug", "debug"},
		{"info", "info"},
		{"warn", "warn"},
		{"error", "error"},
		{"unknown falls back", "verbose"},
		{"empty falls back", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLogger(tt.level)
			require.NotNil(t, l)
			// Must not panic at any level.
			l.Debug("debug message")
			l.Info("info message")
			l.Warn("warn message")
			l.Error("error message")
		})
	}
}

func TestWithFieldReturnsNewLogger(t *testing.T) {
	l := NewLogger("info")
	child := l.WithField("template_id", "tpl_123")
	require.NotNil(t, child)
	assert.NotSame(t, l, child)
	child.Info("with field")
}

func TestWithFields(t *testing.T) {
	l := NewLogger("info")
	child := l.WithFields(map[string]interface{}{
		"organization_id": "org_1",
		"template_id":     "tpl_1",
	})
	require.NotNil(t, child)
	child.Info("with fields")
}

func TestTestLogger(t *testing.T) {
	l := NewTestLogger(t)
	l.Debug("d")
	l.Info("i")
	l.Warn("w")
	l.Error("e")
	require.NotNil(t, l.WithField("k", "v"))
	require.NotNil(t, l.WithFields(map[string]interface{}{"k": "v"}))

	silent := NewTestLogger(nil)
	silent.Info("dropped")
}
