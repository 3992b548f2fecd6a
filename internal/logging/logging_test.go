package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter(t *testing.T) {
	original := slog.Default()
	defer slog.SetDefault(original)

	t.Run("json honours level", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewWithWriter(&buf, "json", "warn")

		logger.Info("Hidden")
		slog.Warn("Relay send failed", "channel", "Topic-theme|1")

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "Relay send failed", entry["msg"])
		assert.Equal(t, "Topic-theme|1", entry["channel"])
	})

	t.Run("text adds source", func(t *testing.T) {
		var buf bytes.Buffer
		NewWithWriter(&buf, "text", "debug").Debug("Subscribed channel to relay")

		assert.Contains(t, buf.String(), "source=")
		assert.Contains(t, buf.String(), "Subscribed channel to relay")
	})
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, ParseLevel(in))
		})
	}
}
