package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    slog.Level
		wantErr bool
	}{
		{"debug", slog.LevelDebug, false},
		{"INFO", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
		{"warning", slog.LevelWarn, false},
		{"error", slog.LevelError, false},
		{"loud", slog.LevelInfo, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNew(t *testing.T) {
	t.Run("text format filters by level", func(t *testing.T) {
		var buf bytes.Buffer
		logger := New(&buf, "warn", "text")

		logger.Info("hidden")
		logger.Warn("shown", "order_id", "A")

		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "order_id=A")
	})

	t.Run("json format", func(t *testing.T) {
		var buf bytes.Buffer
		logger := New(&buf, "debug", "JSON")
		logger.Debug("advance", "stage", 3)

		var record map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
		assert.Equal(t, "advance", record["msg"])
		assert.Equal(t, 3.0, record["stage"])
	})
}
