package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatDwell(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		expected string
	}{
		{"negative clamps to zero", -time.Minute, "0s"},
		{"zero", 0, "0s"},
		{"30 seconds", 30 * time.Second, "30s"},
		{"1 minute", time.Minute, "1m 00s"},
		{"10 minutes 5 seconds", 10*time.Minute + 5*time.Second, "10m 05s"},
		{"1 hour", time.Hour, "1h 00m"},
		{"1 hour 23 minutes", 83 * time.Minute, "1h 23m"},
		{"23 hours 59 minutes", 23*time.Hour + 59*time.Minute, "23h 59m"},
		{"1 day", 24 * time.Hour, "1d 00h"},
		{"2 days 4 hours", 52 * time.Hour, "2d 04h"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, FormatDwell(tt.duration))
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"short", "Acme", 10, "Acme"},
		{"exact", "Acme", 4, "Acme"},
		{"cut", "Acme Textiles", 6, "Acme …"},
		{"one", "Acme", 1, "…"},
		{"zero", "Acme", 0, ""},
		{"multibyte", "مصنع النسيج", 5, "مصنع…"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Truncate(tt.in, tt.max))
		})
	}
}
