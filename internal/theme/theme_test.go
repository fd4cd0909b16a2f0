package theme

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func restoreTheme(t *testing.T) {
	t.Helper()
	saved := Current
	t.Cleanup(func() { Current = saved })
}

func TestSetTheme(t *testing.T) {
	restoreTheme(t)

	tests := []struct {
		name string
		want string
	}{
		{"dracula", Dracula.Name},
		{"nord", Nord.Name},
		{"paper", Paper.Name},
		{"catppuccin", Catppuccin.Name},
		{"unknown", Catppuccin.Name},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, SetTheme(tt.name))
			assert.Equal(t, tt.want, Current.Name)
		})
	}
}

func TestLoadThemeFromYAML(t *testing.T) {
	restoreTheme(t)

	t.Run("partial file falls back to default colors", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "mill.yaml")
		require.NoError(t, os.WriteFile(path, []byte("name: Mill\nsuccess: \"#00ff00\"\n"), 0644))

		require.NoError(t, SetTheme(path))
		assert.Equal(t, "Mill", Current.Name)
		assert.Equal(t, lipgloss.Color("#00ff00"), Current.Success)
		assert.Equal(t, Catppuccin.Warning, Current.Warning)
	})

	t.Run("missing file", func(t *testing.T) {
		assert.Error(t, LoadThemeFromYAML(filepath.Join(t.TempDir(), "none.yaml")))
	})

	t.Run("unnamed theme", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "x.yml")
		require.NoError(t, os.WriteFile(path, []byte("info: \"#0000ff\"\n"), 0644))
		require.NoError(t, LoadThemeFromYAML(path))
		assert.Equal(t, "Custom", Current.Name)
	})
}

func TestAvailableThemes(t *testing.T) {
	assert.Contains(t, AvailableThemes(), "paper")
	assert.Len(t, AvailableThemes(), 4)
}
