package theme

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"
)

// Theme defines the color palette and styles for the application
type Theme struct {
	Name string

	// Base colors
	Background lipgloss.Color
	Foreground lipgloss.Color
	Subtle     lipgloss.Color
	Highlight  lipgloss.Color

	// Status colors
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Info    lipgloss.Color

	// Accent colors
	Primary   lipgloss.Color
	Secondary lipgloss.Color
	Accent    lipgloss.Color

	// UI element colors
	Border    lipgloss.Color
	Selection lipgloss.Color
	StatusBar lipgloss.Color
	HeaderBg  lipgloss.Color
}

// Catppuccin Mocha theme (default)
var Catppuccin = Theme{
	Name: "Catppuccin Mocha",

	// Base colors
	Background: lipgloss.Color("#1e1e2e"),
	Foreground: lipgloss.Color("#cdd6f4"),
	Subtle:     lipgloss.Color("#6c7086"),
	Highlight:  lipgloss.Color("#f5e0dc"),

	// Status colors
	Success: lipgloss.Color("#a6e3a1"),
	Warning: lipgloss.Color("#f9e2af"),
	Error:   lipgloss.Color("#f38ba8"),
	Info:    lipgloss.Color("#89b4fa"),

	// Accent colors
	Primary:   lipgloss.Color("#cba6f7"),
	Secondary: lipgloss.Color("#f5c2e7"),
	Accent:    lipgloss.Color("#94e2d5"),

	// UI element colors
	Border:    lipgloss.Color("#313244"),
	Selection: lipgloss.Color("#45475a"),
	StatusBar: lipgloss.Color("#181825"),
	HeaderBg:  lipgloss.Color("#181825"),
}

// Dracula theme
var Dracula = Theme{
	Name: "Dracula",

	// Base colors
	Background: lipgloss.Color("#282a36"),
	Foreground: lipgloss.Color("#f8f8f2"),
	Subtle:     lipgloss.Color("#6272a4"),
	Highlight:  lipgloss.Color("#f1fa8c"),

	// Status colors
	Success: lipgloss.Color("#50fa7b"),
	Warning: lipgloss.Color("#ffb86c"),
	Error:   lipgloss.Color("#ff5555"),
	Info:    lipgloss.Color("#8be9fd"),

	// Accent colors
	Primary:   lipgloss.Color("#bd93f9"),
	Secondary: lipgloss.Color("#ff79c6"),
	Accent:    lipgloss.Color("#8be9fd"),

	// UI element colors
	Border:    lipgloss.Color("#44475a"),
	Selection: lipgloss.Color("#44475a"),
	StatusBar: lipgloss.Color("#21222c"),
	HeaderBg:  lipgloss.Color("#21222c"),
}

// Nord theme
var Nord = Theme{
	Name: "Nord",

	// Base colors
	Background: lipgloss.Color("#2e3440"),
	Foreground: lipgloss.Color("#eceff4"),
	Subtle:     lipgloss.Color("#4c566a"),
	Highlight:  lipgloss.Color("#ebcb8b"),

	// Status colors
	Success: lipgloss.Color("#a3be8c"),
	Warning: lipgloss.Color("#ebcb8b"),
	Error:   lipgloss.Color("#bf616a"),
	Info:    lipgloss.Color("#81a1c1"),

	// Accent colors
	Primary:   lipgloss.Color("#88c0d0"),
	Secondary: lipgloss.Color("#b48ead"),
	Accent:    lipgloss.Color("#8fbcbb"),

	// UI element colors
	Border:    lipgloss.Color("#3b4252"),
	Selection: lipgloss.Color("#434c5e"),
	StatusBar: lipgloss.Color("#242933"),
	HeaderBg:  lipgloss.Color("#242933"),
}

// Paper is a light theme for bright shop-floor screens
var Paper = Theme{
	Name: "Paper",

	Background: lipgloss.Color("#fafafa"),
	Foreground: lipgloss.Color("#24292f"),
	Subtle:     lipgloss.Color("#8c959f"),
	Highlight:  lipgloss.Color("#9a6700"),

	Success: lipgloss.Color("#1a7f37"),
	Warning: lipgloss.Color("#bc4c00"),
	Error:   lipgloss.Color("#cf222e"),
	Info:    lipgloss.Color("#0969da"),

	Primary:   lipgloss.Color("#8250df"),
	Secondary: lipgloss.Color("#bf3989"),
	Accent:    lipgloss.Color("#1b7c83"),

	Border:    lipgloss.Color("#d0d7de"),
	Selection: lipgloss.Color("#ddf4ff"),
	StatusBar: lipgloss.Color("#eaeef2"),
	HeaderBg:  lipgloss.Color("#eaeef2"),
}

// Current is the active theme
var Current = Catppuccin

// AvailableThemes returns a list of built-in theme names
func AvailableThemes() []string {
	return []string{"catppuccin", "dracula", "nord", "paper"}
}

// SetTheme sets the current theme by name. A name ending in .yaml or .yml
// is loaded as a custom theme file.
func SetTheme(name string) error {
	if strings.HasSuffix(name, ".yaml") || strings.HasSuffix(name, ".yml") {
		return LoadThemeFromYAML(name)
	}

	switch name {
	case "dracula":
		Current = Dracula
	case "nord":
		Current = Nord
	case "paper":
		Current = Paper
	case "catppuccin":
		fallthrough
	default:
		Current = Catppuccin
	}
	return nil
}

// ThemeYAML represents a theme configuration in YAML format
type ThemeYAML struct {
	Name string `yaml:"name"`

	// Base colors
	Background string `yaml:"background"`
	Foreground string `yaml:"foreground"`
	Subtle     string `yaml:"subtle"`
	Highlight  string `yaml:"highlight"`

	// Status colors
	Success string `yaml:"success"`
	Warning string `yaml:"warning"`
	Error   string `yaml:"error"`
	Info    string `yaml:"info"`

	// Accent colors
	Primary   string `yaml:"primary"`
	Secondary string `yaml:"secondary"`
	Accent    string `yaml:"accent"`

	// UI element colors
	Border    string `yaml:"border"`
	Selection string `yaml:"selection"`
	StatusBar string `yaml:"status_bar"`
	HeaderBg  string `yaml:"header_bg"`
}

// LoadThemeFromYAML loads a custom theme from a YAML file
func LoadThemeFromYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read theme: %w", err)
	}

	var themeYAML ThemeYAML
	if err := yaml.Unmarshal(data, &themeYAML); err != nil {
		return fmt.Errorf("failed to parse theme %s: %w", path, err)
	}

	// Colors left out of the file come from the default theme
	base := Catppuccin
	custom := Theme{
		Name:       themeYAML.Name,
		Background: colorOr(themeYAML.Background, base.Background),
		Foreground: colorOr(themeYAML.Foreground, base.Foreground),
		Subtle:     colorOr(themeYAML.Subtle, base.Subtle),
		Highlight:  colorOr(themeYAML.Highlight, base.Highlight),
		Success:    colorOr(themeYAML.Success, base.Success),
		Warning:    colorOr(themeYAML.Warning, base.Warning),
		Error:      colorOr(themeYAML.Error, base.Error),
		Info:       colorOr(themeYAML.Info, base.Info),
		Primary:    colorOr(themeYAML.Primary, base.Primary),
		Secondary:  colorOr(themeYAML.Secondary, base.Secondary),
		Accent:     colorOr(themeYAML.Accent, base.Accent),
		Border:     colorOr(themeYAML.Border, base.Border),
		Selection:  colorOr(themeYAML.Selection, base.Selection),
		StatusBar:  colorOr(themeYAML.StatusBar, base.StatusBar),
		HeaderBg:   colorOr(themeYAML.HeaderBg, base.HeaderBg),
	}
	if custom.Name == "" {
		custom.Name = "Custom"
	}
	Current = custom

	return nil
}

func colorOr(value string, fallback lipgloss.Color) lipgloss.Color {
	if value == "" {
		return fallback
	}
	return lipgloss.Color(value)
}

// Styles contains pre-built lipgloss styles using the current theme
type Styles struct {
	Header    lipgloss.Style
	StatusBar lipgloss.Style

	// Text styles
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Muted    lipgloss.Style
	Bold     lipgloss.Style
	Error    lipgloss.Style

	Selected lipgloss.Style
	Shortcut lipgloss.Style

	BorderedBox lipgloss.Style

	// Timeline steps
	StepCompleted lipgloss.Style
	StepCurrent   lipgloss.Style
	StepPending   lipgloss.Style
	Connector     lipgloss.Style
	Note          lipgloss.Style

	// Order status badges
	BadgePending    lipgloss.Style
	BadgeProcessing lipgloss.Style
	BadgeCompleted  lipgloss.Style
}

// NewStyles creates styles based on the current theme
func NewStyles() Styles {
	t := Current

	return Styles{
		Header: lipgloss.NewStyle().
			Background(t.HeaderBg).
			Foreground(t.Foreground).
			Padding(0, 2).
			Bold(true),

		StatusBar: lipgloss.NewStyle().
			Background(t.StatusBar).
			Foreground(t.Subtle).
			Padding(0, 2),

		Title: lipgloss.NewStyle().
			Foreground(t.Primary).
			Bold(true),

		Subtitle: lipgloss.NewStyle().
			Foreground(t.Secondary),

		Muted: lipgloss.NewStyle().
			Foreground(t.Subtle),

		Bold: lipgloss.NewStyle().
			Bold(true),

		Error: lipgloss.NewStyle().
			Foreground(t.Error),

		Selected: lipgloss.NewStyle().
			Background(t.Selection).
			Foreground(t.Foreground).
			Bold(true),

		Shortcut: lipgloss.NewStyle().
			Foreground(t.Accent).
			Bold(true),

		BorderedBox: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(t.Border).
			Padding(1, 2),

		StepCompleted: lipgloss.NewStyle().
			Foreground(t.Success),

		StepCurrent: lipgloss.NewStyle().
			Foreground(t.Warning).
			Bold(true),

		StepPending: lipgloss.NewStyle().
			Foreground(t.Subtle),

		Connector: lipgloss.NewStyle().
			Foreground(t.Border),

		Note: lipgloss.NewStyle().
			Foreground(t.Info).
			Italic(true),

		BadgePending: lipgloss.NewStyle().
			Foreground(t.Background).
			Background(t.Subtle).
			Padding(0, 1),

		BadgeProcessing: lipgloss.NewStyle().
			Foreground(t.Background).
			Background(t.Warning).
			Padding(0, 1).
			Bold(true),

		BadgeCompleted: lipgloss.NewStyle().
			Foreground(t.Background).
			Background(t.Success).
			Padding(0, 1).
			Bold(true),
	}
}
