package statusbar

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/robertguss/factorydesk/internal/theme"
)

// Model represents the status bar component
type Model struct {
	width      int
	store      string
	language   string
	orderCount int
	openCount  int
	watching   bool
	message    string
	isError    bool
}

// New creates a new status bar model
func New() Model {
	return Model{}
}

// SetWidth sets the status bar width
func (m *Model) SetWidth(width int) {
	m.width = width
}

// SetStore sets the store description, e.g. "sqlite" or "json"
func (m *Model) SetStore(store string, watching bool) {
	m.store = store
	m.watching = watching
}

// SetLanguage sets the active label language code
func (m *Model) SetLanguage(lang string) {
	m.language = lang
}

// SetOrderCounts sets the total and not-yet-completed order counts
func (m *Model) SetOrderCounts(total, open int) {
	m.orderCount = total
	m.openCount = open
}

// SetMessage sets a temporary status message
func (m *Model) SetMessage(msg string) {
	m.message = msg
	m.isError = false
}

// SetError sets a status message rendered as an error
func (m *Model) SetError(msg string) {
	m.message = msg
	m.isError = true
}

// ClearMessage clears the status message
func (m *Model) ClearMessage() {
	m.message = ""
	m.isError = false
}

// Message returns the current status message
func (m Model) Message() string {
	return m.message
}

// View renders the status bar
func (m Model) View() string {
	t := theme.Current

	border := lipgloss.NewStyle().
		Foreground(t.Border).
		Render(strings.Repeat("─", max(m.width, 0)))

	storeInfo := fmt.Sprintf("Store: %s", lipgloss.NewStyle().Foreground(t.Info).Render(m.store))
	if m.watching {
		storeInfo += lipgloss.NewStyle().Foreground(t.Success).Render(" (watching)")
	}
	if m.language != "" {
		storeInfo += " | " + strings.ToUpper(m.language)
	}

	bold := lipgloss.NewStyle().Foreground(t.Foreground).Bold(true)
	counts := fmt.Sprintf("Orders: %s | Open: %s",
		bold.Render(fmt.Sprintf("%d", m.orderCount)),
		bold.Render(fmt.Sprintf("%d", m.openCount)),
	)

	var right string
	switch {
	case m.message != "" && m.isError:
		right = lipgloss.NewStyle().Foreground(t.Error).Render(m.message)
	case m.message != "":
		right = lipgloss.NewStyle().Foreground(t.Warning).Render(m.message)
	default:
		right = lipgloss.NewStyle().Foreground(t.Subtle).Render("q to quit")
	}

	total := lipgloss.Width(storeInfo) + lipgloss.Width(counts) + lipgloss.Width(right)
	var content string
	if m.width > total+4 {
		gap := (m.width - total - 4) / 2
		content = storeInfo + strings.Repeat(" ", gap) + counts + strings.Repeat(" ", gap) + right
	} else {
		content = storeInfo + "  " + counts + "  " + right
	}

	bar := lipgloss.NewStyle().
		Background(t.StatusBar).
		Foreground(t.Subtle).
		Width(m.width).
		Padding(0, 2).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, border, bar)
}
