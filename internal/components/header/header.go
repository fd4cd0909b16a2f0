package header

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/robertguss/factorydesk/internal/domain"
	"github.com/robertguss/factorydesk/internal/theme"
)

// Model represents the header component
type Model struct {
	width      int
	activeView domain.View
	orderID    string
}

// New creates a new header model
func New() Model {
	return Model{}
}

// SetWidth sets the header width
func (m *Model) SetWidth(width int) {
	m.width = width
}

// SetActiveView sets the currently active view
func (m *Model) SetActiveView(view domain.View) {
	m.activeView = view
}

// SetOrder sets the order shown next to the timeline tab
func (m *Model) SetOrder(id string) {
	m.orderID = id
}

// View renders the header
func (m Model) View() string {
	t := theme.Current

	title := lipgloss.NewStyle().
		Foreground(t.Primary).
		Bold(true).
		Render("Factory Desk")

	var navItems []string
	for _, v := range []domain.View{domain.ViewOrders, domain.ViewTimeline, domain.ViewStats} {
		shortcut := lipgloss.NewStyle().
			Foreground(t.Accent).
			Bold(true).
			Render("[" + v.Shortcut() + "]")

		name := v.String()
		if v == domain.ViewTimeline && m.orderID != "" {
			name += " " + m.orderID
		}

		color := t.Subtle
		if v == m.activeView {
			color = t.Primary
		}
		navItems = append(navItems, lipgloss.NewStyle().
			Foreground(color).
			Bold(v == m.activeView).
			Render(shortcut+" "+name))
	}
	nav := strings.Join(navItems, "  ")

	content := title
	if gap := m.width - lipgloss.Width(title) - lipgloss.Width(nav) - 4; gap > 0 {
		content += strings.Repeat(" ", gap)
	} else {
		content += "  "
	}
	content += nav

	header := lipgloss.NewStyle().
		Background(t.HeaderBg).
		Foreground(t.Foreground).
		Width(m.width).
		Padding(0, 2).
		Render(content)

	border := lipgloss.NewStyle().
		Foreground(t.Border).
		Render(strings.Repeat("─", max(m.width, 0)))

	return lipgloss.JoinVertical(lipgloss.Left, header, border)
}
