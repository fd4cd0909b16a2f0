package orderlist

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/robertguss/factorydesk/internal/domain"
	"github.com/robertguss/factorydesk/internal/messages"
	"github.com/robertguss/factorydesk/internal/presenter"
	"github.com/robertguss/factorydesk/internal/theme"
	"github.com/robertguss/factorydesk/internal/util"
)

// statusFilters is the cycle order for the status filter key
var statusFilters = []domain.OrderStatus{
	"", // All
	domain.OrderPending,
	domain.OrderProcessing,
	domain.OrderCompleted,
}

// Model represents the order list view
type Model struct {
	width        int
	height       int
	orders       []*domain.Order
	filtered     []*domain.Order
	cursor       int
	filterStatus domain.OrderStatus
	lang         presenter.Language
	styles       theme.Styles
}

// New creates a new order list model
func New(lang presenter.Language) Model {
	return Model{
		lang:   lang,
		styles: theme.NewStyles(),
	}
}

// Init initializes the order list
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.filtered)-1 {
				m.cursor++
			}
		case "home":
			m.cursor = 0
		case "end":
			m.cursor = max(0, len(m.filtered)-1)
		case "f":
			m.cycleStatusFilter()
		case "enter":
			if order := m.Current(); order != nil {
				id := order.ID
				return m, func() tea.Msg { return messages.OrderSelectedMsg{OrderID: id} }
			}
		}

	case messages.OrdersLoadedMsg:
		if msg.Error == nil {
			m.SetOrders(msg.Orders)
		}

	case messages.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}

	return m, nil
}

// SetSize sets the view dimensions
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// SetStyles replaces the styles after a theme change
func (m *Model) SetStyles(styles theme.Styles) {
	m.styles = styles
}

// SetOrders replaces the order data, keeping the cursor on the same order when possible
func (m *Model) SetOrders(orders []*domain.Order) {
	var currentID string
	if cur := m.Current(); cur != nil {
		currentID = cur.ID
	}

	m.orders = orders
	m.applyFilters()

	for i, o := range m.filtered {
		if o.ID == currentID {
			m.cursor = i
			break
		}
	}
}

// Orders returns all loaded orders
func (m Model) Orders() []*domain.Order {
	return m.orders
}

// Current returns the highlighted order
func (m Model) Current() *domain.Order {
	if len(m.filtered) > 0 && m.cursor < len(m.filtered) {
		return m.filtered[m.cursor]
	}
	return nil
}

// FilterStatus returns the active status filter, empty for all
func (m Model) FilterStatus() domain.OrderStatus {
	return m.filterStatus
}

func (m *Model) cycleStatusFilter() {
	for i, s := range statusFilters {
		if s == m.filterStatus {
			m.filterStatus = statusFilters[(i+1)%len(statusFilters)]
			break
		}
	}
	m.applyFilters()
}

func (m *Model) applyFilters() {
	m.filtered = make([]*domain.Order, 0, len(m.orders))
	for _, o := range m.orders {
		if m.filterStatus == "" || o.Status == m.filterStatus {
			m.filtered = append(m.filtered, o)
		}
	}

	if m.cursor >= len(m.filtered) {
		m.cursor = max(0, len(m.filtered)-1)
	}
}

// View renders the order list
func (m Model) View() string {
	t := theme.Current

	filterInfo := "All orders"
	if m.filterStatus != "" {
		filterInfo = presenter.StatusLabel(m.lang, m.filterStatus)
	}

	titleLine := m.styles.Title.Render(fmt.Sprintf("Orders (%d)", len(m.filtered))) +
		m.styles.Muted.Render("  "+filterInfo)

	help := m.styles.Muted.Render("[Up/Down] Navigate  [f] Status  [Enter] Timeline  [q] Quit")

	var rows []string
	visibleHeight := max(m.height-6, 1)
	startIdx := 0
	if m.cursor >= visibleHeight {
		startIdx = m.cursor - visibleHeight + 1
	}

	for i := startIdx; i < len(m.filtered) && i < startIdx+visibleHeight; i++ {
		rows = append(rows, m.renderOrderRow(m.filtered[i], i == m.cursor))
	}

	if len(rows) == 0 {
		rows = append(rows, lipgloss.NewStyle().
			Foreground(t.Subtle).
			Italic(true).
			Render("  No orders match the current filter"))
	}

	view := lipgloss.JoinVertical(lipgloss.Left,
		titleLine,
		"",
		lipgloss.JoinVertical(lipgloss.Left, rows...),
		"",
		help,
	)

	return lipgloss.NewStyle().Padding(1, 2).Render(view)
}

func (m Model) renderOrderRow(order *domain.Order, isCursor bool) string {
	t := theme.Current

	cursor := "  "
	if isCursor {
		cursor = lipgloss.NewStyle().Foreground(t.Primary).Bold(true).Render("> ")
	}

	badge := presenter.StatusBadge(order.Status, fmt.Sprintf(" %-10s ", presenter.StatusLabel(m.lang, order.Status)), m.styles)

	idStyle := lipgloss.NewStyle().Foreground(t.Foreground)
	if isCursor {
		idStyle = idStyle.Foreground(t.Highlight).Bold(true)
	}
	id := idStyle.Width(14).Render(util.Truncate(order.ID, 12))
	customer := lipgloss.NewStyle().Width(24).Render(util.Truncate(order.CustomerName, 22))

	stage := ""
	if s, ok := domain.CurrentStage(order); ok {
		stage = presenter.StageLabel(m.lang, s)
	}

	percent := domain.ProgressPercent(domain.DeriveTimeline(order))
	progress := presenter.ProgressBar(percent, 10, m.styles)

	row := cursor + badge + "  " + id + customer + progress + "  " + m.styles.Muted.Render(strings.TrimSpace(stage))

	if isCursor && m.width > 6 {
		row = lipgloss.NewStyle().
			Background(t.Selection).
			Width(m.width - 6).
			Render(row)
	}

	return row
}
