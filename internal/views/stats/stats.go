// Package stats renders a summary of the production floor: orders by
// status, open orders by current stage and recent intake.
package stats

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/robertguss/factorydesk/internal/domain"
	"github.com/robertguss/factorydesk/internal/messages"
	"github.com/robertguss/factorydesk/internal/presenter"
	"github.com/robertguss/factorydesk/internal/theme"
)

const (
	barWidth   = 30
	recentDays = 7
)

// Summary is the floor snapshot computed from a list of orders
type Summary struct {
	Total      int
	ByStatus   map[domain.OrderStatus]int
	OpenPieces int

	// AtStage counts open orders by the stage they are currently in,
	// indexed by stage sequence
	AtStage map[int]int

	// CreatedByDay counts orders created per day over the last week,
	// oldest first
	CreatedByDay []DayCount
}

// DayCount is the number of orders created on one day
type DayCount struct {
	Day   time.Time
	Count int
}

// CompletionRate returns the share of completed orders as a percentage
func (s Summary) CompletionRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.ByStatus[domain.OrderCompleted]) / float64(s.Total) * 100
}

// Summarize builds a Summary relative to now
func Summarize(orders []*domain.Order, now time.Time) Summary {
	s := Summary{
		Total:    len(orders),
		ByStatus: make(map[domain.OrderStatus]int),
		AtStage:  make(map[int]int),
	}

	today := truncateDay(now)
	byDay := make(map[time.Time]int)

	for _, o := range orders {
		s.ByStatus[o.Status]++
		if stage, ok := domain.CurrentStage(o); ok {
			s.AtStage[stage.Sequence]++
			s.OpenPieces += o.Quantity
		}
		byDay[truncateDay(o.CreatedAt)]++
	}

	for i := recentDays - 1; i >= 0; i-- {
		day := today.AddDate(0, 0, -i)
		s.CreatedByDay = append(s.CreatedByDay, DayCount{Day: day, Count: byDay[day]})
	}
	return s
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Model represents the floor summary view state
type Model struct {
	width   int
	height  int
	styles  theme.Styles
	lang    presenter.Language
	now     func() time.Time
	summary *Summary
	scroll  int
}

// New creates a new summary view
func New(lang presenter.Language, now func() time.Time) Model {
	if now == nil {
		now = time.Now
	}
	return Model{
		styles: theme.NewStyles(),
		lang:   lang,
		now:    now,
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			if m.scroll > 0 {
				m.scroll--
			}
		case "down", "j":
			m.scroll++
		case "home":
			m.scroll = 0
		case "r":
			return m, func() tea.Msg {
				return messages.StoreChangedMsg{}
			}
		}

	case messages.OrdersLoadedMsg:
		if msg.Error == nil {
			m.SetOrders(msg.Orders)
		}
	}

	return m, nil
}

// SetOrders recomputes the summary
func (m *Model) SetOrders(orders []*domain.Order) {
	s := Summarize(orders, m.now())
	m.summary = &s
}

// Summary returns the last computed summary, or nil before any orders load
func (m Model) Summary() *Summary {
	return m.summary
}

// SetSize updates the view dimensions
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// SetStyles updates the styles
func (m *Model) SetStyles(styles theme.Styles) {
	m.styles = styles
}

// View renders the summary
func (m Model) View() string {
	if m.summary == nil {
		return lipgloss.NewStyle().
			Foreground(theme.Current.Subtle).
			Padding(2, 0).
			Render("Loading orders...")
	}
	if m.summary.Total == 0 {
		return lipgloss.NewStyle().
			Foreground(theme.Current.Subtle).
			Padding(2, 0).
			Render("No orders on the floor yet.")
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		m.styles.Title.Render("Production Floor"),
		m.renderOverview(),
		m.renderStages(),
		m.renderIntake(),
		m.styles.Muted.Render("\n↑/↓ scroll  r refresh"),
	)

	lines := strings.Split(content, "\n")
	if m.scroll > 0 && m.scroll < len(lines) {
		lines = lines[m.scroll:]
	}
	if m.height > 2 && len(lines) > m.height-2 {
		lines = lines[:m.height-2]
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderOverview() string {
	s := m.summary
	t := theme.Current
	key := lipgloss.NewStyle().Foreground(t.Secondary).Bold(true)

	var rows []string
	rows = append(rows, fmt.Sprintf("%s %s", key.Render("Orders:"), humanize.Comma(int64(s.Total))))

	var parts []string
	for _, status := range []domain.OrderStatus{domain.OrderPending, domain.OrderProcessing, domain.OrderCompleted} {
		label := presenter.StatusLabel(m.lang, status)
		parts = append(parts, fmt.Sprintf("%s %d", presenter.StatusBadge(status, label, m.styles), s.ByStatus[status]))
	}
	rows = append(rows, strings.Join(parts, "  "))

	rows = append(rows, fmt.Sprintf("%s %s", key.Render("Pieces in production:"), humanize.Comma(int64(s.OpenPieces))))
	rows = append(rows, fmt.Sprintf("%s %s %.1f%%",
		key.Render("Completed:"),
		presenter.ProgressBar(s.CompletionRate(), 20, m.styles),
		s.CompletionRate(),
	))

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.Border).
		Padding(0, 2).
		Render(strings.Join(rows, "\n"))
}

func (m Model) renderStages() string {
	s := m.summary
	t := theme.Current

	maxCount := 1
	for _, n := range s.AtStage {
		if n > maxCount {
			maxCount = n
		}
	}

	rows := []string{m.sectionTitle("Open orders by stage")}
	for _, stage := range domain.Stages() {
		count := s.AtStage[stage.Sequence]
		label := lipgloss.NewStyle().
			Foreground(t.Primary).
			Width(22).
			Render(presenter.Icon(stage.Category) + " " + presenter.StageLabel(m.lang, stage))
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Left,
			label, bar(count, maxCount, t.Accent), " ", countLabel(count)))
	}
	return strings.Join(rows, "\n")
}

func (m Model) renderIntake() string {
	s := m.summary
	t := theme.Current

	maxCount := 1
	for _, d := range s.CreatedByDay {
		if d.Count > maxCount {
			maxCount = d.Count
		}
	}

	rows := []string{m.sectionTitle("New orders, last 7 days")}
	for _, d := range s.CreatedByDay {
		day := lipgloss.NewStyle().
			Foreground(t.Subtle).
			Width(12).
			Render(d.Day.Format("01-02"))
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Left,
			day, bar(d.Count, maxCount, t.Secondary), " ", countLabel(d.Count)))
	}
	return strings.Join(rows, "\n")
}

func (m Model) sectionTitle(title string) string {
	return lipgloss.NewStyle().
		Foreground(theme.Current.Secondary).
		Bold(true).
		Padding(1, 0, 0, 0).
		Render(title)
}

func bar(count, maxCount int, color lipgloss.Color) string {
	n := count * barWidth / maxCount
	return lipgloss.NewStyle().Foreground(color).Render(strings.Repeat("=", n))
}

func countLabel(n int) string {
	return lipgloss.NewStyle().
		Foreground(theme.Current.Foreground).
		Width(4).
		Align(lipgloss.Right).
		Render(fmt.Sprintf("%d", n))
}
