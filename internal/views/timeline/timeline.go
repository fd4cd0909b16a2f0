// Package timeline is the terminal view of a single order's production
// timeline, with keys to advance, revert and annotate stages.
package timeline

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/robertguss/factorydesk/internal/domain"
	"github.com/robertguss/factorydesk/internal/messages"
	"github.com/robertguss/factorydesk/internal/presenter"
	"github.com/robertguss/factorydesk/internal/theme"
)

const noteCharLimit = 280

// KeyMap defines the timeline key bindings
type KeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Advance key.Binding
	Revert  key.Binding
	Note    key.Binding
	Save    key.Binding
	Cancel  key.Binding
	Back    key.Binding
}

// DefaultKeyMap returns the standard bindings
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑", "prev stage")),
		Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓", "next stage")),
		Advance: key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "advance")),
		Revert:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "revert")),
		Note:    key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "note")),
		Save:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "save")),
		Cancel:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		Back:    key.NewBinding(key.WithKeys("esc", "backspace"), key.WithHelp("esc", "orders")),
	}
}

// ShortHelp returns the bindings shown in the help line
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Advance, k.Revert, k.Note, k.Back}
}

// Model represents the timeline view
type Model struct {
	width     int
	height    int
	keys      KeyMap
	presenter *presenter.Presenter
	styles    theme.Styles

	order  *domain.Order
	steps  []domain.TimelineStep
	view   presenter.OrderTimeline
	cursor int
	err    error

	editing bool
	input   textinput.Model
}

// New creates a new timeline model
func New(p *presenter.Presenter) Model {
	input := textinput.New()
	input.CharLimit = noteCharLimit
	input.Prompt = "✎ "

	return Model{
		keys:      DefaultKeyMap(),
		presenter: p,
		styles:    theme.NewStyles(),
		input:     input,
	}
}

// Init initializes the timeline view
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.editing {
			return m.updateEditing(msg)
		}
		return m.updateBrowsing(msg)

	case messages.TimelineLoadedMsg:
		if msg.Error != nil {
			m.err = msg.Error
			return m, nil
		}
		m.SetOrder(msg.Order, msg.Steps)

	case messages.OrderUpdatedMsg:
		if msg.Error == nil && msg.Order != nil && m.order != nil && msg.Order.ID == m.order.ID {
			m.refresh(msg.Order)
		}

	case messages.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}

	return m, nil
}

func (m Model) updateBrowsing(msg tea.KeyMsg) (Model, tea.Cmd) {
	if m.order == nil {
		if key.Matches(msg, m.keys.Back) {
			return m, func() tea.Msg { return messages.NavigateBackMsg{} }
		}
		return m, nil
	}

	id := m.order.ID
	switch {
	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.steps)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Advance):
		return m, func() tea.Msg { return messages.AdvanceRequestMsg{OrderID: id} }
	case key.Matches(msg, m.keys.Revert):
		return m, func() tea.Msg { return messages.RevertRequestMsg{OrderID: id} }
	case key.Matches(msg, m.keys.Note):
		note, _ := m.order.Note(m.SelectedStage().ID)
		m.input.SetValue(note)
		m.input.CursorEnd()
		m.editing = true
		return m, m.input.Focus()
	case key.Matches(msg, m.keys.Back):
		return m, func() tea.Msg { return messages.NavigateBackMsg{} }
	}
	return m, nil
}

func (m Model) updateEditing(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Save):
		req := messages.NoteRequestMsg{
			OrderID: m.order.ID,
			StageID: m.SelectedStage().ID,
			Note:    m.input.Value(),
		}
		m.stopEditing()
		return m, func() tea.Msg { return req }
	case key.Matches(msg, m.keys.Cancel):
		m.stopEditing()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) stopEditing() {
	m.editing = false
	m.input.Blur()
	m.input.Reset()
}

// SetSize sets the view dimensions
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = max(width-12, 10)
}

// SetStyles replaces the styles after a theme change
func (m *Model) SetStyles(styles theme.Styles) {
	m.styles = styles
}

// SetOrder shows a freshly loaded order and puts the cursor on its current stage
func (m *Model) SetOrder(order *domain.Order, steps []domain.TimelineStep) {
	m.err = nil
	m.order = order
	m.steps = steps
	m.view = m.presenter.Build(order, steps)
	m.cursor = len(steps) - 1
	for i, s := range steps {
		if s.Current {
			m.cursor = i
			break
		}
	}
	if m.editing {
		m.stopEditing()
	}
}

// refresh re-derives the timeline for an updated order, keeping the cursor
func (m *Model) refresh(order *domain.Order) {
	m.order = order
	m.steps = domain.DeriveTimeline(order)
	m.view = m.presenter.Build(order, m.steps)
	if m.cursor >= len(m.steps) {
		m.cursor = len(m.steps) - 1
	}
}

// Order returns the displayed order, nil before one is loaded
func (m Model) Order() *domain.Order {
	return m.order
}

// Editing reports whether the note input has focus
func (m Model) Editing() bool {
	return m.editing
}

// SelectedStage returns the stage under the cursor
func (m Model) SelectedStage() domain.Stage {
	if m.cursor >= 0 && m.cursor < len(m.steps) {
		return m.steps[m.cursor].Stage
	}
	s, _ := domain.StageBySequence(1)
	return s
}

// View renders the timeline view
func (m Model) View() string {
	if m.err != nil {
		return lipgloss.NewStyle().Padding(1, 2).Render(m.styles.Error.Render("Error: " + m.err.Error()))
	}
	if m.order == nil {
		return lipgloss.NewStyle().Padding(1, 2).Render(m.styles.Muted.Render("No order selected"))
	}

	lang := m.presenter.Language()
	body := presenter.Render(m.view, m.styles, lang)

	selected := m.SelectedStage()
	selection := m.styles.Shortcut.Render("▸ ") +
		m.styles.Bold.Render(presenter.StageLabel(lang, selected))

	var footer string
	if m.editing {
		footer = m.input.View() + "\n" + m.styles.Muted.Render("[enter] save  [esc] cancel  empty note clears")
	} else {
		footer = m.styles.Muted.Render(m.helpLine())
	}

	view := lipgloss.JoinVertical(lipgloss.Left,
		strings.TrimRight(body, "\n"),
		"",
		selection,
		footer,
	)
	return lipgloss.NewStyle().Padding(1, 2).Render(view)
}

func (m Model) helpLine() string {
	var parts []string
	for _, b := range m.keys.ShortHelp() {
		h := b.Help()
		parts = append(parts, fmt.Sprintf("[%s] %s", h.Key, h.Desc))
	}
	return strings.Join(parts, "  ")
}
