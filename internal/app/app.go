// Package app is the root bubbletea model of the terminal client.
package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/robertguss/factorydesk/internal/components/confetti"
	"github.com/robertguss/factorydesk/internal/components/header"
	"github.com/robertguss/factorydesk/internal/components/statusbar"
	"github.com/robertguss/factorydesk/internal/config"
	"github.com/robertguss/factorydesk/internal/domain"
	"github.com/robertguss/factorydesk/internal/messages"
	"github.com/robertguss/factorydesk/internal/presenter"
	"github.com/robertguss/factorydesk/internal/progress"
	"github.com/robertguss/factorydesk/internal/storage"
	"github.com/robertguss/factorydesk/internal/theme"
	"github.com/robertguss/factorydesk/internal/views/orderlist"
	"github.com/robertguss/factorydesk/internal/views/stats"
	"github.com/robertguss/factorydesk/internal/views/timeline"
)

// storeTimeout bounds each store call made from a command
const storeTimeout = 10 * time.Second

// Model is the main application model
type Model struct {
	// Dimensions
	width  int
	height int
	ready  bool

	// Navigation
	activeView domain.View
	prevView   domain.View

	config   *config.Config
	store    storage.Storage
	progress *progress.Service

	// Components
	header    header.Model
	statusbar statusbar.Model
	confetti  confetti.Model

	// Views
	orderlist orderlist.Model
	timeline  timeline.Model
	stats     stats.Model

	initialOrder string
	styles       theme.Styles
}

// Option configures the application model
type Option func(*Model)

// WithInitialOrder opens the timeline for the given order on start
func WithInitialOrder(id string) Option {
	return func(m *Model) {
		m.initialOrder = id
	}
}

// WithPresenter overrides the presenter used by the views
func WithPresenter(p *presenter.Presenter) Option {
	return func(m *Model) {
		m.orderlist = orderlist.New(p.Language())
		m.timeline = timeline.New(p)
		m.stats = stats.New(p.Language(), p.Now)
	}
}

// New creates a new application model
func New(cfg *config.Config, store storage.Storage, svc *progress.Service, opts ...Option) Model {
	p := presenter.New(cfg.Language)

	m := Model{
		activeView: domain.ViewOrders,
		config:     cfg,
		store:      store,
		progress:   svc,
		header:     header.New(),
		statusbar:  statusbar.New(),
		confetti:   confetti.New(),
		orderlist:  orderlist.New(p.Language()),
		timeline:   timeline.New(p),
		stats:      stats.New(p.Language(), p.Now),
		styles:     theme.NewStyles(),
	}
	for _, opt := range opts {
		opt(&m)
	}

	if m.initialOrder != "" {
		m.activeView = domain.ViewTimeline
		m.header.SetOrder(m.initialOrder)
	}
	m.header.SetActiveView(m.activeView)
	m.statusbar.SetStore(cfg.StoreDriver, cfg.WatchEnabled && cfg.StoreDriver == storage.DriverJSON)
	m.statusbar.SetLanguage(string(p.Language()))

	return m
}

// ActiveView returns the view currently shown
func (m Model) ActiveView() domain.View {
	return m.activeView
}

// Init loads the order list and, when requested, the initial timeline
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.loadOrders}
	if m.initialOrder != "" {
		cmds = append(cmds, m.loadTimeline(m.initialOrder))
	}
	return tea.Batch(cmds...)
}

// Update handles all messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleWindowSize(msg), nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case confetti.TickMsg:
		var cmd tea.Cmd
		m.confetti, cmd = m.confetti.Update(msg)
		return m, cmd
	}

	if model, cmd, handled := m.handleDataMsg(msg); handled {
		return model, cmd
	}
	if model, cmd, handled := m.handleNavigationMsg(msg); handled {
		return model, cmd
	}

	return m.updateActiveView(msg)
}

// updateActiveView forwards a message to the active view
func (m Model) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.activeView {
	case domain.ViewOrders:
		m.orderlist, cmd = m.orderlist.Update(msg)
	case domain.ViewTimeline:
		m.timeline, cmd = m.timeline.Update(msg)
	case domain.ViewStats:
		m.stats, cmd = m.stats.Update(msg)
	}
	return m, cmd
}

// View renders the application
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	var content string
	switch m.activeView {
	case domain.ViewTimeline:
		content = m.timeline.View()
	case domain.ViewStats:
		content = m.stats.View()
	default:
		content = m.orderlist.View()
	}

	contentHeight := m.height - 4
	content = lipgloss.NewStyle().
		Width(m.width).
		Height(contentHeight).
		MaxHeight(contentHeight).
		Render(content)

	view := lipgloss.JoinVertical(lipgloss.Left,
		m.header.View(),
		content,
		m.statusbar.View(),
	)
	return m.confetti.Overlay(view)
}

// Commands

func (m Model) loadOrders() tea.Msg {
	ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
	defer cancel()

	orders, err := m.store.ListOrders(ctx, &storage.OrderFilter{Limit: 1000})
	return messages.OrdersLoadedMsg{Orders: orders, Error: err}
}

func (m Model) loadTimeline(id string) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()

		order, steps, err := m.progress.Timeline(ctx, id)
		return messages.TimelineLoadedMsg{Order: order, Steps: steps, Error: err}
	}
}

// runAction wraps a progress operation as a command reporting OrderUpdatedMsg
func (m Model) runAction(action string, fn func(context.Context) (*domain.Order, error)) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), storeTimeout)
		defer cancel()

		order, err := fn(ctx)
		return messages.OrderUpdatedMsg{Action: action, Order: order, Error: err}
	}
}
