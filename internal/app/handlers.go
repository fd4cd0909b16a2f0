package app

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/robertguss/factorydesk/internal/domain"
	"github.com/robertguss/factorydesk/internal/messages"
	"github.com/robertguss/factorydesk/internal/progress"
)

func (m Model) handleWindowSize(msg tea.WindowSizeMsg) Model {
	m.width = msg.Width
	m.height = msg.Height
	m.ready = true

	m.header.SetWidth(msg.Width)
	m.statusbar.SetWidth(msg.Width)
	m.confetti.SetSize(msg.Width, msg.Height)

	contentHeight := msg.Height - 4
	m.orderlist.SetSize(msg.Width, contentHeight)
	m.timeline.SetSize(msg.Width, contentHeight)
	m.stats.SetSize(msg.Width, contentHeight)
	return m
}

// handleKeyMsg handles global keys before delegating to the active view
func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	// The note input owns every other key while it has focus
	if m.activeView == domain.ViewTimeline && m.timeline.Editing() {
		return m.updateActiveView(msg)
	}

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case domain.ViewOrders.Shortcut():
		m.navigate(domain.ViewOrders)
		return m, nil
	case domain.ViewTimeline.Shortcut():
		if m.timeline.Order() != nil {
			m.navigate(domain.ViewTimeline)
		}
		return m, nil
	case domain.ViewStats.Shortcut():
		m.navigate(domain.ViewStats)
		return m, nil
	}

	return m.updateActiveView(msg)
}

func (m *Model) navigate(view domain.View) {
	if view == m.activeView {
		return
	}
	m.prevView = m.activeView
	m.activeView = view
	m.header.SetActiveView(view)
}

// handleNavigationMsg handles view changes requested by the views
func (m Model) handleNavigationMsg(msg tea.Msg) (Model, tea.Cmd, bool) {
	switch msg := msg.(type) {
	case messages.NavigateMsg:
		m.navigate(msg.View)
		return m, nil, true

	case messages.NavigateBackMsg:
		m.navigate(domain.ViewOrders)
		return m, nil, true

	case messages.OrderSelectedMsg:
		m.header.SetOrder(msg.OrderID)
		m.navigate(domain.ViewTimeline)
		return m, m.loadTimeline(msg.OrderID), true
	}
	return m, nil, false
}

// handleDataMsg handles store results and progress requests
func (m Model) handleDataMsg(msg tea.Msg) (Model, tea.Cmd, bool) {
	switch msg := msg.(type) {
	case messages.OrdersLoadedMsg:
		if msg.Error != nil {
			m.statusbar.SetError("Failed to load orders: " + msg.Error.Error())
			return m, nil, true
		}
		m.orderlist.SetOrders(msg.Orders)
		m.stats.SetOrders(msg.Orders)
		m.statusbar.SetOrderCounts(len(msg.Orders), countOpen(msg.Orders))
		return m, nil, true

	case messages.TimelineLoadedMsg:
		if msg.Error != nil {
			m.statusbar.SetError(msg.Error.Error())
		}
		var cmd tea.Cmd
		m.timeline, cmd = m.timeline.Update(msg)
		return m, cmd, true

	case messages.AdvanceRequestMsg:
		return m, m.runAction(progress.ActionAdvance, func(ctx context.Context) (*domain.Order, error) {
			return m.progress.AdvanceCurrentStage(ctx, msg.OrderID)
		}), true

	case messages.RevertRequestMsg:
		return m, m.runAction(progress.ActionRevert, func(ctx context.Context) (*domain.Order, error) {
			return m.progress.RevertLastCompletedStage(ctx, msg.OrderID)
		}), true

	case messages.NoteRequestMsg:
		return m, m.runAction(progress.ActionNote, func(ctx context.Context) (*domain.Order, error) {
			return m.progress.SetStageNote(ctx, msg.OrderID, msg.StageID, msg.Note)
		}), true

	case messages.OrderUpdatedMsg:
		return m.handleOrderUpdated(msg)

	case messages.StoreChangedMsg:
		m.statusbar.SetMessage("Orders file changed, reloading")
		cmds := []tea.Cmd{m.loadOrders}
		if o := m.timeline.Order(); o != nil {
			cmds = append(cmds, m.loadTimeline(o.ID))
		}
		return m, tea.Batch(cmds...), true

	case messages.ErrorMsg:
		m.statusbar.SetError(msg.Error.Error())
		return m, nil, true
	}
	return m, nil, false
}

func (m Model) handleOrderUpdated(msg messages.OrderUpdatedMsg) (Model, tea.Cmd, bool) {
	if msg.Error != nil {
		m.statusbar.SetError(fmt.Sprintf("%s failed: %v", msg.Action, msg.Error))
		return m, nil, true
	}

	prev := m.timeline.Order()
	var cmd tea.Cmd
	m.timeline, cmd = m.timeline.Update(msg)
	cmds := []tea.Cmd{cmd, m.loadOrders}

	switch msg.Action {
	case progress.ActionAdvance:
		m.statusbar.SetMessage("Stage completed")
		if msg.Order.IsCompleted() && (prev == nil || !prev.IsCompleted()) {
			m.statusbar.SetMessage(fmt.Sprintf("Order %s completed", msg.Order.ID))
			cmds = append(cmds, m.confetti.Start(m.width, m.height))
		}
	case progress.ActionRevert:
		m.statusbar.SetMessage("Stage reverted")
	case progress.ActionNote:
		m.statusbar.SetMessage("Note saved")
	}

	return m, tea.Batch(cmds...), true
}

func countOpen(orders []*domain.Order) int {
	n := 0
	for _, o := range orders {
		if !o.IsCompleted() {
			n++
		}
	}
	return n
}
