// Package messages defines the tea.Msg types shared by the terminal views.
package messages

import (
	"github.com/robertguss/factorydesk/internal/domain"
)

// Navigation messages
type NavigateMsg struct {
	View domain.View
}

type NavigateBackMsg struct{}

// Order messages

// OrdersLoadedMsg carries the result of listing orders
type OrdersLoadedMsg struct {
	Orders []*domain.Order
	Error  error
}

// OrderSelectedMsg opens the timeline for an order
type OrderSelectedMsg struct {
	OrderID string
}

// TimelineLoadedMsg carries an order and its derived timeline
type TimelineLoadedMsg struct {
	Order *domain.Order
	Steps []domain.TimelineStep
	Error error
}

// OrderUpdatedMsg is sent after a progress action finishes
type OrderUpdatedMsg struct {
	Action string
	Order  *domain.Order
	Error  error
}

// AdvanceRequestMsg asks for the current stage to be completed
type AdvanceRequestMsg struct {
	OrderID string
}

// RevertRequestMsg asks for the last completed stage to be undone
type RevertRequestMsg struct {
	OrderID string
}

// NoteRequestMsg asks for a stage note to be saved
type NoteRequestMsg struct {
	OrderID string
	StageID string
	Note    string
}

// StoreChangedMsg is sent when the orders file changed outside this process
type StoreChangedMsg struct {
	Path string
}

// Window size message
type WindowSizeMsg struct {
	Width  int
	Height int
}

// Error message
type ErrorMsg struct {
	Error error
}
