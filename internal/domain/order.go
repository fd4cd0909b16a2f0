package domain

import (
	"time"
)

// OrderStatus represents the overall production status of an order
type OrderStatus string

const (
	OrderPending    OrderStatus = "pending"
	OrderProcessing OrderStatus = "processing"
	OrderCompleted  OrderStatus = "completed"
)

// IsValid returns true for the known order statuses
func (s OrderStatus) IsValid() bool {
	return s == OrderPending || s == OrderProcessing || s == OrderCompleted
}

// Order is a customer order moving through the production stages
type Order struct {
	ID              string            `json:"id"`
	CustomerName    string            `json:"customerName,omitempty"`
	Product         string            `json:"product,omitempty"`
	Quantity        int               `json:"quantity,omitempty"`
	CompletedStages StageSet          `json:"completedStages"`
	TimelineNotes   map[string]string `json:"timelineNotes,omitempty"`
	Status          OrderStatus       `json:"status"`
	LastUpdated     time.Time         `json:"lastUpdated"`
	CreatedAt       time.Time         `json:"createdAt"`
}

// NewOrder creates an order in its initial state: received, pending
func NewOrder(id, customer, product string, quantity int, now time.Time) *Order {
	return &Order{
		ID:              id,
		CustomerName:    customer,
		Product:         product,
		Quantity:        quantity,
		CompletedStages: NewStageSet(StageReceived),
		TimelineNotes:   make(map[string]string),
		Status:          OrderPending,
		LastUpdated:     now,
		CreatedAt:       now,
	}
}

// IsCompleted returns true if the order is marked completed
func (o *Order) IsCompleted() bool {
	return o.Status == OrderCompleted
}

// Note returns the note attached to a stage, if any
func (o *Order) Note(stageID string) (string, bool) {
	if o.TimelineNotes == nil {
		return "", false
	}
	note, ok := o.TimelineNotes[stageID]
	return note, ok
}

// Clone returns a deep copy of the order
func (o *Order) Clone() *Order {
	c := *o
	if o.TimelineNotes != nil {
		c.TimelineNotes = make(map[string]string, len(o.TimelineNotes))
		for k, v := range o.TimelineNotes {
			c.TimelineNotes[k] = v
		}
	}
	return &c
}
