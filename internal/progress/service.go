// Package progress moves orders through the production stages and keeps
// per-stage notes, reading and writing through an OrderStore.
package progress

import (
	"context"
	"fmt"
	"time"

	"github.com/robertguss/factorydesk/internal/domain"
	"github.com/robertguss/factorydesk/internal/storage"
)

// Event types published after a write
const (
	EventOrderUpdated    = "order.updated"
	EventOrdersRefreshed = "orders.refreshed"
)

// Actions reported in OrderUpdate
const (
	ActionAdvance = "advance"
	ActionRevert  = "revert"
	ActionNote    = "note"
)

// Publisher receives change notifications, e.g. the websocket hub
type Publisher interface {
	Publish(eventType string, data any)
}

// OrderUpdate is the payload of an EventOrderUpdated event
type OrderUpdate struct {
	Action string        `json:"action"`
	Order  *domain.Order `json:"order"`
}

// Service applies progress operations to stored orders. Each call is one
// read followed by at most one write; concurrent callers race and the last
// write wins.
type Service struct {
	store     storage.OrderStore
	now       func() time.Time
	observer  UseCaseObserver
	publisher Publisher
}

// Option configures a Service
type Option func(*Service)

// WithClock sets the time source used for LastUpdated
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithObserver sets the use-case observer
func WithObserver(observer UseCaseObserver) Option {
	return func(s *Service) {
		if observer != nil {
			s.observer = observer
		}
	}
}

// WithPublisher sets where change notifications go
func WithPublisher(publisher Publisher) Option {
	return func(s *Service) {
		s.publisher = publisher
	}
}

// NewService creates a progress service over the given store
func NewService(store storage.OrderStore, opts ...Option) *Service {
	s := &Service{
		store:    store,
		now:      func() time.Time { return time.Now().UTC() },
		observer: NoopUseCaseObserver{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AdvanceCurrentStage marks the current stage completed. Advancing a
// completed order returns it unchanged.
func (s *Service) AdvanceCurrentStage(ctx context.Context, orderID string) (order *domain.Order, err error) {
	changed := false
	startedAt := time.Now()
	defer func() {
		s.observe(ctx, "advance-stage", orderID, startedAt, changed, err, stageFields(order))
	}()

	order, err = s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}

	patch, changed := domain.Advance(order, s.now())
	if !changed {
		return order, nil
	}

	order, err = s.save(ctx, orderID, patch, ActionAdvance)
	return order, err
}

// RevertLastCompletedStage removes the highest completed stage. The received
// stage is never removed; at the floor the order is returned unchanged.
func (s *Service) RevertLastCompletedStage(ctx context.Context, orderID string) (order *domain.Order, err error) {
	changed := false
	startedAt := time.Now()
	defer func() {
		s.observe(ctx, "revert-stage", orderID, startedAt, changed, err, stageFields(order))
	}()

	order, err = s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}

	patch, changed := domain.Revert(order, s.now())
	if !changed {
		return order, nil
	}

	order, err = s.save(ctx, orderID, patch, ActionRevert)
	return order, err
}

// SetStageNote sets or clears (with a blank note) the note for one stage.
// The stage ID is checked before the store is touched.
func (s *Service) SetStageNote(ctx context.Context, orderID, stageID, note string) (order *domain.Order, err error) {
	changed := false
	startedAt := time.Now()
	defer func() {
		s.observe(ctx, "set-stage-note", orderID, startedAt, changed, err, map[string]any{"stage_id": stageID})
	}()

	if _, ok := domain.StageByID(stageID); !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrInvalidStage, stageID)
	}

	order, err = s.load(ctx, orderID)
	if err != nil {
		return nil, err
	}

	var patch domain.OrderPatch
	patch, changed, err = domain.ApplyNote(order, stageID, note)
	if err != nil {
		return nil, err
	}
	if !changed {
		return order, nil
	}

	order, err = s.save(ctx, orderID, patch, ActionNote)
	return order, err
}

// Timeline loads an order and derives its timeline
func (s *Service) Timeline(ctx context.Context, orderID string) (*domain.Order, []domain.TimelineStep, error) {
	order, err := s.load(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	return order, domain.DeriveTimeline(order), nil
}

func (s *Service) load(ctx context.Context, orderID string) (*domain.Order, error) {
	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("loading order %s: %w", orderID, err)
	}
	return order, nil
}

func (s *Service) save(ctx context.Context, orderID string, patch domain.OrderPatch, action string) (*domain.Order, error) {
	order, err := s.store.UpdateOrder(ctx, orderID, patch)
	if err != nil {
		return nil, fmt.Errorf("updating order %s: %w", orderID, err)
	}

	if s.publisher != nil {
		s.publisher.Publish(EventOrderUpdated, OrderUpdate{Action: action, Order: order})
	}
	return order, nil
}

func (s *Service) observe(ctx context.Context, name, orderID string, startedAt time.Time, changed bool, err error, fields map[string]any) {
	s.observer.ObserveUseCase(ctx, UseCaseEvent{
		Name:      name,
		OrderID:   orderID,
		StartedAt: startedAt,
		Duration:  time.Since(startedAt),
		Success:   err == nil,
		Changed:   changed && err == nil,
		Err:       err,
		Fields:    fields,
	})
}

func stageFields(order *domain.Order) map[string]any {
	if order == nil {
		return nil
	}
	return map[string]any{
		"completed_stages": order.CompletedStages.String(),
		"status":           string(order.Status),
	}
}
