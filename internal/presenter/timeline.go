// Package presenter turns derived timelines into display-ready views for the
// API, the terminal and the spreadsheet report.
package presenter

import (
	"time"

	"github.com/dustin/go-humanize"

	"github.com/robertguss/factorydesk/internal/domain"
	"github.com/robertguss/factorydesk/internal/util"
)

const dateLayout = "2006-01-02"

// StepView is one rendered timeline stage
type StepView struct {
	Sequence  int                  `json:"sequence"`
	StageID   string               `json:"stageId"`
	Label     string               `json:"label"`
	Icon      string               `json:"icon"`
	Category  domain.StageCategory `json:"category"`
	State     domain.DisplayState  `json:"state"`
	Completed bool                 `json:"completed"`
	Current   bool                 `json:"current"`
	DateText  string               `json:"dateText"`
	Note      string               `json:"note,omitempty"`
}

// OrderTimeline is the full view of an order's progress
type OrderTimeline struct {
	OrderID      string             `json:"orderId"`
	CustomerName string             `json:"customerName,omitempty"`
	Product      string             `json:"product,omitempty"`
	QuantityText string             `json:"quantityText,omitempty"`
	Status       domain.OrderStatus `json:"status"`
	StatusLabel  string             `json:"statusLabel"`
	Progress     float64            `json:"progress"`
	CurrentStage *StepView          `json:"currentStage,omitempty"`
	InStageFor   string             `json:"inStageFor,omitempty"`
	LastUpdated  time.Time          `json:"lastUpdated"`
	Steps        []StepView         `json:"steps"`
}

// Presenter builds views in one language
type Presenter struct {
	lang Language
	now  func() time.Time
}

// Option configures a Presenter
type Option func(*Presenter)

// WithNow sets the reference time for relative dates
func WithNow(now func() time.Time) Option {
	return func(p *Presenter) {
		if now != nil {
			p.now = now
		}
	}
}

// New creates a presenter for a language code ("en" or "ar")
func New(lang string, opts ...Option) *Presenter {
	p := &Presenter{
		lang: ParseLanguage(lang),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Language returns the presenter's language
func (p *Presenter) Language() Language {
	return p.lang
}

// Now returns the presenter's reference time
func (p *Presenter) Now() time.Time {
	return p.now()
}

// Build maps an order and its derived steps to a view
func (p *Presenter) Build(order *domain.Order, steps []domain.TimelineStep) OrderTimeline {
	view := OrderTimeline{
		OrderID:      order.ID,
		CustomerName: order.CustomerName,
		Product:      order.Product,
		Status:       order.Status,
		StatusLabel:  StatusLabel(p.lang, order.Status),
		Progress:     domain.ProgressPercent(steps),
		LastUpdated:  order.LastUpdated,
		Steps:        make([]StepView, 0, len(steps)),
	}
	if order.Quantity > 0 {
		view.QuantityText = humanize.Comma(int64(order.Quantity)) + " " + Label(p.lang, "timeline.pieces")
	}

	latest := latestCompleted(steps)
	for _, step := range steps {
		sv := StepView{
			Sequence:  step.Stage.Sequence,
			StageID:   step.Stage.ID,
			Label:     StageLabel(p.lang, step.Stage),
			Icon:      Icon(step.Stage.Category),
			Category:  step.Stage.Category,
			State:     step.State,
			Completed: step.Completed,
			Current:   step.Current,
			DateText:  p.dateText(order, step, latest),
			Note:      step.Note,
		}
		view.Steps = append(view.Steps, sv)
	}

	for i := range view.Steps {
		if view.Steps[i].Current {
			view.CurrentStage = &view.Steps[i]
			view.InStageFor = util.FormatDwell(p.now().Sub(order.LastUpdated))
			break
		}
	}

	return view
}

// Only the received stage and the latest completed stage carry real
// timestamps; every other stage shows its state.
func (p *Presenter) dateText(order *domain.Order, step domain.TimelineStep, latest int) string {
	if !step.Completed {
		return StateLabel(p.lang, step.State)
	}

	switch {
	case step.Stage.Sequence == latest && !order.LastUpdated.IsZero():
		return p.relative(order.LastUpdated)
	case step.Stage.Sequence == domain.StageReceived && !order.CreatedAt.IsZero():
		return order.CreatedAt.Format(dateLayout)
	default:
		return StateLabel(p.lang, step.State)
	}
}

func (p *Presenter) relative(t time.Time) string {
	// go-humanize only speaks English
	if p.lang != English {
		return t.Format(dateLayout)
	}
	return humanize.RelTime(t, p.now(), "ago", "from now")
}

func latestCompleted(steps []domain.TimelineStep) int {
	latest := 0
	for _, step := range steps {
		if step.Completed && step.Stage.Sequence > latest {
			latest = step.Stage.Sequence
		}
	}
	return latest
}
