package domain

import (
	"fmt"
	"strings"
	"time"
)

// OrderPatch holds the order fields to change. Nil fields are left unchanged;
// a non-nil TimelineNotes map replaces the stored notes.
type OrderPatch struct {
	CompletedStages *StageSet
	Status          *OrderStatus
	LastUpdated     *time.Time
	TimelineNotes   map[string]string
}

// IsEmpty returns true if the patch changes nothing
func (p OrderPatch) IsEmpty() bool {
	return p.CompletedStages == nil && p.Status == nil && p.LastUpdated == nil && p.TimelineNotes == nil
}

// ApplyTo merges the patch into the order
func (p OrderPatch) ApplyTo(o *Order) {
	if p.CompletedStages != nil {
		o.CompletedStages = *p.CompletedStages
	}
	if p.Status != nil {
		o.Status = *p.Status
	}
	if p.LastUpdated != nil {
		o.LastUpdated = *p.LastUpdated
	}
	if p.TimelineNotes != nil {
		o.TimelineNotes = make(map[string]string, len(p.TimelineNotes))
		for k, v := range p.TimelineNotes {
			o.TimelineNotes[k] = v
		}
	}
}

func progressPatch(stages StageSet, status OrderStatus, now time.Time) OrderPatch {
	return OrderPatch{
		CompletedStages: &stages,
		Status:          &status,
		LastUpdated:     &now,
	}
}

// Advance completes the current stage as DeriveTimeline reports it, the
// smallest missing stage, so a gapped set {1,3} gains 2. The returned bool is false when there
// is no current stage (the order is already completed) and nothing changes.
func Advance(order *Order, now time.Time) (OrderPatch, bool) {
	if order.IsCompleted() {
		return OrderPatch{}, false
	}

	next := order.CompletedStages.FirstMissing()
	if next == 0 {
		return OrderPatch{}, false
	}

	stages := order.CompletedStages.With(next)
	status := OrderProcessing
	if stages.IsFull() {
		status = OrderCompleted
	}

	return progressPatch(stages, status, now), true
}

// Revert removes the highest completed stage. The received stage is the
// floor: with one or no completed stages nothing changes.
func Revert(order *Order, now time.Time) (OrderPatch, bool) {
	if order.CompletedStages.Len() <= 1 {
		return OrderPatch{}, false
	}

	stages := order.CompletedStages.Without(order.CompletedStages.Highest())
	return progressPatch(stages, OrderProcessing, now), true
}

// ApplyNote sets the note for a stage, last write wins. A blank note clears
// the stage's note. Progress fields and LastUpdated are never touched.
func ApplyNote(order *Order, stageID, note string) (OrderPatch, bool, error) {
	if _, ok := StageByID(stageID); !ok {
		return OrderPatch{}, false, fmt.Errorf("%w: %q", ErrInvalidStage, stageID)
	}

	existing, had := order.Note(stageID)
	clearing := strings.TrimSpace(note) == ""
	if (clearing && !had) || (!clearing && had && existing == note) {
		return OrderPatch{}, false, nil
	}

	notes := make(map[string]string, len(order.TimelineNotes)+1)
	for k, v := range order.TimelineNotes {
		notes[k] = v
	}
	if clearing {
		delete(notes, stageID)
	} else {
		notes[stageID] = note
	}

	return OrderPatch{TimelineNotes: notes}, true, nil
}
