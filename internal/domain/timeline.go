package domain

// DisplayState is the presentation state of a timeline step
type DisplayState string

const (
	StateCompleted DisplayState = "completed"
	StateCurrent   DisplayState = "current"
	StatePending   DisplayState = "pending"
)

// TimelineStep is one stage of an order's derived timeline
type TimelineStep struct {
	Stage     Stage
	Completed bool
	Current   bool
	State     DisplayState
	Note      string
}

// HasNote returns true if a note is attached to the step
func (s TimelineStep) HasNote() bool {
	return s.Note != ""
}

// DeriveTimeline computes the renderable timeline for an order. It never
// fails: stage numbers outside the catalog are ignored, and an order marked
// completed renders every stage completed regardless of its stage set.
func DeriveTimeline(order *Order) []TimelineStep {
	stages := Stages()
	steps := make([]TimelineStep, len(stages))

	var completed StageSet
	var notes map[string]string
	closed := false
	if order != nil {
		completed = order.CompletedStages
		notes = order.TimelineNotes
		closed = order.Status == OrderCompleted
	}

	current := 0
	if !closed {
		current = completed.FirstMissing()
	}

	for i, stage := range stages {
		step := TimelineStep{
			Stage:     stage,
			Completed: closed || completed.Has(stage.Sequence),
			Note:      notes[stage.ID],
		}
		step.Current = !step.Completed && stage.Sequence == current

		switch {
		case step.Completed:
			step.State = StateCompleted
		case step.Current:
			step.State = StateCurrent
		default:
			step.State = StatePending
		}
		steps[i] = step
	}

	return steps
}

// CurrentStage returns the stage in progress, or false when the order is
// completed or every stage is done
func CurrentStage(order *Order) (Stage, bool) {
	for _, step := range DeriveTimeline(order) {
		if step.Current {
			return step.Stage, true
		}
	}
	return Stage{}, false
}

// ProgressPercent returns the share of completed timeline steps (0-100)
func ProgressPercent(steps []TimelineStep) float64 {
	if len(steps) == 0 {
		return 0
	}

	completed := 0
	for _, step := range steps {
		if step.Completed {
			completed++
		}
	}

	return float64(completed) / float64(len(steps)) * 100
}
