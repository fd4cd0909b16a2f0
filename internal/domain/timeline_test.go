package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func orderWith(stages StageSet, status OrderStatus) *Order {
	o := NewOrder("order-1", "Acme Textiles", "Cotton shirts", 120, time.Now())
	o.CompletedStages = stages
	o.Status = status
	return o
}

func currentSteps(steps []TimelineStep) []TimelineStep {
	var out []TimelineStep
	for _, s := range steps {
		if s.Current {
			out = append(out, s)
		}
	}
	return out
}

func TestDeriveTimeline_Totality(t *testing.T) {
	// Every subset of {1..7}, with and without the completed status.
	for mask := 0; mask < 1<<StageCount; mask++ {
		for _, status := range []OrderStatus{OrderPending, OrderProcessing, OrderCompleted} {
			order := orderWith(StageSet(mask), status)
			steps := DeriveTimeline(order)

			require.Len(t, steps, StageCount)
			for i, step := range steps {
				assert.Equal(t, i+1, step.Stage.Sequence)
			}

			current := currentSteps(steps)
			require.LessOrEqual(t, len(current), 1)

			if status == OrderCompleted {
				assert.Empty(t, current)
				for _, step := range steps {
					assert.True(t, step.Completed)
					assert.Equal(t, StateCompleted, step.State)
				}
				continue
			}

			first := StageSet(mask).FirstMissing()
			if first == 0 {
				assert.Empty(t, current)
			} else {
				require.Len(t, current, 1)
				assert.Equal(t, first, current[0].Stage.Sequence)
				assert.Equal(t, StateCurrent, current[0].State)
			}
		}
	}
}

func TestDeriveTimeline_States(t *testing.T) {
	order := orderWith(StagesThrough(3), OrderProcessing)
	steps := DeriveTimeline(order)

	expected := []DisplayState{
		StateCompleted, StateCompleted, StateCompleted,
		StateCurrent,
		StatePending, StatePending, StatePending,
	}
	for i, step := range steps {
		assert.Equal(t, expected[i], step.State, "stage %d", i+1)
	}
}

func TestDeriveTimeline_Notes(t *testing.T) {
	order := orderWith(StagesThrough(2), OrderProcessing)
	order.TimelineNotes = map[string]string{
		"3": "dye batch delayed",
		"9": "not a stage",
	}

	steps := DeriveTimeline(order)

	assert.Equal(t, "dye batch delayed", steps[2].Note)
	assert.True(t, steps[2].HasNote())
	for i, step := range steps {
		if i != 2 {
			assert.False(t, step.HasNote())
		}
	}
}

func TestDeriveTimeline_Defensive(t *testing.T) {
	t.Run("nil order renders all pending with stage one current", func(t *testing.T) {
		steps := DeriveTimeline(nil)
		require.Len(t, steps, StageCount)
		assert.True(t, steps[0].Current)
		assert.False(t, steps[0].Completed)
	})

	t.Run("empty stage set makes stage one current", func(t *testing.T) {
		steps := DeriveTimeline(orderWith(0, OrderPending))
		assert.True(t, steps[0].Current)
	})

	t.Run("gap picks the smallest missing stage", func(t *testing.T) {
		steps := DeriveTimeline(orderWith(NewStageSet(1, 2, 5), OrderProcessing))
		current := currentSteps(steps)
		require.Len(t, current, 1)
		assert.Equal(t, 3, current[0].Stage.Sequence)
		assert.True(t, steps[4].Completed)
	})

	t.Run("full set without completed status has no current stage", func(t *testing.T) {
		steps := DeriveTimeline(orderWith(StagesThrough(7), OrderProcessing))
		assert.Empty(t, currentSteps(steps))
	})

	t.Run("completed status overrides inconsistent stages", func(t *testing.T) {
		steps := DeriveTimeline(orderWith(NewStageSet(1), OrderCompleted))
		for _, step := range steps {
			assert.True(t, step.Completed)
			assert.False(t, step.Current)
		}
	})
}

func TestCurrentStage(t *testing.T) {
	stage, ok := CurrentStage(orderWith(StagesThrough(3), OrderProcessing))
	require.True(t, ok)
	assert.Equal(t, StageStitching, stage.Sequence)

	_, ok = CurrentStage(orderWith(StagesThrough(7), OrderCompleted))
	assert.False(t, ok)
}

func TestProgressPercent(t *testing.T) {
	assert.Equal(t, 0.0, ProgressPercent(nil))

	steps := DeriveTimeline(orderWith(StagesThrough(7), OrderCompleted))
	assert.Equal(t, 100.0, ProgressPercent(steps))

	steps = DeriveTimeline(orderWith(NewStageSet(1), OrderPending))
	assert.InDelta(t, 100.0/7, ProgressPercent(steps), 0.001)
}
