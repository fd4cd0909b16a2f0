package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func applied(order *Order, patch OrderPatch) *Order {
	next := order.Clone()
	patch.ApplyTo(next)
	return next
}

func TestNewOrder(t *testing.T) {
	o := NewOrder("o-1", "Acme", "Shirts", 10, fixedNow)

	assert.Equal(t, []int{1}, o.CompletedStages.Sequences())
	assert.Equal(t, OrderPending, o.Status)
	assert.Equal(t, fixedNow, o.LastUpdated)
	assert.Equal(t, fixedNow, o.CreatedAt)
	assert.NotNil(t, o.TimelineNotes)
}

func TestAdvance(t *testing.T) {
	t.Run("each step adds exactly the next stage", func(t *testing.T) {
		for k := 1; k < StageCount; k++ {
			order := orderWith(StagesThrough(k), OrderProcessing)

			patch, changed := Advance(order, fixedNow)
			require.True(t, changed)

			next := applied(order, patch)
			assert.Equal(t, StagesThrough(k+1), next.CompletedStages, "from k=%d", k)
			assert.Equal(t, fixedNow, next.LastUpdated)
			if k+1 == StageCount {
				assert.Equal(t, OrderCompleted, next.Status)
			} else {
				assert.Equal(t, OrderProcessing, next.Status)
			}
		}
	})

	t.Run("pending order becomes processing", func(t *testing.T) {
		order := NewOrder("o-1", "", "", 0, fixedNow.Add(-time.Hour))

		patch, changed := Advance(order, fixedNow)
		require.True(t, changed)
		next := applied(order, patch)

		assert.Equal(t, "{1,2}", next.CompletedStages.String())
		assert.Equal(t, OrderProcessing, next.Status)
	})

	t.Run("completed order is a no-op", func(t *testing.T) {
		order := orderWith(StagesThrough(7), OrderCompleted)

		patch, changed := Advance(order, fixedNow)
		assert.False(t, changed)
		assert.True(t, patch.IsEmpty())
	})

	t.Run("full set with stale status is a no-op", func(t *testing.T) {
		order := orderWith(StagesThrough(7), OrderProcessing)

		_, changed := Advance(order, fixedNow)
		assert.False(t, changed)
	})

	t.Run("gap completes the current stage", func(t *testing.T) {
		order := orderWith(NewStageSet(1, 2, 4), OrderProcessing)
		current, ok := CurrentStage(order)
		require.True(t, ok)

		patch, changed := Advance(order, fixedNow)
		require.True(t, changed)
		assert.Equal(t, "{1,2,3,4}", applied(order, patch).CompletedStages.String())
		assert.True(t, patch.CompletedStages.Has(current.Sequence))
	})

	t.Run("notes are untouched", func(t *testing.T) {
		order := orderWith(StagesThrough(2), OrderProcessing)
		order.TimelineNotes["2"] = "vat 3"

		patch, _ := Advance(order, fixedNow)
		assert.Nil(t, patch.TimelineNotes)
		assert.Equal(t, "vat 3", applied(order, patch).TimelineNotes["2"])
	})
}

func TestRevert(t *testing.T) {
	t.Run("floor stage is protected", func(t *testing.T) {
		order := orderWith(NewStageSet(1), OrderPending)

		patch, changed := Revert(order, fixedNow)
		assert.False(t, changed)
		assert.True(t, patch.IsEmpty())
	})

	t.Run("empty set is a no-op", func(t *testing.T) {
		_, changed := Revert(orderWith(0, OrderPending), fixedNow)
		assert.False(t, changed)
	})

	t.Run("two stages revert to the floor as processing", func(t *testing.T) {
		order := orderWith(StagesThrough(2), OrderProcessing)

		patch, changed := Revert(order, fixedNow)
		require.True(t, changed)
		next := applied(order, patch)

		assert.Equal(t, "{1}", next.CompletedStages.String())
		assert.Equal(t, OrderProcessing, next.Status)
		assert.Equal(t, fixedNow, next.LastUpdated)
	})

	t.Run("completed order reverts delivered stage", func(t *testing.T) {
		order := orderWith(StagesThrough(7), OrderCompleted)

		patch, changed := Revert(order, fixedNow)
		require.True(t, changed)
		next := applied(order, patch)

		assert.Equal(t, StagesThrough(6), next.CompletedStages)
		assert.Equal(t, OrderProcessing, next.Status)
	})

	t.Run("removes only the highest entry", func(t *testing.T) {
		order := orderWith(NewStageSet(1, 3, 5), OrderProcessing)

		patch, _ := Revert(order, fixedNow)
		assert.Equal(t, "{1,3}", applied(order, patch).CompletedStages.String())
	})
}

func TestAdvanceRevertRoundTrip(t *testing.T) {
	for k := 1; k < StageCount; k++ {
		order := orderWith(StagesThrough(k), OrderProcessing)

		advPatch, ok := Advance(order, fixedNow)
		require.True(t, ok)
		advanced := applied(order, advPatch)

		revPatch, ok := Revert(advanced, fixedNow)
		require.True(t, ok)
		reverted := applied(advanced, revPatch)

		assert.Equal(t, order.CompletedStages, reverted.CompletedStages, "k=%d", k)
		assert.Equal(t, OrderProcessing, reverted.Status)
	}
}

func TestApplyNote(t *testing.T) {
	t.Run("sets a note without touching progress", func(t *testing.T) {
		order := orderWith(StagesThrough(3), OrderProcessing)
		order.LastUpdated = fixedNow

		patch, changed, err := ApplyNote(order, "3", "dye batch delayed")
		require.NoError(t, err)
		require.True(t, changed)

		assert.Nil(t, patch.CompletedStages)
		assert.Nil(t, patch.Status)
		assert.Nil(t, patch.LastUpdated)

		next := applied(order, patch)
		assert.Equal(t, "dye batch delayed", next.TimelineNotes["3"])
		assert.Equal(t, order.CompletedStages, next.CompletedStages)
		assert.Equal(t, fixedNow, next.LastUpdated)
	})

	t.Run("overwrites an existing note", func(t *testing.T) {
		order := orderWith(StagesThrough(3), OrderProcessing)
		order.TimelineNotes["3"] = "first"
		order.TimelineNotes["2"] = "kept"

		patch, changed, err := ApplyNote(order, "3", "second")
		require.NoError(t, err)
		require.True(t, changed)

		next := applied(order, patch)
		assert.Equal(t, "second", next.TimelineNotes["3"])
		assert.Equal(t, "kept", next.TimelineNotes["2"])
		assert.Equal(t, "first", order.TimelineNotes["3"], "input order must not be mutated")
	})

	t.Run("blank note clears the entry", func(t *testing.T) {
		order := orderWith(StagesThrough(3), OrderProcessing)
		order.TimelineNotes["3"] = "first"

		patch, changed, err := ApplyNote(order, "3", "   ")
		require.NoError(t, err)
		require.True(t, changed)

		next := applied(order, patch)
		_, ok := next.TimelineNotes["3"]
		assert.False(t, ok)
		assert.NotNil(t, next.TimelineNotes)
	})

	t.Run("same note is a no-op", func(t *testing.T) {
		order := orderWith(StagesThrough(3), OrderProcessing)
		order.TimelineNotes["3"] = "same"

		_, changed, err := ApplyNote(order, "3", "same")
		require.NoError(t, err)
		assert.False(t, changed)
	})

	t.Run("clearing a missing note is a no-op", func(t *testing.T) {
		_, changed, err := ApplyNote(orderWith(StagesThrough(3), OrderProcessing), "4", "")
		require.NoError(t, err)
		assert.False(t, changed)
	})

	t.Run("rejects unknown stage", func(t *testing.T) {
		for _, id := range []string{"0", "8", "", "stitching"} {
			_, _, err := ApplyNote(orderWith(StagesThrough(3), OrderProcessing), id, "x")
			assert.True(t, errors.Is(err, ErrInvalidStage), "id %q", id)
		}
	})
}
