package stats

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robertguss/factorydesk/internal/domain"
	"github.com/robertguss/factorydesk/internal/messages"
	"github.com/robertguss/factorydesk/internal/presenter"
	"github.com/robertguss/factorydesk/internal/testutil"
)

func sampleOrders() []*domain.Order {
	a := testutil.NewOrderAt("A", domain.NewStageSet(1), domain.OrderPending)
	b := testutil.NewOrderAt("B", domain.StagesThrough(4), domain.OrderProcessing)
	b.Quantity = 30
	c := testutil.NewOrderAt("C", domain.StagesThrough(7), domain.OrderCompleted)
	c.CreatedAt = testutil.FixedNow.Add(-30 * 24 * time.Hour)
	d := testutil.NewOrderAt("D", domain.StagesThrough(4), domain.OrderProcessing)
	d.CreatedAt = testutil.FixedNow
	return []*domain.Order{a, b, c, d}
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleOrders(), testutil.FixedNow)

	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 1, s.ByStatus[domain.OrderPending])
	assert.Equal(t, 2, s.ByStatus[domain.OrderProcessing])
	assert.Equal(t, 1, s.ByStatus[domain.OrderCompleted])

	assert.Equal(t, 1, s.AtStage[2])
	assert.Equal(t, 2, s.AtStage[5])
	assert.Zero(t, s.AtStage[7], "completed orders have no current stage")
	assert.Equal(t, 120+30+120, s.OpenPieces)

	assert.InDelta(t, 25.0, s.CompletionRate(), 0.001)
}

func TestSummarizeIntakeWindow(t *testing.T) {
	s := Summarize(sampleOrders(), testutil.FixedNow)

	require.Len(t, s.CreatedByDay, recentDays)
	last := s.CreatedByDay[recentDays-1]
	assert.Equal(t, "2026-03-14", last.Day.Format("2006-01-02"))
	assert.Equal(t, 1, last.Count)

	twoDaysAgo := s.CreatedByDay[recentDays-3]
	assert.Equal(t, "2026-03-12", twoDaysAgo.Day.Format("2006-01-02"))
	assert.Equal(t, 2, twoDaysAgo.Count)

	total := 0
	for _, d := range s.CreatedByDay {
		total += d.Count
	}
	assert.Equal(t, 3, total, "orders older than a week are not counted")
}

func TestCompletionRateEmpty(t *testing.T) {
	assert.Zero(t, Summarize(nil, testutil.FixedNow).CompletionRate())
}

func TestView(t *testing.T) {
	m := New(presenter.English, testutil.Clock())
	m.SetSize(100, 60)
	assert.Contains(t, m.View(), "Loading orders...")

	m, _ = m.Update(messages.OrdersLoadedMsg{})
	assert.Contains(t, m.View(), "No orders on the floor yet.")

	m, _ = m.Update(messages.OrdersLoadedMsg{Orders: sampleOrders()})
	view := m.View()
	assert.Contains(t, view, "Production Floor")
	assert.Contains(t, view, "Open orders by stage")
	assert.Contains(t, view, "New orders, last 7 days")
	assert.Contains(t, view, "03-12")
}

func TestViewArabicStageLabels(t *testing.T) {
	m := New(presenter.Arabic, testutil.Clock())
	m.SetSize(100, 60)
	m.SetOrders(sampleOrders())

	assert.Contains(t, m.View(), presenter.StageLabel(presenter.Arabic, domain.Stages()[0]))
}

func TestLoadErrorKeepsSummary(t *testing.T) {
	m := New(presenter.English, testutil.Clock())
	m.SetOrders(sampleOrders())

	m, _ = m.Update(messages.OrdersLoadedMsg{Error: assert.AnError})
	require.NotNil(t, m.Summary())
	assert.Equal(t, 4, m.Summary().Total)
}

func TestRefreshKey(t *testing.T) {
	m := New(presenter.English, testutil.Clock())

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	require.NotNil(t, cmd)
	assert.IsType(t, messages.StoreChangedMsg{}, cmd())
}
