package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/robertguss/factorydesk/internal/domain"
	"github.com/robertguss/factorydesk/internal/presenter"
)

var reportNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func reportOrders() []*domain.Order {
	a := domain.NewOrder("A-1", "Acme", "Shirts", 100, reportNow.Add(-72*time.Hour))
	a.CompletedStages = domain.StagesThrough(3)
	a.Status = domain.OrderProcessing

	b := domain.NewOrder("B-2", "Bolt", "Scarves", 40, reportNow.Add(-24*time.Hour))
	b.CompletedStages = domain.StagesThrough(7)
	b.Status = domain.OrderCompleted

	return []*domain.Order{a, b}
}

func TestHeaders(t *testing.T) {
	headers := Headers(presenter.New("en"))
	require.Len(t, headers, 4+domain.StageCount+4)
	assert.Equal(t, "Received", headers[4])
	assert.Equal(t, "Delivered", headers[10])

	arabic := Headers(presenter.New("ar"))
	assert.Equal(t, "تم الاستلام", arabic[4])
}

func TestRows(t *testing.T) {
	p := presenter.New("en", presenter.WithNow(func() time.Time { return reportNow }))
	rows := Rows(p, reportOrders())
	require.Len(t, rows, 2)

	first := rows[0]
	assert.Equal(t, "A-1", first[0])
	assert.Equal(t, doneMark, first[6])
	assert.Equal(t, currentMark, first[7])
	assert.Equal(t, "", first[8])
	assert.Equal(t, "Stitching", first[11])
	assert.Equal(t, "Processing", first[12])

	second := rows[1]
	assert.Equal(t, "", second[11])
	assert.Equal(t, 100.0, second[13])
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	p := presenter.New("en", presenter.WithNow(func() time.Time { return reportNow }))
	require.NoError(t, Write(&buf, p, reportOrders()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Order", rows[0][0])
	assert.Equal(t, "A-1", rows[1][0])
	assert.Equal(t, "Bolt", rows[2][1])
}

func TestWrite_NoOrders(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, presenter.New("en"), nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "production-2026-03-10.xlsx", Filename(reportNow))
}
