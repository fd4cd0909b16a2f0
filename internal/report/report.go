// Package report builds the production report workbook.
package report

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/robertguss/factorydesk/internal/domain"
	"github.com/robertguss/factorydesk/internal/presenter"
)

// SheetName is the worksheet holding one row per order
const SheetName = "Production"

// ContentType is the MIME type of the workbook
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const (
	doneMark    = "✔"
	currentMark = "▶"
)

// Headers returns the column titles in the presenter's language
func Headers(p *presenter.Presenter) []string {
	lang := p.Language()
	headers := []string{"Order", "Customer", "Product", "Quantity"}
	for _, stage := range domain.Stages() {
		headers = append(headers, presenter.StageLabel(lang, stage))
	}
	return append(headers, "Current stage", "Status", "Progress %", "Last updated")
}

// Rows maps orders to report rows, one per order
func Rows(p *presenter.Presenter, orders []*domain.Order) [][]any {
	rows := make([][]any, 0, len(orders))
	for _, order := range orders {
		view := p.Build(order, domain.DeriveTimeline(order))

		row := []any{order.ID, order.CustomerName, order.Product, order.Quantity}
		for _, step := range view.Steps {
			switch {
			case step.Completed:
				row = append(row, doneMark)
			case step.Current:
				row = append(row, currentMark)
			default:
				row = append(row, "")
			}
		}

		current := ""
		if view.CurrentStage != nil {
			current = view.CurrentStage.Label
		}
		row = append(row, current, view.StatusLabel, view.Progress, order.LastUpdated.UTC().Format(time.RFC3339))
		rows = append(rows, row)
	}
	return rows
}

// Write renders the orders as an xlsx workbook to w
func Write(w io.Writer, p *presenter.Presenter, orders []*domain.Order) error {
	f := excelize.NewFile()
	defer f.Close()

	if _, err := f.NewSheet(SheetName); err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to remove default sheet: %w", err)
	}
	index, err := f.GetSheetIndex(SheetName)
	if err != nil {
		return fmt.Errorf("failed to find sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#D3D3D3"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	headers := Headers(p)
	for i, header := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(SheetName, cell, header); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}
	lastHeader, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := f.SetCellStyle(SheetName, "A1", lastHeader, headerStyle); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for r, row := range Rows(p, orders) {
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d: %w", r+2, err)
		}
	}

	lastCol, _ := excelize.ColumnNumberToName(len(headers))
	if err := f.SetColWidth(SheetName, "A", lastCol, 15); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}
	if err := f.SetPanes(SheetName, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return fmt.Errorf("failed to freeze header: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// Filename returns a dated download name for the report
func Filename(now time.Time) string {
	return fmt.Sprintf("production-%s.xlsx", now.Format("2006-01-02"))
}
