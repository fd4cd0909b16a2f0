package presenter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/robertguss/factorydesk/internal/domain"
	"github.com/robertguss/factorydesk/internal/theme"
)

const progressBarWidth = 28

// Render draws the timeline as a vertical list of stages
func Render(view OrderTimeline, styles theme.Styles, lang Language) string {
	var b strings.Builder

	title := styles.Title.Render(view.OrderID)
	if view.CustomerName != "" {
		title += "  " + styles.Subtitle.Render(view.CustomerName)
	}
	b.WriteString(title + "  " + StatusBadge(view.Status, view.StatusLabel, styles) + "\n")

	if view.Product != "" || view.QuantityText != "" {
		b.WriteString(styles.Muted.Render(strings.TrimSpace(view.Product+"  "+view.QuantityText)) + "\n")
	}

	b.WriteString(fmt.Sprintf("%s %s %3.0f%%\n",
		styles.Muted.Render(Label(lang, "timeline.progress")),
		ProgressBar(view.Progress, progressBarWidth, styles),
		view.Progress,
	))
	b.WriteString("\n")

	for i, step := range view.Steps {
		b.WriteString(renderStep(step, view, styles, lang))
		if i < len(view.Steps)-1 {
			b.WriteString(styles.Connector.Render("  │") + "\n")
		}
	}

	return b.String()
}

func renderStep(step StepView, view OrderTimeline, styles theme.Styles, lang Language) string {
	style := stepStyle(step.State, styles)

	line := fmt.Sprintf("%s %s %s",
		style.Render(marker(step.State)),
		step.Icon,
		style.Render(step.Label),
	)

	date := step.DateText
	if step.Current && view.InStageFor != "" {
		date = fmt.Sprintf("%s · %s %s", date, Label(lang, "timeline.in_stage_for"), view.InStageFor)
	}
	line = lipgloss.JoinHorizontal(lipgloss.Top, line, "  ", styles.Muted.Render(date))

	out := line + "\n"
	if step.Note != "" {
		out += styles.Connector.Render("  │") + "   " + styles.Note.Render("✎ "+step.Note) + "\n"
	}
	return out
}

func marker(state domain.DisplayState) string {
	switch state {
	case domain.StateCompleted:
		return "●"
	case domain.StateCurrent:
		return "◉"
	default:
		return "○"
	}
}

func stepStyle(state domain.DisplayState, styles theme.Styles) lipgloss.Style {
	switch state {
	case domain.StateCompleted:
		return styles.StepCompleted
	case domain.StateCurrent:
		return styles.StepCurrent
	default:
		return styles.StepPending
	}
}

// StatusBadge renders an order status as a colored badge
func StatusBadge(status domain.OrderStatus, label string, styles theme.Styles) string {
	switch status {
	case domain.OrderCompleted:
		return styles.BadgeCompleted.Render(label)
	case domain.OrderProcessing:
		return styles.BadgeProcessing.Render(label)
	default:
		return styles.BadgePending.Render(label)
	}
}

// ProgressBar renders a fixed-width bar for a 0-100 percentage
func ProgressBar(percent float64, width int, styles theme.Styles) string {
	if width <= 0 {
		return ""
	}
	filled := int(percent / 100 * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return styles.StepCompleted.Render(strings.Repeat("█", filled)) +
		styles.StepPending.Render(strings.Repeat("░", width-filled))
}
