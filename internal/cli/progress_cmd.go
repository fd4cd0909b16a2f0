package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/robertguss/factorydesk/internal/domain"
	"github.com/robertguss/factorydesk/internal/presenter"
	"github.com/robertguss/factorydesk/internal/theme"
)

func newTimelineCmd(app *App) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "timeline ORDER_ID",
		Short: "Show the production timeline of an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			order, steps, err := app.Progress.Timeline(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printTimeline(cmd, app, order, steps, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the timeline view model as JSON")
	return cmd
}

func newAdvanceCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "advance ORDER_ID",
		Short: "Complete the current stage of an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			order, err := app.Progress.AdvanceCurrentStage(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printTimeline(cmd, app, order, domain.DeriveTimeline(order), false)
		},
	}
}

func newRevertCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "revert ORDER_ID",
		Short: "Undo the last completed stage of an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			order, err := app.Progress.RevertLastCompletedStage(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printTimeline(cmd, app, order, domain.DeriveTimeline(order), false)
		},
	}
}

func newNoteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "note ORDER_ID STAGE_ID [TEXT...]",
		Short: "Set or clear the note on a stage",
		Long:  "Set the note on a stage. Omitting TEXT clears the note.",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			note := strings.Join(args[2:], " ")
			order, err := app.Progress.SetStageNote(cmd.Context(), args[0], args[1], note)
			if err != nil {
				return err
			}
			return printTimeline(cmd, app, order, domain.DeriveTimeline(order), false)
		},
	}
}

func printTimeline(cmd *cobra.Command, app *App, order *domain.Order, steps []domain.TimelineStep, asJSON bool) error {
	p := app.presenter()
	view := p.Build(order, steps)

	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(view)
	}

	_, err := fmt.Fprint(cmd.OutOrStdout(), presenter.Render(view, theme.NewStyles(), p.Language()))
	return err
}
