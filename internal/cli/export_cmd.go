package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/robertguss/factorydesk/internal/domain"
	"github.com/robertguss/factorydesk/internal/report"
	"github.com/robertguss/factorydesk/internal/storage"
)

const exportLimit = 10000

func newExportCmd(app *App) *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "export [FILE]",
		Short: "Write the production board to an Excel workbook",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := report.Filename(app.Now())
			if len(args) == 1 {
				path = args[0]
			}

			filter := &storage.OrderFilter{Status: domain.OrderStatus(status), Limit: exportLimit}
			if filter.Status != "" && !filter.Status.IsValid() {
				return fmt.Errorf("invalid status %q", status)
			}

			orders, err := app.Store.ListOrders(cmd.Context(), filter)
			if err != nil {
				return err
			}

			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("creating %s: %w", path, err)
			}
			if err := report.Write(f, app.presenter(), orders); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return fmt.Errorf("writing %s: %w", path, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Exported %d orders to %s\n", len(orders), path)
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Only export orders with this status")
	return cmd
}
