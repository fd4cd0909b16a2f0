package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/robertguss/factorydesk/internal/domain"
	"github.com/robertguss/factorydesk/internal/presenter"
	"github.com/robertguss/factorydesk/internal/storage"
)

func newStagesCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "stages",
		Short: "List the production stages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lang := app.presenter().Language()
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSTAGE\tCATEGORY")
			for _, s := range domain.Stages() {
				fmt.Fprintf(w, "%s\t%s %s\t%s\n", s.ID, presenter.Icon(s.Category), presenter.StageLabel(lang, s), s.Category)
			}
			return w.Flush()
		},
	}
}

func newOrdersCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "orders",
		Short: "Manage orders",
	}

	cmd.AddCommand(
		newOrdersListCmd(app),
		newOrdersCreateCmd(app),
		newOrdersShowCmd(app),
		newOrdersDeleteCmd(app),
		newOrdersStatsCmd(app),
	)

	return cmd
}

func newOrdersListCmd(app *App) *cobra.Command {
	var status, customer string
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List orders, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			filter := &storage.OrderFilter{
				Status:   domain.OrderStatus(status),
				Customer: customer,
				Limit:    limit,
				Offset:   offset,
			}
			if filter.Status != "" && !filter.Status.IsValid() {
				return fmt.Errorf("invalid status %q: must be pending, processing or completed", status)
			}

			orders, err := app.Store.ListOrders(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if len(orders) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No orders found.")
				return nil
			}
			return printOrders(cmd.OutOrStdout(), app, orders)
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Filter by status")
	cmd.Flags().StringVar(&customer, "customer", "", "Filter by customer name")
	cmd.Flags().IntVar(&limit, "limit", 50, "Maximum number of orders")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of orders to skip")

	return cmd
}

func printOrders(out io.Writer, app *App, orders []*domain.Order) error {
	lang := app.presenter().Language()
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tCUSTOMER\tQTY\tSTATUS\tCURRENT STAGE\tPROGRESS\tUPDATED")
	for _, o := range orders {
		stage := "-"
		if s, ok := domain.CurrentStage(o); ok {
			stage = presenter.StageLabel(lang, s)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%.0f%%\t%s\n",
			o.ID,
			o.CustomerName,
			humanize.Comma(int64(o.Quantity)),
			presenter.StatusLabel(lang, o.Status),
			stage,
			domain.ProgressPercent(domain.DeriveTimeline(o)),
			humanize.RelTime(o.LastUpdated, app.Now(), "ago", "from now"),
		)
	}
	return w.Flush()
}

func newOrdersCreateCmd(app *App) *cobra.Command {
	var id, customer, product string
	var quantity int

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an order at the received stage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if quantity < 0 {
				return fmt.Errorf("quantity must not be negative")
			}

			order := domain.NewOrder(id, customer, product, quantity, app.Now().UTC())
			if err := app.Store.CreateOrder(cmd.Context(), order); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created order %s for %s\n", order.ID, order.CustomerName)
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "Order ID (generated when empty)")
	cmd.Flags().StringVar(&customer, "customer", "", "Customer name")
	cmd.Flags().StringVar(&product, "product", "", "Product description")
	cmd.Flags().IntVar(&quantity, "quantity", 0, "Number of pieces")
	_ = cmd.MarkFlagRequired("customer")

	return cmd
}

func newOrdersShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show ORDER_ID",
		Short: "Print an order as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			order, err := app.Store.GetOrder(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(order)
		},
	}
}

func newOrdersDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ORDER_ID",
		Short: "Delete an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := app.Store.DeleteOrder(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted order %s\n", args[0])
			return nil
		},
	}
}

func newOrdersStatsCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Count orders by status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := app.Store.GetStats(cmd.Context())
			if err != nil {
				return err
			}

			lang := app.presenter().Language()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Total: %d\n", stats.TotalOrders)
			for _, s := range []domain.OrderStatus{domain.OrderPending, domain.OrderProcessing, domain.OrderCompleted} {
				fmt.Fprintf(out, "%s: %d\n", presenter.StatusLabel(lang, s), stats.ByStatus[s])
			}
			return nil
		},
	}
}
