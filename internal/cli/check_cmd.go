package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/robertguss/factorydesk/internal/preflight"
)

func newCheckCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check the data directory, store and order data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			results := preflight.RunAll(cmd.Context(), app.Config, app.Store)

			out := cmd.OutOrStdout()
			for _, c := range results.Checks {
				switch {
				case c.Passed:
					fmt.Fprintf(out, "ok    %-16s %s\n", c.Name, c.Message)
				case c.Warning:
					fmt.Fprintf(out, "warn  %-16s %s\n", c.Name, c.Error)
				default:
					fmt.Fprintf(out, "FAIL  %-16s %s\n", c.Name, c.Error)
				}
			}

			if !results.AllPass {
				return errors.New("pre-flight checks failed")
			}
			return nil
		},
	}
}
