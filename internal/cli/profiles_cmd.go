package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/robertguss/factorydesk/internal/profile"
)

func newProfilesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profiles",
		Short: "Manage site profiles",
	}
	cmd.AddCommand(
		newProfilesListCmd(app),
		newProfilesSaveCmd(app),
		newProfilesUseCmd(app),
		newProfilesDeleteCmd(app),
	)
	return cmd
}

func (a *App) profileStore() (*profile.ProfileStore, error) {
	ps := profile.NewProfileStore(a.Config.DataDir)
	if err := ps.Load(); err != nil {
		return nil, err
	}
	return ps, nil
}

func newProfilesListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List site profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ps, err := app.profileStore()
			if err != nil {
				return err
			}

			names := ps.List()
			out := cmd.OutOrStdout()
			if len(names) == 0 {
				fmt.Fprintln(out, "No profiles found.")
				return nil
			}

			w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			for _, name := range names {
				p, _ := ps.Get(name)
				marker := " "
				if name == ps.Active() {
					marker = "*"
				}
				fmt.Fprintf(w, "%s %s\t%s\t%s\n", marker, name, p.Store, p.Description)
			}
			return w.Flush()
		},
	}
}

func newProfilesSaveCmd(app *App) *cobra.Command {
	var p profile.Profile

	cmd := &cobra.Command{
		Use:   "save NAME",
		Short: "Create or replace a site profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ps, err := app.profileStore()
			if err != nil {
				return err
			}

			p.Name = args[0]
			if err := ps.Save(&p); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved profile %s\n", p.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&p.Description, "description", "", "Profile description")
	cmd.Flags().StringVar(&p.Store, "driver", "", "Store driver: sqlite or json")
	cmd.Flags().StringVar(&p.StorePath, "path", "", "Database or orders file path")
	cmd.Flags().StringVar(&p.Language, "language", "", "Label language: en or ar")
	cmd.Flags().StringVar(&p.Theme, "theme", "", "Theme name")
	cmd.Flags().IntVar(&p.APIPort, "port", 0, "API server port")

	return cmd
}

func newProfilesUseCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "use NAME",
		Short: "Make a profile the default",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ps, err := app.profileStore()
			if err != nil {
				return err
			}
			if err := ps.SetActive(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Active profile: %s\n", args[0])
			return nil
		},
	}
}

func newProfilesDeleteCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "delete NAME",
		Short: "Delete a site profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ps, err := app.profileStore()
			if err != nil {
				return err
			}
			if _, ok := ps.Get(args[0]); !ok {
				return fmt.Errorf("profile not found: %s", args[0])
			}
			if err := ps.Delete(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted profile %s\n", args[0])
			return nil
		},
	}
}
