package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/carpenike/fitcoach/internal/models"
)

func newSettingsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "View and change runtime settings stored in the database",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List every setting with its value and source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tVALUE\tSOURCE")
			for _, sv := range models.ListSettings(db) {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", sv.Key, sv.Masked, sv.Source)
			}
			return tw.Flush()
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get <key>",
		Short: "Print one setting (sensitive values are masked)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if models.GetSettingDefinition(args[0]) == nil {
				return fmt.Errorf("%q: %w", args[0], models.ErrUnknownSetting)
			}
			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			for _, sv := range models.ListSettings(db) {
				if sv.Key == args[0] {
					fmt.Fprintln(cmd.OutOrStdout(), sv.Masked)
				}
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Store a setting (environment variables still take precedence)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			if err := models.SetSetting(db, args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s updated\n", args[0])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "unset <key>",
		Short: "Remove a stored setting, reverting to the environment or default",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if models.GetSettingDefinition(args[0]) == nil {
				return fmt.Errorf("%q: %w", args[0], models.ErrUnknownSetting)
			}
			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer db.Close()
			return models.DeleteSetting(db, args[0])
		},
	})
	return cmd
}
