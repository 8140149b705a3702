package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/carpenike/fitcoach/internal/importers"
	"github.com/carpenike/fitcoach/internal/models"
)

func newImportCmd(a *app) *cobra.Command {
	var (
		unit   string
		dryRun bool
	)
	cmd := &cobra.Command{
		Use:   "import <username> <file>",
		Short: "Import workout history from a Strong or Hevy CSV export",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if unit != string(importers.UnitKg) && unit != string(importers.UnitLbs) {
				return fmt.Errorf("--unit must be kg or lbs")
			}
			data, err := os.ReadFile(args[1])
			if err != nil {
				return err
			}
			pf, err := importers.Parse(data, importers.WeightUnit(unit))
			if err != nil {
				return err
			}
			if pf.Format == importers.FormatCatalogJSON {
				return fmt.Errorf("%s is an exercise catalog; use fitcoach catalog load", args[1])
			}

			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer db.Close()
			user, err := lookupUser(db, args[0])
			if err != nil {
				return err
			}

			var out any
			if dryRun {
				out, err = models.PreviewImport(db, user.ID, pf)
			} else {
				out, err = models.ImportHistory(db, user.ID, pf, user.Location())
			}
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}
	cmd.Flags().StringVar(&unit, "unit", "kg", "weight unit of Strong exports (kg or lbs)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print what would be imported without changing anything")
	return cmd
}

func newCatalogCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the exercise catalog",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "load <file>",
		Short: "Add exercises from a catalog JSON file; existing entries are kept",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			pf, err := importers.ParseCatalogJSON(bytes.NewReader(data))
			if err != nil {
				return err
			}

			db, err := a.openDB()
			if err != nil {
				return err
			}
			defer db.Close()

			added, err := models.SeedExercises(db, pf)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "added %d of %d exercises\n", added, len(pf.Exercises))
			return nil
		},
	})
	return cmd
}
