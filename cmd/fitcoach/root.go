package main

import (
	"bytes"
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/carpenike/fitcoach/internal/config"
	"github.com/carpenike/fitcoach/internal/database"
	"github.com/carpenike/fitcoach/internal/importers"
	"github.com/carpenike/fitcoach/internal/models"
)

// app carries state shared by every subcommand.
type app struct {
	configPath string
	envFile    string
	cfg        *config.Config
	logger     *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "fitcoach",
		Short: "Fitness and nutrition coaching backend",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(a.configPath, a.envFile)
			if err != nil {
				return err
			}
			a.cfg = cfg

			logger, err := cfg.NewLogger()
			if err != nil {
				return err
			}
			a.logger = logger
			zap.ReplaceGlobals(logger)
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
		CompletionOptions: cobra.CompletionOptions{HiddenDefaultCmd: true},
		SilenceUsage:      true,
		SilenceErrors:     true,
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to a TOML config file (default $"+config.PathEnv+")")
	root.PersistentFlags().StringVar(&a.envFile, "env-file", ".env", "dotenv file loaded before reading FITCOACH_* variables")

	root.AddCommand(
		newServeCmd(a),
		newMigrateCmd(a),
		newStreakCmd(a),
		newSettingsCmd(a),
		newImportCmd(a),
		newCatalogCmd(a),
		newVersionCmd(),
	)
	return root
}

// openDB opens the configured database, applies migrations, seeds the
// default exercise catalog and resolves the settings encryption key.
func (a *app) openDB() (*sql.DB, error) {
	db, err := database.Open(a.cfg.DBPath)
	if err != nil {
		return nil, err
	}
	if err := database.RunMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	catalog, err := importers.ParseCatalogJSON(bytes.NewReader(database.SeedExercises()))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("parse seed catalog: %w", err)
	}
	added, err := models.SeedExercises(db, catalog)
	if err != nil {
		db.Close()
		return nil, err
	}
	if added > 0 {
		zap.S().Infof("fitcoach: seeded %d exercises", added)
	}

	if _, source, err := models.GetOrCreateSecretKey(db); err != nil {
		db.Close()
		return nil, err
	} else if source == "generated" {
		zap.S().Warnf("fitcoach: generated a settings encryption key; set %s to manage it yourself", models.SecretKeyEnv)
	}
	return db, nil
}

// lookupUser resolves a username for the per-user subcommands.
func lookupUser(db *sql.DB, username string) (*models.User, error) {
	user, err := models.GetUserByUsername(db, username)
	if err != nil {
		return nil, fmt.Errorf("user %q: %w", username, err)
	}
	return user, nil
}
