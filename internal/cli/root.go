// Package cli implements the management commands: schema migrations,
// ingredient import and staff account creation.
package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/logger"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	LogLevel string
}

// NewRootCommand creates the root command for the management CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "manage",
		Short: "Foodgram management commands",
		// main prints the returned error.
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "warn", "log level (debug|info|warn|error)")

	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewImportIngredientsCommand(opts))
	cmd.AddCommand(NewCreateSuperuserCommand(opts))

	return cmd
}

func (o *RootOptions) logger(cmd *cobra.Command) *slog.Logger {
	return logger.NewWithWriter(cmd.ErrOrStderr(), o.LogLevel, "text")
}

// openDB loads the configuration and opens the database, migrating it first
// when auto-migration is enabled.
func openDB(cmd *cobra.Command, opts *RootOptions) (*gorm.DB, *config.Config, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, err
	}
	log := opts.logger(cmd)

	db, err := database.New(cfg.Database, log)
	if err != nil {
		return nil, nil, err
	}
	if cfg.Database.AutoMigrate {
		if err := database.RunMigrations(db, cfg.Database.Migrations, log); err != nil {
			_ = database.Close(db)
			return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}
	return db, cfg, nil
}
