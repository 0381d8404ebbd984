package cli

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/database"
)

// ErrNothingToRollback is returned by Rollback when no migration is recorded.
var ErrNothingToRollback = errors.New("no migrations to rollback")

// NewMigrateCommand creates the migrate command.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		rollback bool
		dir      string
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending SQL migrations or roll back the last one",
		Long: `Apply every migrations/*.sql file not yet recorded in schema_migrations.

The connection string comes from DATABASE_URL, or from the database section
of the configuration when DATABASE_URL is unset.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			dsn := os.Getenv("DATABASE_URL")
			if dsn == "" {
				cfg, err := config.LoadConfig()
				if err != nil {
					return err
				}
				dsn = cfg.Database.URL()
				if dir == "" {
					dir = cfg.Database.Migrations
				}
			}
			if dir == "" {
				dir = "migrations"
			}

			db, err := sql.Open("postgres", dsn)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer db.Close()

			m := &Migrator{DB: db, Dir: dir}
			if rollback {
				name, err := m.Rollback()
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Successfully rolled back migration: %s\n", name)
				return nil
			}

			applied, err := m.Up()
			for _, name := range applied {
				fmt.Fprintf(cmd.OutOrStdout(), "Applied migration: %s\n", name)
			}
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "All migrations applied successfully.")
			return nil
		},
	}

	cmd.Flags().BoolVar(&rollback, "rollback", false, "roll back the last applied migration")
	cmd.Flags().StringVar(&dir, "dir", "", "migrations directory (default from config)")

	return cmd
}

// Migrator applies VERSION_name.sql files and undoes them with the matching
// VERSION_name_rollback.sql file. Every step runs in its own transaction.
type Migrator struct {
	DB  *sql.DB
	Dir string
}

func (m *Migrator) ensureTable() error {
	_, err := m.DB.Exec(`
		CREATE TABLE IF NOT EXISTS ` + database.MigrationsTable + ` (
			version VARCHAR(255) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			applied_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create migrations table: %w", err)
	}
	return nil
}

// Up applies pending migrations in name order and returns the files applied.
// On error the files applied before the failure are still returned.
func (m *Migrator) Up() ([]string, error) {
	if err := m.ensureTable(); err != nil {
		return nil, err
	}
	files, err := database.MigrationFiles(m.Dir)
	if err != nil {
		return nil, err
	}

	var applied []string
	for _, file := range files {
		version := database.MigrationVersion(file)

		var count int
		err := m.DB.QueryRow("SELECT COUNT(*) FROM "+database.MigrationsTable+" WHERE version = $1", version).Scan(&count)
		if err != nil {
			return applied, fmt.Errorf("failed to check migration status: %w", err)
		}
		if count > 0 {
			continue
		}

		content, err := os.ReadFile(filepath.Join(m.Dir, file))
		if err != nil {
			return applied, fmt.Errorf("failed to read migration %s: %w", file, err)
		}

		err = m.inTx(func(tx *sql.Tx) error {
			if _, err := tx.Exec(string(content)); err != nil {
				return fmt.Errorf("failed to apply migration %s: %w", file, err)
			}
			_, err := tx.Exec("INSERT INTO "+database.MigrationsTable+" (version, name) VALUES ($1, $2)", version, file)
			return err
		})
		if err != nil {
			return applied, err
		}
		applied = append(applied, file)
	}
	return applied, nil
}

// Rollback undoes the most recently applied migration and returns its name.
func (m *Migrator) Rollback() (string, error) {
	if err := m.ensureTable(); err != nil {
		return "", err
	}

	var version, name string
	err := m.DB.QueryRow(`
		SELECT version, name
		FROM `+database.MigrationsTable+`
		ORDER BY applied_at DESC, version DESC
		LIMIT 1
	`).Scan(&version, &name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNothingToRollback
	}
	if err != nil {
		return "", fmt.Errorf("failed to get last migration: %w", err)
	}

	rollbackPath := filepath.Join(m.Dir, strings.TrimSuffix(name, ".sql")+"_rollback.sql")
	content, err := os.ReadFile(rollbackPath)
	if err != nil {
		return "", fmt.Errorf("failed to read rollback file: %w", err)
	}

	err = m.inTx(func(tx *sql.Tx) error {
		if _, err := tx.Exec(string(content)); err != nil {
			return fmt.Errorf("failed to execute rollback: %w", err)
		}
		_, err := tx.Exec("DELETE FROM "+database.MigrationsTable+" WHERE version = $1", version)
		return err
	})
	if err != nil {
		return "", err
	}
	return name, nil
}

func (m *Migrator) inTx(fn func(tx *sql.Tx) error) error {
	tx, err := m.DB.Begin()
	if err != nil {
		return fmt.Errorf("failed to start transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
