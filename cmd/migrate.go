package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/frahmantamala/casetrack/db/migrations"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
)

var (
	migrateCmd = &cobra.Command{
		RunE:  runMigration,
		Use:   "migrate",
		Short: "to run db migration files embedded from db/migrations",
	}
	migrateRollback bool
	migrateDir      string
)

func init() {
	migrateCmd.Flags().BoolVarP(&migrateRollback, "rollback", "r", false, "to rollback the latest version of sql migration")
	migrateCmd.PersistentFlags().StringVarP(&migrateDir, "dir", "d", "", "read migrations from this directory instead of the embedded set")
}

func runMigration(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	lg := newLogger(cfg)

	if cfg.Database.Driver == "sqlite" {
		return fmt.Errorf("migrations target postgres; enable database.auto_migrate for sqlite")
	}

	db, err := goose.OpenDBWithDriver("pgx", cfg.Database.Source)
	if err != nil {
		return fmt.Errorf("goose: failed to open DB: %w", err)
	}
	defer db.Close()

	goose.SetTableName("schema_migrations")
	dir := "."
	if migrateDir != "" {
		goose.SetBaseFS(os.DirFS(migrateDir))
	} else {
		goose.SetBaseFS(migrations.FS)
	}

	command := "up"
	if migrateRollback {
		command = "down"
	}
	lg.Info("running migrations", "command", command)

	if err := goose.RunContext(ctx, command, db, dir); err != nil {
		return fmt.Errorf("goose %s: %w", command, err)
	}
	return nil
}
