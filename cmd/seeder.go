package cmd

import (
	"context"
	"fmt"

	"github.com/frahmantamala/casetrack/internal/auth"
	"github.com/frahmantamala/casetrack/internal/seed"
	"github.com/spf13/cobra"
)

var seedPassword string

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with default roles and accounts",
	Long:  `Seed the roles (administrator, clerk, auditor), areas and one development account per role.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		lg := newLogger(cfg)

		db, err := initDB(cfg.Database)
		if err != nil {
			return err
		}
		defer db.Close()

		gdb, err := initGorm(cfg.Database, db, false)
		if err != nil {
			return err
		}

		seeder := seed.New(gdb, auth.NewPasswordHasher(cfg.Security.BCryptCost), lg)
		if err := seeder.Run(context.Background(), seedPassword, clearData); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		lg.Info("seed complete", "users", len(seed.DefaultUsers))
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedPassword, "password", "password", "password assigned to every seeded account")
}
