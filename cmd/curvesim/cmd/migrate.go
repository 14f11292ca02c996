package cmd

import (
	"github.com/spf13/cobra"

	"curvedex/pkg/config"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "apply or roll back the postgres schema",
	RunE: func(*cobra.Command, []string) error {
		return ErrMissingSubcommand
	},
}

func migrationsDir() (string, error) {
	settings, err := config.LoadSettings(configFile)
	if err != nil {
		return "", err
	}
	config.InitDB()
	return settings.MigrationsDir, nil
}

var migrateUpCmd = &cobra.Command{
	Use: "up",
	RunE: func(*cobra.Command, []string) error {
		dir, err := migrationsDir()
		if err != nil {
			return err
		}
		return config.ExecuteMigrations(dir)
	},
}

var migrateDownCmd = &cobra.Command{
	Use: "down",
	RunE: func(*cobra.Command, []string) error {
		dir, err := migrationsDir()
		if err != nil {
			return err
		}
		return config.RollbackMigration(dir)
	},
}
