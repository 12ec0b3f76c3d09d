package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/brogergvhs/mangasync/internal/config"
	"github.com/brogergvhs/mangasync/internal/store"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig(config.Options{}, config.NeedDatabase)
		if err != nil {
			return err
		}
		defer log.Sync()

		version, err := store.Migrate(cfg.DatabaseURL, log)
		if err != nil {
			return err
		}

		fmt.Println("Database schema at version", version)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
