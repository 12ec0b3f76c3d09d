package cmd

import (
	"fmt"
	"os"

	"github.com/brogergvhs/mangasync/internal/config"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create and activate the Default config",
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := config.ConfigPathByLabel("Default")
		if err != nil {
			return err
		}

		if _, err := os.Stat(path); err == nil {
			fmt.Println("Configuration already exists at:")
			fmt.Println("  ", path)
			fmt.Println("Use `mangasync config reset` to recreate it.")
			return nil
		}

		fmt.Println("Configuration file will be saved at:")
		fmt.Println("  ", path)
		fmt.Println()

		fmt.Println("Default configuration:")
		config.DefaultConfig().Print()
		fmt.Println()
		fmt.Println("Secrets are read from the environment only:")
		fmt.Printf("  %sTELEGRAM_BOT_TOKEN, %sS3_SECRET_ACCESS_KEY\n", config.EnvPrefix, config.EnvPrefix)
		fmt.Println()

		if !confirm(fmt.Sprintf("Create Default config at %s?", path)) {
			fmt.Println("Aborted.")
			return nil
		}

		created, err := config.InitDefaultConfig()
		if errors.Is(err, os.ErrExist) {
			fmt.Println("Configuration already exists at:", created)
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "failed to write config file")
		}

		fmt.Println("Config created at:", created)
		fmt.Println("This config is now active (label: Default).")
		return nil
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
}
