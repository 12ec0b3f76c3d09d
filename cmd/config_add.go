package cmd

import (
	"fmt"
	"strings"

	"github.com/brogergvhs/mangasync/internal/config"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

var configAddCmd = &cobra.Command{
	Use:   "add [label]",
	Short: "Create a new config profile with default values",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var label string
		if len(args) == 1 {
			label = args[0]
		} else {
			label = ask("Enter label for new config: ")
		}

		label = strings.TrimSpace(label)
		if label == "" {
			return errors.New("label cannot be empty")
		}

		path, err := config.CreateConfig(label)
		if err != nil {
			return err
		}

		fmt.Printf("Created new config: %s\n", path)
		fmt.Printf("Activate it with `mangasync config switch %s`.\n", label)
		return nil
	},
}

func init() {
	configCmd.AddCommand(configAddCmd)
}
