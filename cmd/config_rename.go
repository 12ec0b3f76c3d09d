package cmd

import (
	"fmt"

	"github.com/brogergvhs/mangasync/internal/config"

	"github.com/spf13/cobra"
)

var configRenameCmd = &cobra.Command{
	Use:   "rename <old_label> <new_label>",
	Short: "Rename a config profile",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		oldLabel := args[0]
		newLabel := args[1]

		active, _ := config.CurrentLabel()
		if err := config.RenameConfig(oldLabel, newLabel); err != nil {
			return err
		}

		fmt.Printf("Renamed config %q to %q\n", oldLabel, newLabel)
		if active == oldLabel {
			fmt.Println("The active profile now points at:", newLabel)
		}
		return nil
	},
}

func init() {
	configCmd.AddCommand(configRenameCmd)
}
