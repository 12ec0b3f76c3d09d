package cmd

import (
	"os"
	"os/exec"

	"github.com/brogergvhs/mangasync/internal/config"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

var configEditCmd = &cobra.Command{
	Use:   "edit [label]",
	Short: "Open the current or the given config in $EDITOR",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var label string

		if len(args) == 0 {
			var err error
			label, err = config.CurrentLabel()
			if err != nil {
				return errors.Wrap(err, "failed to get current config label")
			}
		} else {
			label = args[0]
		}

		path, err := config.ConfigPathByLabel(label)
		if err != nil {
			return errors.Wrap(err, "failed to get config path")
		}
		if _, err := os.Stat(path); err != nil {
			return errors.Newf("config %q does not exist", label)
		}

		editor := os.Getenv("EDITOR")
		if editor == "" {
			editor = "nvim"
		}

		cmdExec := exec.Command(editor, path)
		cmdExec.Stdin = os.Stdin
		cmdExec.Stdout = os.Stdout
		cmdExec.Stderr = os.Stderr

		if err := cmdExec.Run(); err != nil {
			return errors.Wrapf(err, "failed to open editor %s", editor)
		}

		return nil
	},
}

func init() {
	configCmd.AddCommand(configEditCmd)
}
