package cmd

import (
	"log"

	"github.com/josephlewis42/aorta/core/config"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// initCmd writes a default configuration
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config.yaml to the configuration directory.",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		logger := log.New(cmd.ErrOrStderr(), "", 0)

		dir, err := configDir()
		if err != nil {
			return err
		}

		_, err = config.Initialize(afero.NewOsFs(), dir, logger)
		return err
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
