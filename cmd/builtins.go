package cmd

import (
	"fmt"

	"github.com/josephlewis42/aorta/commands"
	"github.com/spf13/cobra"
)

var builtinsCmd = &cobra.Command{
	Use:   "builtins",
	Short: "Show the commands that run inside the shell.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		d := commands.NewDispatcher(commands.NewState())

		for _, name := range d.Builtins() {
			info, err := d.Lookup(name)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%-8s %s\n", name, info.Short)
		}

		return nil
	},
}

func init() {
	rootCmd.AddCommand(builtinsCmd)
}
