package commands

import (
	"context"
	"fmt"

	"github.com/josephlewis42/aorta/core/shell"
)

// Help lists the builtins, or describes the named ones.
func Help(ctx context.Context, d *Dispatcher, args []string, stdio shell.IO) error {
	w := stdio.Stdout

	if len(args) > 0 {
		for _, name := range args {
			info, err := d.Lookup(name)
			if err != nil {
				return fmt.Errorf("%w: no help topics match %q", ErrInvalidArguments, name)
			}
			fmt.Fprintf(w, "%s: %s\n    %s\n", name, info.Use, info.Short)
		}
		return nil
	}

	fmt.Fprintln(w, "aorta, an interactive command interpreter.")
	fmt.Fprintln(w, "These shell commands are defined internally.  Type `help' to see this list.")
	fmt.Fprintln(w, "Type `help name' to find out more about the function `name'.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Builtins:")
	fmt.Fprintln(w)

	for _, name := range d.Builtins() {
		fmt.Fprintf(w, "  %-8s %s\n", name, d.builtins[name].Short)
	}

	return nil
}

func init() {
	addBuiltin("help", "help [NAME...]", "Display information about builtin commands.", Help)
}
