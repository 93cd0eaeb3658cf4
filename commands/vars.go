package commands

import (
	"context"
	"fmt"

	"github.com/josephlewis42/aorta/core/shell"
	"github.com/pborman/getopt/v2"
)

// Alias lists aliases with no arguments, otherwise defines NAME=VALUE.
func Alias(ctx context.Context, d *Dispatcher, args []string, stdio shell.IO) error {
	if len(args) == 0 {
		for _, a := range d.Aliases.All() {
			fmt.Fprintf(stdio.Stdout, "%s='%s'\n", a.Name, a.Value)
		}
		return nil
	}

	name, value, ok := splitDefinition(args)
	if !ok {
		return fmt.Errorf("%w: usage: alias name='command'", ErrInvalidArguments)
	}
	d.Aliases.Set(name, value)
	return nil
}

// Unalias removes aliases.
func Unalias(ctx context.Context, d *Dispatcher, args []string, stdio shell.IO) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: usage: unalias NAME...", ErrInvalidArguments)
	}
	for _, name := range args {
		if !d.Aliases.Remove(name) {
			return fmt.Errorf("%w: %s: not found", ErrExecution, name)
		}
	}
	return nil
}

// Export sets a variable in the shell and the process environment.
func Export(ctx context.Context, d *Dispatcher, args []string, stdio shell.IO) error {
	name, value, ok := splitDefinition(args)
	if !ok {
		return fmt.Errorf("%w: usage: export NAME=VALUE", ErrInvalidArguments)
	}
	if err := d.Env.Setenv(name, value); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidArguments, err)
	}
	return nil
}

// Unset removes variables.
func Unset(ctx context.Context, d *Dispatcher, args []string, stdio shell.IO) error {
	opts := getopt.New()
	opts.Bool('f', "treat NAME as a function")
	opts.Bool('v', "treat NAME as a variable")
	opts.Bool('n', "treat NAME as a reference")
	helpOpt := opts.BoolLong("help", 'h', "show help and exit")

	optErr := opts.Getopt(append([]string{"unset"}, args...), nil)
	if optErr != nil || *helpOpt {
		w := stdio.Stdout
		fmt.Fprintln(w, "usage: unset [-fvn] [NAME...]")
		fmt.Fprintln(w, "Unset shell variables.")
		if optErr != nil {
			return fmt.Errorf("%w: %w", ErrInvalidArguments, optErr)
		}
		return nil
	}

	for _, name := range opts.Args() {
		if err := d.Env.Unsetenv(name); err != nil {
			return fmt.Errorf("%w: %w", ErrExecution, err)
		}
	}
	return nil
}

func init() {
	addBuiltin("alias", "alias [NAME=VALUE]", "Define or display aliases.", Alias)
	addBuiltin("unalias", "unalias NAME...", "Remove aliases.", Unalias)
	addBuiltin("export", "export NAME=VALUE", "Set a variable for the shell and the programs it starts.", Export)
	addBuiltin("unset", "unset [-fvn] [NAME...]", "Unset shell variables.", Unset)
}
