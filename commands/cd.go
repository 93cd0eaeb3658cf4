package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/josephlewis42/aorta/core/env"
	"github.com/josephlewis42/aorta/core/shell"
)

// Cd is the cd shell builtin. With no argument it goes home, "-" goes to
// $OLDPWD.
func Cd(ctx context.Context, d *Dispatcher, args []string, stdio shell.IO) error {
	target := "~"
	switch len(args) {
	case 0:
	case 1:
		target = args[0]
	default:
		return fmt.Errorf("%w: too many arguments", ErrInvalidArguments)
	}

	if target == "-" {
		target = d.Env.Getenv(env.OldPWD)
		if target == "" {
			return fmt.Errorf("%w: OLDPWD not set", ErrExecution)
		}
		fmt.Fprintln(stdio.Stdout, target)
	}

	path, err := d.Env.ExpandPath(target)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecution, err)
	}

	info, err := os.Stat(path)
	switch {
	case err != nil:
		return fmt.Errorf("%w: %w", ErrExecution, err)
	case !info.IsDir():
		return fmt.Errorf("%w: %s: not a directory", ErrExecution, path)
	}

	previous, _ := os.Getwd()
	if err := os.Chdir(path); err != nil {
		return fmt.Errorf("%w: %w", ErrExecution, err)
	}

	if previous != "" {
		d.Env.Setenv(env.OldPWD, previous)
	}
	if cwd, err := os.Getwd(); err == nil {
		d.Env.Setenv(env.PWD, cwd)
	}
	return nil
}

func init() {
	addBuiltin("cd", "cd [DIR]", "Change the shell working directory.", Cd)
}
