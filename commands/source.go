package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/josephlewis42/aorta/core/shell"
	"github.com/spf13/afero"
)

const maxSourceDepth = 64

var errSourceDepth = errors.New("source nested too deeply")

// Source runs each line of a file as if it had been typed. Blank lines and
// lines starting with # are skipped.
func Source(ctx context.Context, d *Dispatcher, args []string, stdio shell.IO) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: usage: source FILE", ErrInvalidArguments)
	}

	path, err := d.Env.ExpandPath(args[0])
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecution, err)
	}

	contents, err := afero.ReadFile(d.Fs, path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrExecution, err)
	}

	if d.sourceDepth >= maxSourceDepth {
		return fmt.Errorf("%w: %s: %w", ErrExecution, path, errSourceDepth)
	}
	d.sourceDepth++
	defer func() { d.sourceDepth-- }()

	for _, line := range strings.Split(string(contents), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if _, err := d.Run(ctx, line, stdio); err != nil {
			return fmt.Errorf("%w: failed to execute %q: %w", ErrExecution, line, err)
		}
	}
	return nil
}

func init() {
	addBuiltin("source", "source FILE", "Execute commands from a file in the current shell.", Source)
	addBuiltin(".", ". FILE", "Execute commands from a file in the current shell.", Source)
}
