package process

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os/exec"
	"strings"

	"github.com/fatih/color"
)

// ExitNotFound is the status reported for commands that couldn't be found.
const ExitNotFound = 127

var (
	// ErrEmptyCommand is returned when Spawn is called without a program.
	ErrEmptyCommand = errors.New("empty command")

	// ErrCommandNotFound is returned if the program disappears between
	// starting and waiting for it.
	ErrCommandNotFound = errors.New("command not found")

	colorWarn = color.New(color.FgYellow)
)

// Environment supplies the variables handed to children and resolves tildes
// in their arguments.
type Environment interface {
	Environ() []string
	ExpandPath(path string) (string, error)
}

// Spawner launches external programs.
type Spawner struct {
	Env Environment

	// Quiet suppresses the not found and exit status diagnostics.
	Quiet bool
}

// Spawn runs args[0] with the remaining arguments and waits for it to exit.
//
// The child gets exactly the variables from Env, snapshotted just before it
// starts. A program that can't be found isn't an error: a diagnostic goes to
// stderr and the status is ExitNotFound. A non-zero exit is reported the
// same way and returned as the status.
func (s *Spawner) Spawn(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) (int, error) {
	if len(args) == 0 {
		return 1, ErrEmptyCommand
	}

	argv := make([]string, len(args))
	for i, arg := range args {
		if strings.HasPrefix(arg, "~") && s.Env != nil {
			expanded, err := s.Env.ExpandPath(arg)
			if err != nil {
				return 1, err
			}
			arg = expanded
		}
		argv[i] = arg
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Env = []string{}
	if s.Env != nil {
		cmd.Env = s.Env.Environ()
	}
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		if isNotFound(err) {
			s.warnf(stderr, "aorta: command not found: %s\n", argv[0])
			return ExitNotFound, nil
		}
		return 1, fmt.Errorf("start %s: %w", argv[0], err)
	}

	if err := cmd.Wait(); err != nil {
		var exitErr *exec.ExitError
		switch {
		case errors.As(err, &exitErr):
			s.warnf(stderr, "aorta: %s: process exited: %v\n", argv[0], exitErr.ProcessState)
			if code := exitErr.ExitCode(); code > 0 {
				return code, nil
			}
			return 1, nil
		case isNotFound(err):
			return ExitNotFound, fmt.Errorf("%w: %s", ErrCommandNotFound, argv[0])
		default:
			return 1, fmt.Errorf("wait %s: %w", argv[0], err)
		}
	}

	return 0, nil
}

func (s *Spawner) warnf(w io.Writer, format string, args ...interface{}) {
	if s.Quiet {
		return
	}
	colorWarn.Fprintf(w, format, args...)
}

func isNotFound(err error) bool {
	return errors.Is(err, exec.ErrNotFound) || errors.Is(err, fs.ErrNotExist)
}
