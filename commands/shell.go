package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/abiosoft/readline"
	"github.com/josephlewis42/aorta/core/process"
	"github.com/josephlewis42/aorta/core/shell"
)

// Shell is an interactive session over a dispatcher.
type Shell struct {
	Dispatcher *Dispatcher
	Readline   *readline.Instance

	// Prompt is used when PS1 isn't set.
	Prompt string

	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// History receives every line run, it may be nil.
	History Recorder

	lastStatus int

	// Set to true to quit the shell
	quit     bool
	exitCode int
}

// NewShell creates a shell reading from the process's standard streams.
func NewShell(d *Dispatcher) *Shell {
	s := &Shell{
		Dispatcher: d,
		Prompt:     DefaultPrompt,
		Stdin:      os.Stdin,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
	}
	if d.History != nil {
		s.History = d.History
	}
	d.Exit = func(code int) {
		s.quit = true
		s.exitCode = code
	}
	return s
}

func (s *Shell) stdio() shell.IO {
	return shell.IO{Stdin: s.Stdin, Stdout: s.Stdout, Stderr: s.Stderr}
}

// LastStatus is the status of the most recent line.
func (s *Shell) LastStatus() int {
	return s.lastStatus
}

// Quit reports whether exit has been run.
func (s *Shell) Quit() bool {
	return s.quit
}

// ExitCode is the code passed to exit, valid once Quit reports true.
func (s *Shell) ExitCode() int {
	return s.exitCode
}

func (s *Shell) prompt() string {
	prompt := s.Dispatcher.Env.Getenv(EnvPrompt)
	if prompt == "" {
		prompt = s.Prompt
	}
	return expandPrompt(prompt, currentPromptInfo(s.Dispatcher.Env))
}

func (s *Shell) initReadline() error {
	if s.Readline != nil {
		return nil
	}

	stdin, ok := s.Stdin.(io.ReadCloser)
	if !ok {
		stdin = io.NopCloser(s.Stdin)
	}

	cfg := &readline.Config{
		Prompt:          s.prompt(),
		AutoComplete:    &completer{d: s.Dispatcher},
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		Stdin:           readline.NewCancelableStdin(stdin),
		Stdout:          s.Stdout,
		Stderr:          s.Stderr,
	}
	if err := cfg.Init(); err != nil {
		return err
	}

	rl, err := readline.NewEx(cfg)
	if err != nil {
		return err
	}

	if h := s.Dispatcher.History; h != nil {
		for _, e := range h.All() {
			_ = rl.SaveHistory(e.Command)
		}
	}

	s.Readline = rl
	return nil
}

// Interactive reads and runs lines until end of input or exit, returning
// the status the process should exit with.
func (s *Shell) Interactive(ctx context.Context) int {
	if err := s.initReadline(); err != nil {
		fmt.Fprintf(s.Stderr, "aorta: %v\n", err)
		return 1
	}
	defer s.Readline.Close()

	stop := process.IgnoreInterrupts()
	defer stop()

	for !s.quit {
		s.Readline.SetPrompt(s.prompt())
		line, err := s.Readline.Readline()

		switch {
		case err == io.EOF:
			return 0

		case err == readline.ErrInterrupt:
			// Interrupt clears line.
			continue

		case err != nil:
			s.Dispatcher.Log.Printf("readline: %v", err)
			return 1

		case strings.TrimSpace(line) == "":
			continue

		default:
			s.RunCommand(ctx, line)
		}
	}
	return s.exitCode
}

// RunCommand runs one line, reports errors and records it in history.
func (s *Shell) RunCommand(ctx context.Context, line string) int {
	d := s.Dispatcher

	result := Track(func() (int, error) {
		return d.Run(ctx, line, s.stdio())
	})

	switch {
	case errors.Is(result.Err, ErrExit):
		s.lastStatus = 0
	case result.Err != nil:
		if !d.Quiet {
			fmt.Fprintln(s.Stderr, d.Printer.Sprintf(StyleError, "aorta: %v", result.Err))
		}
		s.lastStatus = result.ExitCode()
	default:
		s.lastStatus = result.Status
	}

	if s.History != nil {
		if err := s.History.AddWithDetails(line, s.lastStatus, result.DurationMs()); err != nil && !d.Quiet {
			fmt.Fprintf(s.Stderr, "Warning: failed to add command to history: %v\n", err)
		}
	}

	d.Log.Printf("ran %q status=%d ok=%t duration=%s", line, s.lastStatus, result.Success(), result.Duration)
	return s.lastStatus
}

// RunLines runs each non-empty line of r in order, stopping on exit.
func (s *Shell) RunLines(ctx context.Context, r io.Reader) int {
	data, err := io.ReadAll(r)
	if err != nil {
		fmt.Fprintf(s.Stderr, "aorta: %v\n", err)
		return 1
	}
	for _, line := range strings.Split(string(data), "\n") {
		if s.quit {
			return s.exitCode
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		s.RunCommand(ctx, line)
	}
	if s.quit {
		return s.exitCode
	}
	return s.lastStatus
}
