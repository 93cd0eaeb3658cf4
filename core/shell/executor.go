package shell

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// IO holds the standard streams for a command.
type IO struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// Dispatcher runs a single resolved command.
//
// The returned status is the command's exit status. An error means the
// command couldn't be run at all and stops the rest of the line.
type Dispatcher interface {
	Execute(ctx context.Context, name string, args []string, stdio IO) (int, error)
}

// Aliases resolves the first word of a stage.
type Aliases interface {
	Lookup(name string) (string, bool)
}

// Vars expands $NAME references and leading tildes.
type Vars interface {
	Expand(s string) string
	ExpandPath(path string) (string, error)
}

// StageError wraps an error from running a single stage.
type StageError struct {
	Command string
	Err     error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Command, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Executor runs parsed pipelines.
type Executor struct {
	Aliases    Aliases
	Vars       Vars
	Dispatcher Dispatcher
}

// Execute runs every stage of p in order and returns the status of the last
// command that ran.
//
// A stage ending in | has its stdout captured and fed to the next stage's
// stdin. A stage ending in > has its stdout written to the file named by the
// next stage, after which execution stops. && runs the next command only if
// the last status was zero, || only if it was non-zero; a skipped command
// takes the rest of its | chain with it.
func (e *Executor) Execute(ctx context.Context, p *Pipeline, stdio IO) (int, error) {
	var (
		status  int
		pending *bytes.Buffer
	)

	stages := p.Stages
	for i := 0; i < len(stages); i++ {
		if i > 0 && skip(stages[i-1].Operator, status) {
			for i < len(stages) && stages[i].Operator == Pipe {
				i++
			}
			if i < len(stages) && stages[i].Operator == Redirect {
				break
			}
			continue
		}

		st := stages[i]
		name, args := e.resolve(st)

		// An empty command passes piped input through untouched. Input that
		// isn't piped onward is output, not the next command's stdin.
		if name == "" {
			status = 0
			switch st.Operator {
			case Pipe:
			case Redirect:
				var data []byte
				if pending != nil {
					data = pending.Bytes()
				}
				return status, e.redirect(stages, i, data)
			default:
				if err := flush(stdio.Stdout, pending); err != nil {
					return status, err
				}
				pending = nil
			}
			continue
		}

		stageIO := stdio
		if pending != nil {
			stageIO.Stdin = pending
			pending = nil
		}

		var captured *bytes.Buffer
		if st.Operator == Pipe || st.Operator == Redirect {
			captured = &bytes.Buffer{}
			stageIO.Stdout = captured
		}

		var err error
		status, err = e.Dispatcher.Execute(ctx, name, args, stageIO)
		if err != nil {
			return 1, &StageError{Command: name, Err: err}
		}

		switch st.Operator {
		case Pipe:
			pending = captured
		case Redirect:
			return status, e.redirect(stages, i, captured.Bytes())
		}
	}

	if err := flush(stdio.Stdout, pending); err != nil {
		return status, err
	}
	return status, nil
}

// flush writes leftover piped output as text, invalid UTF-8 is dropped.
func flush(w io.Writer, pending *bytes.Buffer) error {
	if pending == nil || pending.Len() == 0 {
		return nil
	}
	_, err := io.WriteString(w, strings.ToValidUTF8(pending.String(), ""))
	return err
}

func skip(prev Operator, status int) bool {
	switch prev {
	case And:
		return status != 0
	case Or:
		return status == 0
	default:
		return false
	}
}

// resolve applies alias substitution to the command then variable and tilde
// expansion to every word. Words that expand to nothing are dropped.
func (e *Executor) resolve(st Stage) (string, []string) {
	words := []string{st.Command}
	if e.Aliases != nil {
		if value, ok := e.Aliases.Lookup(st.Command); ok {
			words = strings.Fields(value)
		}
	}
	words = append(words, st.Args...)

	var out []string
	for _, w := range words {
		if e.Vars != nil {
			w = e.Vars.Expand(w)
		}
		if w == "" {
			continue
		}
		out = append(out, w)
	}

	if len(out) == 0 {
		return "", nil
	}
	return out[0], out[1:]
}

// redirect writes data to the file named by the command of the stage after i.
func (e *Executor) redirect(stages []Stage, i int, data []byte) error {
	if i+1 >= len(stages) {
		return &ParseError{Msg: "missing redirect target"}
	}

	path := stages[i+1].Command
	if e.Vars != nil {
		path = e.Vars.Expand(path)
		expanded, err := e.Vars.ExpandPath(path)
		if err != nil {
			return err
		}
		path = expanded
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("redirect: %w", err)
	}
	return nil
}
