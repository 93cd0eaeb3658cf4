package commands

import (
	"context"
	"errors"
	"strings"

	"github.com/josephlewis42/aorta/core/shell"
)

var (
	// ErrUnknownBuiltin is returned when looking up a name that isn't a builtin.
	ErrUnknownBuiltin = errors.New("unknown builtin")

	// ErrInvalidArguments is returned when a builtin is called incorrectly.
	ErrInvalidArguments = errors.New("invalid arguments")

	// ErrExecution is returned when a command was valid but failed to run.
	ErrExecution = errors.New("execution error")

	// ErrExit is returned by the exit builtin so the rest of the line is
	// abandoned.
	ErrExit = errors.New("exit")
)

// AllBuiltins holds a list of all registered shell builtins
var AllBuiltins = make(map[string]BuiltinInfo)

// Builtin is a command that runs inside the shell process. Builtins never see
// their own name in args.
type Builtin interface {
	Main(ctx context.Context, d *Dispatcher, args []string, stdio shell.IO) error
}

type BuiltinFunc func(ctx context.Context, d *Dispatcher, args []string, stdio shell.IO) error

func (f BuiltinFunc) Main(ctx context.Context, d *Dispatcher, args []string, stdio shell.IO) error {
	return f(ctx, d, args, stdio)
}

var _ Builtin = (BuiltinFunc)(nil)

// BuiltinInfo is a registered builtin with its help text.
type BuiltinInfo struct {
	Builtin

	// Use holds a one line usage string
	Use string
	// Short holds a one line description of the command.
	Short string
}

func addBuiltin(name, use, short string, fn BuiltinFunc) {
	AllBuiltins[name] = BuiltinInfo{Builtin: fn, Use: use, Short: short}
}

// unquote strips one layer of matching single or double quotes.
func unquote(s string) string {
	if len(s) >= 2 && (s[0] == '"' || s[0] == '\'') && s[len(s)-1] == s[0] {
		return s[1 : len(s)-1]
	}
	return s
}

// splitDefinition splits NAME=VALUE, args are rejoined with spaces first so
// quoted values containing whitespace survive the parser's word splitting.
func splitDefinition(args []string) (name, value string, ok bool) {
	name, value, ok = strings.Cut(strings.Join(args, " "), "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" || strings.ContainsAny(name, " \t") {
		return "", "", false
	}
	return name, unquote(strings.TrimSpace(value)), true
}

// Exit quits the shell
func Exit(ctx context.Context, d *Dispatcher, args []string, stdio shell.IO) error {
	d.Exit(0)
	return ErrExit
}

func init() {
	addBuiltin("exit", "exit", "Exit the shell.", Exit)
}
