package commands

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"sort"

	"github.com/josephlewis42/aorta/core/alias"
	"github.com/josephlewis42/aorta/core/env"
	"github.com/josephlewis42/aorta/core/history"
	"github.com/josephlewis42/aorta/core/process"
	"github.com/josephlewis42/aorta/core/shell"
	"github.com/spf13/afero"
)

// ExitSyntax is the status for lines that fail to parse.
const ExitSyntax = 2

// State is everything a session's builtins read and write.
type State struct {
	Aliases *alias.Table
	Env     *env.Table

	// History may be nil if history is disabled.
	History *history.History

	// Quiet suppresses diagnostics.
	Quiet bool
}

// NewState creates a state with empty aliases and a variable table linked
// to the process environment.
func NewState() *State {
	return &State{
		Aliases: alias.New(),
		Env:     env.FromProcess(),
	}
}

// Dispatcher routes commands to builtins or external programs.
type Dispatcher struct {
	*State

	// Fs is used to read sourced files.
	Fs      afero.Fs
	Spawner *process.Spawner
	Printer *ColorPrinter
	Log     *log.Logger

	// Exit is called by the exit builtin.
	Exit func(code int)

	builtins    map[string]BuiltinInfo
	sourceDepth int
}

// NewDispatcher creates a dispatcher over the registered builtins.
func NewDispatcher(state *State) *Dispatcher {
	return &Dispatcher{
		State:    state,
		Fs:       afero.NewOsFs(),
		Spawner:  &process.Spawner{Env: state.Env, Quiet: state.Quiet},
		Printer:  &ColorPrinter{Mode: ColorAuto},
		Log:      log.New(io.Discard, "", 0),
		Exit:     os.Exit,
		builtins: AllBuiltins,
	}
}

var _ shell.Dispatcher = (*Dispatcher)(nil)

// Execute runs a builtin, or spawns name as a program if no builtin matches.
func (d *Dispatcher) Execute(ctx context.Context, name string, args []string, stdio shell.IO) (int, error) {
	if b, ok := d.builtins[name]; ok {
		d.Log.Printf("builtin %s %q", name, args)
		if err := b.Main(ctx, d, args, stdio); err != nil {
			return 1, err
		}
		return 0, nil
	}

	d.Log.Printf("spawn %s %q", name, args)
	status, err := d.Spawner.Spawn(ctx, append([]string{name}, args...), stdio.Stdin, stdio.Stdout, stdio.Stderr)
	if err != nil {
		return status, fmt.Errorf("%w: %w", ErrExecution, err)
	}
	return status, nil
}

// Run parses and executes a full line, returning the last status.
func (d *Dispatcher) Run(ctx context.Context, line string, stdio shell.IO) (int, error) {
	p, err := shell.Parse(line)
	if err != nil {
		return ExitSyntax, err
	}

	executor := &shell.Executor{
		Aliases:    d.Aliases,
		Vars:       d.Env,
		Dispatcher: d,
	}
	return executor.Execute(ctx, p, stdio)
}

// IsBuiltin reports whether name is handled inside the shell.
func (d *Dispatcher) IsBuiltin(name string) bool {
	_, ok := d.builtins[name]
	return ok
}

// Lookup returns the builtin registered under name.
func (d *Dispatcher) Lookup(name string) (BuiltinInfo, error) {
	b, ok := d.builtins[name]
	if !ok {
		return BuiltinInfo{}, fmt.Errorf("%w: %s", ErrUnknownBuiltin, name)
	}
	return b, nil
}

// Builtins returns the sorted builtin names.
func (d *Dispatcher) Builtins() []string {
	var out []string
	for name := range d.builtins {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// CommandNames returns builtin and alias names, sorted and without
// duplicates.
func (d *Dispatcher) CommandNames() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}

	for _, name := range d.Builtins() {
		add(name)
	}
	for _, a := range d.Aliases.All() {
		add(a.Name)
	}
	sort.Strings(out)
	return out
}
