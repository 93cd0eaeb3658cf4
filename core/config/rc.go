package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"regexp"
	"strings"

	shlex "github.com/anmitsu/go-shlex"
	"github.com/josephlewis42/aorta/core/alias"
	"github.com/josephlewis42/aorta/core/env"
	"github.com/spf13/afero"
)

// maxSourceDepth bounds nested source calls so files that source each other
// terminate.
const maxSourceDepth = 16

var (
	ErrSourceDepth = errors.New("source nested too deeply")
	ErrSyntax      = errors.New("syntax error")

	// ErrStopLoading is returned by a Runner to abandon every remaining line
	// of every remaining file, e.g. after exit.
	ErrStopLoading = errors.New("startup files stopped")

	assignRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*=`)
)

// Runner executes a line the same way the interactive shell does.
type Runner interface {
	Run(ctx context.Context, line string) error
}

// RunnerFunc adapts a function to a Runner.
type RunnerFunc func(ctx context.Context, line string) error

// Run implements Runner.Run.
func (f RunnerFunc) Run(ctx context.Context, line string) error {
	return f(ctx, line)
}

var _ Runner = (RunnerFunc)(nil)

// RCLoader processes startup files.
//
// The files use a small subset of sh: export, NAME=VALUE, alias, source (or
// .), and if [ ... ] / then / else / fi blocks testing -n, -z, -e, -f, -d, =
// and !=. Any other line is handed to Runner.
type RCLoader struct {
	Fs      afero.Fs
	Env     *env.Table
	Aliases *alias.Table
	Runner  Runner
	Log     *log.Logger
}

// Load processes each file in order, skipping files that don't exist. Lines
// that fail are logged and collected into the returned error; they don't stop
// processing. A line failing with ErrStopLoading stops everything.
func (l *RCLoader) Load(ctx context.Context, paths ...string) error {
	var errs []error
	for _, path := range paths {
		expanded, err := l.Env.ExpandPath(l.Env.Expand(path))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := l.source(ctx, expanded, 0); err != nil {
			errs = append(errs, err)
			if errors.Is(err, ErrStopLoading) {
				break
			}
		}
	}
	return errors.Join(errs...)
}

func (l *RCLoader) source(ctx context.Context, path string, depth int) error {
	if depth >= maxSourceDepth {
		return fmt.Errorf("%s: %w", path, ErrSourceDepth)
	}

	contents, err := afero.ReadFile(l.Fs, path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		l.logf("%s: not found, skipping", path)
		return nil
	case err != nil:
		return err
	}
	l.logf("%s: loading", path)

	var (
		errs  []error
		conds condStack
	)
	for i, line := range strings.Split(string(contents), "\n") {
		if err := l.processLine(ctx, &conds, line, depth); err != nil {
			err = fmt.Errorf("%s:%d: %w", path, i+1, err)
			l.logf("%v", err)
			errs = append(errs, err)
			if errors.Is(err, ErrStopLoading) {
				return errors.Join(errs...)
			}
		}
	}
	if len(conds) > 0 {
		errs = append(errs, fmt.Errorf("%s: %w: missing fi", path, ErrSyntax))
	}
	return errors.Join(errs...)
}

// condFrame is one open if block.
type condFrame struct {
	outer bool // whether the enclosing block was active
	taken bool // whether the current branch runs
}

type condStack []condFrame

func (s condStack) active() bool {
	if len(s) == 0 {
		return true
	}
	top := s[len(s)-1]
	return top.outer && top.taken
}

func (l *RCLoader) processLine(ctx context.Context, conds *condStack, line string, depth int) error {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return nil
	}

	words, err := shlex.Split(line, true)
	if err != nil {
		return err
	}
	words = trimSeparators(words)
	if len(words) == 0 {
		return nil
	}

	switch words[0] {
	case "if":
		active := conds.active()
		taken := false
		if active {
			taken, err = l.test(words[1:])
		}
		*conds = append(*conds, condFrame{outer: active, taken: taken})
		return err
	case "then":
		return nil
	case "else":
		if len(*conds) == 0 {
			return fmt.Errorf("%w: else without if", ErrSyntax)
		}
		top := &(*conds)[len(*conds)-1]
		top.taken = !top.taken
		return nil
	case "fi":
		if len(*conds) == 0 {
			return fmt.Errorf("%w: fi without if", ErrSyntax)
		}
		*conds = (*conds)[:len(*conds)-1]
		return nil
	}

	if !conds.active() {
		return nil
	}

	switch {
	case words[0] == "export":
		for _, w := range words[1:] {
			if err := l.assign(w); err != nil {
				return err
			}
		}
		return nil
	case words[0] == "alias":
		for _, w := range words[1:] {
			name, value, ok := strings.Cut(w, "=")
			if !ok || name == "" {
				return fmt.Errorf("%w: alias %q", ErrSyntax, w)
			}
			l.Aliases.Set(name, value)
		}
		return nil
	case words[0] == "source" || words[0] == ".":
		if len(words) < 2 {
			return fmt.Errorf("%w: %s requires a file", ErrSyntax, words[0])
		}
		path, err := l.Env.ExpandPath(l.Env.Expand(words[1]))
		if err != nil {
			return err
		}
		return l.source(ctx, path, depth+1)
	case len(words) == 1 && assignRegex.MatchString(words[0]):
		return l.assign(words[0])
	case l.Runner != nil:
		return l.Runner.Run(ctx, line)
	default:
		l.logf("skipping %q", line)
		return nil
	}
}

// assign handles NAME=VALUE. A PATH value that doesn't mention $PATH is
// prepended to the current PATH.
func (l *RCLoader) assign(word string) error {
	name, value, ok := strings.Cut(word, "=")
	if !ok {
		// export of an existing variable, nothing to do.
		return nil
	}

	if name == env.Path && !strings.Contains(value, "$"+env.Path) {
		if current := l.Env.Getenv(env.Path); current != "" {
			value = value + ":" + current
		}
	}

	value = l.Env.Expand(value)
	if strings.HasPrefix(value, "~") {
		expanded, err := l.Env.ExpandPath(value)
		if err != nil {
			return err
		}
		value = expanded
	}
	return l.Env.Setenv(name, value)
}

// test evaluates the words of a [ ... ] expression.
func (l *RCLoader) test(words []string) (bool, error) {
	if len(words) < 2 || words[0] != "[" || words[len(words)-1] != "]" {
		return false, fmt.Errorf("%w: expected [ ... ], got %q", ErrSyntax, strings.Join(words, " "))
	}

	args := words[1 : len(words)-1]
	for i := range args {
		args[i] = l.Env.Expand(args[i])
	}

	switch {
	case len(args) == 2 && args[0] == "-n":
		return args[1] != "", nil
	case len(args) == 2 && args[0] == "-z":
		return args[1] == "", nil
	case len(args) == 2 && (args[0] == "-e" || args[0] == "-f" || args[0] == "-d"):
		path, err := l.Env.ExpandPath(args[1])
		if err != nil {
			return false, err
		}
		info, err := l.Fs.Stat(path)
		if err != nil {
			return false, nil
		}
		switch args[0] {
		case "-f":
			return info.Mode().IsRegular(), nil
		case "-d":
			return info.IsDir(), nil
		}
		return true, nil
	case len(args) == 3 && (args[1] == "=" || args[1] == "=="):
		return args[0] == args[2], nil
	case len(args) == 3 && args[1] == "!=":
		return args[0] != args[2], nil
	default:
		return false, fmt.Errorf("%w: unsupported test %q", ErrSyntax, strings.Join(args, " "))
	}
}

// trimSeparators drops ';' and a trailing "then" so "if [ x ]; then" reads
// like "if [ x ]".
func trimSeparators(words []string) []string {
	var out []string
	for _, w := range words {
		if w == ";" {
			continue
		}
		out = append(out, strings.TrimSuffix(w, ";"))
	}
	if len(out) > 1 && out[0] == "if" && out[len(out)-1] == "then" {
		out = out[:len(out)-1]
	}
	return out
}

func (l *RCLoader) logf(format string, args ...interface{}) {
	if l.Log != nil {
		l.Log.Printf(format, args...)
	}
}
