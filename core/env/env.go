package env

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

const (
	Home   = "HOME"
	Path   = "PATH"
	PWD    = "PWD"
	OldPWD = "OLDPWD"
)

var (
	// ErrInvalidName is returned when a variable name is empty or contains '='.
	ErrInvalidName = errors.New("invalid variable name")

	// ErrNoHome is returned when a path can't be expanded because HOME is unknown.
	ErrNoHome = errors.New("home directory unknown")
)

// Table holds the shell's variables.
//
// A Table created with FromProcess mirrors every write into the real process
// environment so spawned children and Go code see the same values.
type Table struct {
	rw      sync.RWMutex
	env     map[string]string
	process bool
}

// New creates an empty table that isn't linked to the process environment.
func New() *Table {
	return &Table{}
}

// FromEnviron creates an unlinked table seeded from KEY=VALUE pairs.
// Entries without '=' are set to the empty string.
func FromEnviron(environ []string) *Table {
	out := New()
	for _, e := range environ {
		key, value := splitPair(e)
		// Ignore error, bad names from the caller are skipped.
		_ = out.Setenv(key, value)
	}
	return out
}

// FromProcess creates a table seeded from os.Environ that writes through to
// the process environment.
func FromProcess() *Table {
	out := FromEnviron(os.Environ())
	out.process = true
	return out
}

func splitPair(e string) (string, string) {
	split := strings.SplitN(e, "=", 2)
	key, value := split[0], ""
	if len(split) > 1 {
		value = split[1]
	}
	return key, value
}

// Setenv sets a variable. PATH is sanitized before it's stored.
func (t *Table) Setenv(key, value string) error {
	if key == "" || strings.ContainsAny(key, "=\x00") {
		return fmt.Errorf("%w: %q", ErrInvalidName, key)
	}
	if key == Path {
		value = SanitizePath(value)
	}

	t.rw.Lock()
	defer t.rw.Unlock()

	if t.process {
		if err := os.Setenv(key, value); err != nil {
			return err
		}
	}
	if t.env == nil {
		t.env = make(map[string]string)
	}
	t.env[key] = value
	return nil
}

// Unsetenv removes a variable, it's not an error if the variable is missing.
func (t *Table) Unsetenv(key string) error {
	t.rw.Lock()
	defer t.rw.Unlock()

	if t.process {
		if err := os.Unsetenv(key); err != nil {
			return err
		}
	}
	delete(t.env, key)
	return nil
}

// LookupEnv returns the value of a variable and whether it was set.
func (t *Table) LookupEnv(key string) (string, bool) {
	t.rw.RLock()
	defer t.rw.RUnlock()

	val, ok := t.env[key]
	return val, ok
}

// Getenv returns the value of a variable or the empty string.
func (t *Table) Getenv(key string) string {
	val, _ := t.LookupEnv(key)
	return val
}

// Environ returns a sorted KEY=VALUE snapshot of the table.
func (t *Table) Environ() []string {
	t.rw.RLock()
	defer t.rw.RUnlock()

	env := make([]string, 0, len(t.env))
	for k, v := range t.env {
		env = append(env, k+"="+v)
	}
	sort.Strings(env)
	return env
}

// Expand substitutes $NAME references with values from the table.
func (t *Table) Expand(s string) string {
	return Expand(s, t.LookupEnv)
}

// ExpandPath resolves a leading ~ using the table's HOME.
func (t *Table) ExpandPath(path string) (string, error) {
	return ExpandPath(path, t.Getenv(Home))
}

// ExpandPath resolves a leading "~" or "~/" to home. Other paths, including
// "~user", are returned unchanged. If home is empty the user's home directory
// is looked up from the OS.
func ExpandPath(path, home string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	if home == "" {
		var err error
		home, err = os.UserHomeDir()
		if err != nil || home == "" {
			return "", fmt.Errorf("%w: %s", ErrNoHome, path)
		}
	}

	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, path[2:]), nil
}

// SanitizePath cleans a PATH value: surrounding quotes are removed from each
// entry and empty or repeated entries are dropped, keeping first occurrences.
func SanitizePath(value string) string {
	seen := make(map[string]bool)
	var out []string
	for _, entry := range strings.Split(value, string(os.PathListSeparator)) {
		entry = strings.Trim(strings.TrimSpace(entry), `"'`)
		if entry == "" || seen[entry] {
			continue
		}
		seen[entry] = true
		out = append(out, entry)
	}
	return strings.Join(out, string(os.PathListSeparator))
}
