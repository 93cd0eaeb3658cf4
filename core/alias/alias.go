package alias

import (
	"sort"
	"strings"
	"sync"
	"unicode"
)

// Alias is a single name to replacement mapping.
type Alias struct {
	Name  string
	Value string
}

// Table holds the session's aliases.
type Table struct {
	rw      sync.RWMutex
	aliases map[string]string
}

// New creates an empty alias table.
func New() *Table {
	return &Table{}
}

// Set adds or replaces an alias.
func (t *Table) Set(name, value string) {
	t.rw.Lock()
	defer t.rw.Unlock()

	if t.aliases == nil {
		t.aliases = make(map[string]string)
	}
	t.aliases[name] = value
}

// Remove deletes an alias and reports whether it existed.
func (t *Table) Remove(name string) bool {
	t.rw.Lock()
	defer t.rw.Unlock()

	_, ok := t.aliases[name]
	delete(t.aliases, name)
	return ok
}

// Lookup returns the replacement text for name.
func (t *Table) Lookup(name string) (string, bool) {
	t.rw.RLock()
	defer t.rw.RUnlock()

	val, ok := t.aliases[name]
	return val, ok
}

// All returns every alias sorted by name.
func (t *Table) All() []Alias {
	t.rw.RLock()
	defer t.rw.RUnlock()

	out := make([]Alias, 0, len(t.aliases))
	for name, value := range t.aliases {
		out = append(out, Alias{Name: name, Value: value})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Name < out[j].Name
	})
	return out
}

// Expand replaces the first whitespace delimited token of line if it names an
// alias. The rest of the line is kept as is and the replacement isn't
// expanded again.
func (t *Table) Expand(line string) string {
	start := strings.IndexFunc(line, func(r rune) bool { return !unicode.IsSpace(r) })
	if start < 0 {
		return line
	}
	end := strings.IndexFunc(line[start:], unicode.IsSpace)
	if end < 0 {
		end = len(line)
	} else {
		end += start
	}

	value, ok := t.Lookup(line[start:end])
	if !ok {
		return line
	}
	return line[:start] + value + line[end:]
}
