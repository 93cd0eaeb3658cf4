package history

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"
)

// DefaultSize is the number of entries kept when no size is configured.
const DefaultSize = 1000

var (
	// ErrIndexOutOfRange is returned by Delete for indexes not in the history.
	ErrIndexOutOfRange = errors.New("history index out of range")
)

// Entry is one executed top-level command.
type Entry struct {
	Command    string    `json:"command"`
	Timestamp  time.Time `json:"timestamp"`
	ExitCode   int       `json:"exit_code"`
	DurationMs int64     `json:"duration_ms"`
}

// Success reports whether the command exited with status zero.
func (e Entry) Success() bool {
	return e.ExitCode == 0
}

// History is a size-bounded command history persisted as JSON lines.
type History struct {
	mu      sync.Mutex
	fs      afero.Fs
	path    string
	max     int
	entries []Entry

	// Now is used to timestamp new entries.
	Now func() time.Time
}

// Open loads the history at path, creating it on the first write. A
// non-positive max uses DefaultSize.
func Open(fsys afero.Fs, path string, max int) (*History, error) {
	if max <= 0 {
		max = DefaultSize
	}
	h := &History{fs: fsys, path: path, max: max, Now: time.Now}

	fd, err := fsys.Open(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return h, nil
	case err != nil:
		return nil, err
	}
	defer fd.Close()

	if err := ReadJSONLines(fd, func(e Entry) {
		h.entries = append(h.entries, e)
	}); err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(h.entries) > h.max {
		h.entries = h.entries[len(h.entries)-h.max:]
	}
	return h, nil
}

// InMemory creates a history that isn't backed by a file.
func InMemory(max int) *History {
	h, _ := Open(afero.NewMemMapFs(), "history.jsonl", max)
	return h
}

// ReadJSONLines parses newline delimited history entries.
func ReadJSONLines(r io.Reader, handler func(e Entry)) error {
	decoder := json.NewDecoder(r)
	for decoder.More() {
		var e Entry
		if err := decoder.Decode(&e); err != nil {
			return err
		}
		handler(e)
	}
	return nil
}

// AddWithDetails records a command with its exit code and duration. Blank
// commands are ignored.
func (h *History) AddWithDetails(command string, exitCode int, durationMs int64) error {
	command = strings.TrimSpace(command)
	if command == "" {
		return nil
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	e := Entry{
		Command:    command,
		Timestamp:  h.Now(),
		ExitCode:   exitCode,
		DurationMs: durationMs,
	}
	h.entries = append(h.entries, e)

	if len(h.entries) > h.max {
		h.entries = h.entries[len(h.entries)-h.max:]
		return h.rewrite()
	}
	return h.appendEntry(e)
}

// Len returns the number of entries.
func (h *History) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.entries)
}

// All returns a copy of every entry, oldest first.
func (h *History) All() []Entry {
	return h.Recent(-1)
}

// Recent returns up to the last n entries, oldest first. A negative n returns
// everything.
func (h *History) Recent(n int) []Entry {
	h.mu.Lock()
	defer h.mu.Unlock()

	start := 0
	if n >= 0 && n < len(h.entries) {
		start = len(h.entries) - n
	}
	return append([]Entry(nil), h.entries[start:]...)
}

// Clear removes every entry.
func (h *History) Clear() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.entries = nil
	return h.rewrite()
}

// Delete removes the entry at the 1-based index shown by history listings.
func (h *History) Delete(index int) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if index < 1 || index > len(h.entries) {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	h.entries = append(h.entries[:index-1], h.entries[index:]...)
	return h.rewrite()
}

// SearchMode selects how Search matches entries.
type SearchMode int

const (
	Contains SearchMode = iota
	Prefix
	Regex
)

// Search returns matching entries, oldest first. If limit is positive only the
// last limit matches are returned.
func (h *History) Search(mode SearchMode, query string, limit int) ([]Entry, error) {
	return Filter(h.All(), mode, query, limit)
}

// Filter returns the entries whose command matches query.
func Filter(entries []Entry, mode SearchMode, query string, limit int) ([]Entry, error) {
	var match func(string) bool
	switch mode {
	case Prefix:
		match = func(s string) bool { return strings.HasPrefix(s, query) }
	case Regex:
		re, err := regexp.Compile(query)
		if err != nil {
			return nil, err
		}
		match = re.MatchString
	default:
		match = func(s string) bool { return strings.Contains(s, query) }
	}

	var out []Entry
	for _, e := range entries {
		if match(e.Command) {
			out = append(out, e)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (h *History) appendEntry(e Entry) error {
	if err := h.mkdir(); err != nil {
		return err
	}
	fd, err := h.fs.OpenFile(h.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	if err := writeEntry(fd, e); err != nil {
		fd.Close()
		return err
	}
	return fd.Close()
}

func (h *History) rewrite() error {
	if err := h.mkdir(); err != nil {
		return err
	}
	fd, err := h.fs.OpenFile(h.path, os.O_TRUNC|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(fd)
	for _, e := range h.entries {
		if err := writeEntry(w, e); err != nil {
			fd.Close()
			return err
		}
	}
	if err := w.Flush(); err != nil {
		fd.Close()
		return err
	}
	return fd.Close()
}

func (h *History) mkdir() error {
	dir := filepath.Dir(h.path)
	if dir == "." || dir == "" {
		return nil
	}
	return h.fs.MkdirAll(dir, 0700)
}

func writeEntry(w io.Writer, e Entry) error {
	line, err := json.Marshal(e)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(line))
	return err
}
