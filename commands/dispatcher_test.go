package commands

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/josephlewis42/aorta/core/alias"
	"github.com/josephlewis42/aorta/core/env"
	"github.com/josephlewis42/aorta/core/history"
	"github.com/josephlewis42/aorta/core/process"
	"github.com/josephlewis42/aorta/core/shell"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testSession struct {
	d      *Dispatcher
	fs     afero.Fs
	stdout bytes.Buffer
	stderr bytes.Buffer
	exits  []int
}

// newTestSession creates a dispatcher isolated from the process
// environment with an in-memory filesystem and history.
func newTestSession(t *testing.T) *testSession {
	t.Helper()

	vars := env.New()
	require.NoError(t, vars.Setenv(env.Home, t.TempDir()))
	require.NoError(t, vars.Setenv(env.Path, os.Getenv(env.Path)))

	state := &State{
		Aliases: alias.New(),
		Env:     vars,
		History: history.InMemory(100),
		Quiet:   true,
	}

	s := &testSession{fs: afero.NewMemMapFs()}
	s.d = NewDispatcher(state)
	s.d.Fs = s.fs
	s.d.Printer = &ColorPrinter{Mode: ColorNever}
	s.d.Exit = func(code int) { s.exits = append(s.exits, code) }
	return s
}

func (s *testSession) run(line string) (int, error) {
	return s.d.Run(context.Background(), line, shell.IO{
		Stdin:  &bytes.Buffer{},
		Stdout: &s.stdout,
		Stderr: &s.stderr,
	})
}

// keepWorkingDir restores the working directory after a test that calls cd.
func keepWorkingDir(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestDispatcher_IsBuiltin(t *testing.T) {
	s := newTestSession(t)

	for _, name := range []string{"cd", "exit", "alias", "unalias", "export", "unset", "source", ".", "history", "help"} {
		assert.True(t, s.d.IsBuiltin(name), name)
	}
	assert.False(t, s.d.IsBuiltin("ls"))
	assert.False(t, s.d.IsBuiltin(""))
}

func TestDispatcher_Lookup(t *testing.T) {
	s := newTestSession(t)

	info, err := s.d.Lookup("cd")
	assert.NoError(t, err)
	assert.Equal(t, "cd [DIR]", info.Use)

	_, err = s.d.Lookup("nope")
	assert.ErrorIs(t, err, ErrUnknownBuiltin)
}

func TestDispatcher_CommandNames(t *testing.T) {
	s := newTestSession(t)
	s.d.Aliases.Set("ll", "ls -l")
	s.d.Aliases.Set("cd", "cd /tmp")

	names := s.d.CommandNames()
	assert.Contains(t, names, "ll")
	assert.Contains(t, names, "history")
	assert.IsIncreasing(t, names)
}

func TestDispatcher_ParseError(t *testing.T) {
	s := newTestSession(t)

	status, err := s.run("export A=1 &&")
	assert.Equal(t, ExitSyntax, status)

	var parseErr *shell.ParseError
	assert.ErrorAs(t, err, &parseErr)
	_, ok := s.d.Env.LookupEnv("A")
	assert.False(t, ok)
}

func TestDispatcher_CommandNotFound(t *testing.T) {
	s := newTestSession(t)

	status, err := s.run("aorta-test-command-that-does-not-exist arg")
	assert.NoError(t, err)
	assert.Equal(t, process.ExitNotFound, status)
}

func TestDispatcher_NotFoundThenOr(t *testing.T) {
	s := newTestSession(t)

	status, err := s.run("aorta-test-command-that-does-not-exist || export FALLBACK=yes")
	assert.NoError(t, err)
	assert.Equal(t, 0, status)
	assert.Equal(t, "yes", s.d.Env.Getenv("FALLBACK"))
}

func TestDispatcher_ExportThenExpand(t *testing.T) {
	if _, err := exec.LookPath("echo"); err != nil {
		t.Skip("echo not available")
	}
	s := newTestSession(t)

	status, err := s.run("export X=1;echo $X")
	require.NoError(t, err)
	assert.Equal(t, 0, status)
	assert.Equal(t, "1\n", s.stdout.String())
	assert.Equal(t, "1", s.d.Env.Getenv("X"))
}

func TestDispatcher_Redirect(t *testing.T) {
	if _, err := exec.LookPath("echo"); err != nil {
		t.Skip("echo not available")
	}
	s := newTestSession(t)
	out := filepath.Join(t.TempDir(), "out.txt")

	_, err := s.run("echo hello > " + out)
	require.NoError(t, err)

	written, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(written))
	assert.Empty(t, s.stdout.String())
}

func TestCd(t *testing.T) {
	t.Run("nonexistent keeps cwd", func(t *testing.T) {
		keepWorkingDir(t)
		s := newTestSession(t)
		before, _ := os.Getwd()

		status, err := s.run("cd /aorta/does/not/exist")
		assert.Equal(t, 1, status)
		assert.ErrorIs(t, err, ErrExecution)

		after, _ := os.Getwd()
		assert.Equal(t, before, after)
	})

	t.Run("changes directory", func(t *testing.T) {
		keepWorkingDir(t)
		s := newTestSession(t)
		before, _ := os.Getwd()
		dir, err := filepath.EvalSymlinks(t.TempDir())
		require.NoError(t, err)

		status, err := s.run("cd " + dir)
		require.NoError(t, err)
		assert.Equal(t, 0, status)

		cwd, _ := os.Getwd()
		assert.Equal(t, dir, cwd)
		assert.Equal(t, dir, s.d.Env.Getenv(env.PWD))
		assert.Equal(t, before, s.d.Env.Getenv(env.OldPWD))
	})

	t.Run("no args goes home", func(t *testing.T) {
		keepWorkingDir(t)
		s := newTestSession(t)
		home, err := filepath.EvalSymlinks(s.d.Env.Getenv(env.Home))
		require.NoError(t, err)
		require.NoError(t, s.d.Env.Setenv(env.Home, home))

		_, err = s.run("cd")
		require.NoError(t, err)

		cwd, _ := os.Getwd()
		assert.Equal(t, home, cwd)
	})

	t.Run("dash returns to previous", func(t *testing.T) {
		keepWorkingDir(t)
		s := newTestSession(t)
		first, _ := filepath.EvalSymlinks(t.TempDir())
		second, _ := filepath.EvalSymlinks(t.TempDir())

		_, err := s.run("cd " + first + "; cd " + second + "; cd -")
		require.NoError(t, err)

		cwd, _ := os.Getwd()
		assert.Equal(t, first, cwd)
		assert.Contains(t, s.stdout.String(), first)
	})

	t.Run("too many arguments", func(t *testing.T) {
		s := newTestSession(t)
		_, err := s.run("cd a b")
		assert.ErrorIs(t, err, ErrInvalidArguments)
	})
}

func TestExit(t *testing.T) {
	s := newTestSession(t)

	status, err := s.run("exit; export AFTER=1")
	assert.ErrorIs(t, err, ErrExit)
	assert.Equal(t, 1, status)
	assert.Equal(t, []int{0}, s.exits)

	_, ok := s.d.Env.LookupEnv("AFTER")
	assert.False(t, ok)
}

func TestAlias(t *testing.T) {
	s := newTestSession(t)

	_, err := s.run("alias ll='ls -l'")
	require.NoError(t, err)
	_, err = s.run(`alias setg="export GREETING=hello"`)
	require.NoError(t, err)

	value, ok := s.d.Aliases.Lookup("ll")
	assert.True(t, ok)
	assert.Equal(t, "ls -l", value)

	_, err = s.run("alias")
	require.NoError(t, err)
	assert.Equal(t, "ll='ls -l'\nsetg='export GREETING=hello'\n", s.stdout.String())

	// aliases expand when used as a command
	_, err = s.run("setg")
	require.NoError(t, err)
	assert.Equal(t, "hello", s.d.Env.Getenv("GREETING"))

	_, err = s.run("alias broken")
	assert.ErrorIs(t, err, ErrInvalidArguments)

	_, err = s.run("unalias ll")
	assert.NoError(t, err)
	_, ok = s.d.Aliases.Lookup("ll")
	assert.False(t, ok)

	_, err = s.run("unalias ll")
	assert.ErrorIs(t, err, ErrExecution)
}

func TestExportAndExpand(t *testing.T) {
	s := newTestSession(t)

	_, err := s.run("export AORTA_TEST_A=1; export AORTA_TEST_B=$AORTA_TEST_A$AORTA_TEST_A")
	require.NoError(t, err)
	assert.Equal(t, "11", s.d.Env.Getenv("AORTA_TEST_B"))

	_, err = s.run(`export AORTA_TEST_C="two words"`)
	require.NoError(t, err)
	assert.Equal(t, "two words", s.d.Env.Getenv("AORTA_TEST_C"))

	_, err = s.run("export")
	assert.ErrorIs(t, err, ErrInvalidArguments)

	_, err = s.run("export =x")
	assert.ErrorIs(t, err, ErrInvalidArguments)
}

func TestUnset(t *testing.T) {
	s := newTestSession(t)
	require.NoError(t, s.d.Env.Setenv("AORTA_TEST_X", "1"))
	require.NoError(t, s.d.Env.Setenv("AORTA_TEST_Y", "2"))

	_, err := s.run("unset -v AORTA_TEST_X AORTA_TEST_Y")
	require.NoError(t, err)

	_, ok := s.d.Env.LookupEnv("AORTA_TEST_X")
	assert.False(t, ok)
	_, ok = s.d.Env.LookupEnv("AORTA_TEST_Y")
	assert.False(t, ok)

	_, err = s.run("unset --bogus")
	assert.ErrorIs(t, err, ErrInvalidArguments)
}

func TestSource(t *testing.T) {
	t.Run("runs lines", func(t *testing.T) {
		s := newTestSession(t)
		script := "# comment\n\nexport AORTA_SRC=1\nalias ll='ls -l'\n"
		require.NoError(t, afero.WriteFile(s.fs, "/profile", []byte(script), 0644))

		_, err := s.run("source /profile")
		require.NoError(t, err)
		assert.Equal(t, "1", s.d.Env.Getenv("AORTA_SRC"))
		_, ok := s.d.Aliases.Lookup("ll")
		assert.True(t, ok)
	})

	t.Run("dot", func(t *testing.T) {
		s := newTestSession(t)
		require.NoError(t, afero.WriteFile(s.fs, "/dot", []byte("export AORTA_DOT=yes\n"), 0644))

		_, err := s.run(". /dot")
		require.NoError(t, err)
		assert.Equal(t, "yes", s.d.Env.Getenv("AORTA_DOT"))
	})

	t.Run("missing file", func(t *testing.T) {
		s := newTestSession(t)
		_, err := s.run("source /missing")
		assert.ErrorIs(t, err, ErrExecution)
	})

	t.Run("failing line stops", func(t *testing.T) {
		s := newTestSession(t)
		script := "export A=1\ncd a b\nexport AORTA_NOT_REACHED=1\n"
		require.NoError(t, afero.WriteFile(s.fs, "/bad", []byte(script), 0644))

		_, err := s.run("source /bad")
		assert.ErrorIs(t, err, ErrExecution)
		assert.ErrorIs(t, err, ErrInvalidArguments)
		assert.Contains(t, err.Error(), `"cd a b"`)
		_, ok := s.d.Env.LookupEnv("AORTA_NOT_REACHED")
		assert.False(t, ok)
	})

	t.Run("recursion is bounded", func(t *testing.T) {
		s := newTestSession(t)
		require.NoError(t, afero.WriteFile(s.fs, "/loop", []byte("source /loop\n"), 0644))

		_, err := s.run("source /loop")
		assert.ErrorIs(t, err, errSourceDepth)
	})

	t.Run("no args", func(t *testing.T) {
		s := newTestSession(t)
		_, err := s.run("source")
		assert.ErrorIs(t, err, ErrInvalidArguments)
	})
}
