package commands

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(
		t,
		goldie.WithFixtureDir(filepath.Join("testdata", "golden")),
		goldie.WithDiffEngine(goldie.ColoredDiff),
	)
}

func seedHistory(t *testing.T, s *testSession) {
	t.Helper()
	s.d.History.Now = func() time.Time {
		return time.Date(2024, 3, 1, 12, 30, 45, 0, time.Local)
	}
	require.NoError(t, s.d.History.AddWithDetails("ls", 0, 10))
	require.NoError(t, s.d.History.AddWithDetails("git status", 1, 30))
	require.NoError(t, s.d.History.AddWithDetails("ls", 0, 20))
}

func TestHistory_List(t *testing.T) {
	s := newTestSession(t)
	seedHistory(t, s)

	_, err := s.run("history")
	require.NoError(t, err)

	assert.Equal(t, strings.Join([]string{
		"    1  12:30:45 [✓] (0) ls [10ms]",
		"    2  12:30:45 [✗] (1) git status [30ms]",
		"    3  12:30:45 [✓] (0) ls [20ms]",
		"",
	}, "\n"), s.stdout.String())
}

func TestHistory_ListCount(t *testing.T) {
	s := newTestSession(t)
	seedHistory(t, s)

	_, err := s.run("history -n 1")
	require.NoError(t, err)
	assert.Equal(t, "    3  12:30:45 [✓] (0) ls [20ms]\n", s.stdout.String())
}

func TestHistory_Search(t *testing.T) {
	cases := map[string]struct {
		line    string
		want    []string
		wantErr error
	}{
		"contains": {line: "history search stat", want: []string{"git status"}},
		"prefix":   {line: "history search --prefix l", want: []string{"ls", "ls"}},
		"regex":    {line: "history search --regex ^g.*s$", want: []string{"git status"}},
		"last":     {line: "history search --last 1 ls", want: []string{"ls"}},
		"no query": {line: "history search", wantErr: ErrInvalidArguments},
		"bad re":   {line: "history search --regex (", wantErr: ErrInvalidArguments},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			s := newTestSession(t)
			seedHistory(t, s)

			_, err := s.run(tc.line)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)

			var got []string
			for _, line := range strings.Split(strings.TrimSpace(s.stdout.String()), "\n") {
				_, rest, _ := strings.Cut(line, ") ")
				cmd, _, _ := strings.Cut(rest, " [")
				got = append(got, cmd)
			}
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestHistory_Delete(t *testing.T) {
	s := newTestSession(t)
	seedHistory(t, s)

	_, err := s.run("history delete 2")
	require.NoError(t, err)
	assert.Equal(t, 2, s.d.History.Len())
	for _, e := range s.d.History.All() {
		assert.Equal(t, "ls", e.Command)
	}

	_, err = s.run("history delete 99")
	assert.ErrorIs(t, err, ErrExecution)

	_, err = s.run("history delete x")
	assert.ErrorIs(t, err, ErrInvalidArguments)
}

func TestHistory_Clear(t *testing.T) {
	for _, line := range []string{"history -c", "history clear"} {
		t.Run(line, func(t *testing.T) {
			s := newTestSession(t)
			seedHistory(t, s)

			_, err := s.run(line)
			require.NoError(t, err)
			assert.Equal(t, 0, s.d.History.Len())
		})
	}
}

func TestHistory_UnknownSubcommand(t *testing.T) {
	s := newTestSession(t)
	_, err := s.run("history frobnicate")
	assert.ErrorIs(t, err, ErrInvalidArguments)
}

func TestHistory_Disabled(t *testing.T) {
	s := newTestSession(t)
	s.d.History = nil

	_, err := s.run("history")
	assert.ErrorIs(t, err, ErrExecution)
}

func TestHistory_Stats(t *testing.T) {
	s := newTestSession(t)
	seedHistory(t, s)

	_, err := s.run("history stats")
	require.NoError(t, err)

	newGoldie(t).Assert(t, "history-stats", s.stdout.Bytes())
}

func TestHistory_StatsEmpty(t *testing.T) {
	s := newTestSession(t)

	_, err := s.run("history stats")
	require.NoError(t, err)

	newGoldie(t).Assert(t, "history-stats-empty", s.stdout.Bytes())
}

func TestHelp(t *testing.T) {
	cases := map[string]string{
		"help":       "help",
		"help-topic": "help cd history",
	}

	for tn, line := range cases {
		t.Run(tn, func(t *testing.T) {
			s := newTestSession(t)

			_, err := s.run(line)
			require.NoError(t, err)
			newGoldie(t).Assert(t, tn, s.stdout.Bytes())
		})
	}
}

func TestHelp_Unknown(t *testing.T) {
	s := newTestSession(t)
	_, err := s.run("help nope")
	assert.ErrorIs(t, err, ErrInvalidArguments)
}
