package shell

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	cases := map[string]struct {
		line string
		want []Stage
	}{
		"single command": {
			line: "ls -la",
			want: []Stage{{Command: "ls", Args: []string{"-la"}, Operator: None}},
		},
		"pipe": {
			line: "ls | grep foo",
			want: []Stage{
				{Command: "ls", Args: []string{}, Operator: Pipe},
				{Command: "grep", Args: []string{"foo"}, Operator: None},
			},
		},
		"and or sequence": {
			line: "make && echo ok || echo failed; date",
			want: []Stage{
				{Command: "make", Args: []string{}, Operator: And},
				{Command: "echo", Args: []string{"ok"}, Operator: Or},
				{Command: "echo", Args: []string{"failed"}, Operator: Sequence},
				{Command: "date", Args: []string{}, Operator: None},
			},
		},
		"redirect target is the next stage": {
			line: "ls -1 > out.txt",
			want: []Stage{
				{Command: "ls", Args: []string{"-1"}, Operator: Redirect},
				{Command: "out.txt", Args: []string{}, Operator: None},
			},
		},
		"no spaces around operators": {
			line: "export X=1;echo $X",
			want: []Stage{
				{Command: "export", Args: []string{"X=1"}, Operator: Sequence},
				{Command: "echo", Args: []string{"$X"}, Operator: None},
			},
		},
		"trailing sequence": {
			line: "ls ; ",
			want: []Stage{{Command: "ls", Args: []string{}, Operator: None}},
		},
		"single ampersand is literal": {
			line: "echo a&b",
			want: []Stage{{Command: "echo", Args: []string{"a&b"}, Operator: None}},
		},
		"extra whitespace": {
			line: "\t cat   a  b \t",
			want: []Stage{{Command: "cat", Args: []string{"a", "b"}, Operator: None}},
		},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			got, err := Parse(tc.line)
			assert.Nil(t, err)
			assert.Equal(t, tc.want, got.Stages)
		})
	}
}

func TestParseErrors(t *testing.T) {
	cases := map[string]struct {
		line    string
		wantMsg string
	}{
		"empty":               {"", "Empty pipeline"},
		"whitespace":          {" \t ", "Empty pipeline"},
		"trailing pipe":       {"ls |", `missing command after "|"`},
		"trailing pipe space": {"ls |   ", `missing command after "|"`},
		"trailing and":        {"ls &&", `missing command after "&&"`},
		"trailing or":         {"ls ||", `missing command after "||"`},
		"trailing redirect":   {"ls >", `missing command after ">"`},
		"leading pipe":        {"| ls", "Empty command"},
		"leading sequence":    {"; ls", "Empty command"},
		"doubled sequence":    {"ls ;; pwd", "Empty command"},
		"empty between":       {"ls && && pwd", "Empty command"},
	}

	for tn, tc := range cases {
		t.Run(tn, func(t *testing.T) {
			got, err := Parse(tc.line)
			assert.Nil(t, got)

			var parseErr *ParseError
			if assert.True(t, errors.As(err, &parseErr), "got %v", err) {
				assert.Equal(t, tc.wantMsg, parseErr.Msg)
			}
		})
	}
}

func TestParseLastOperatorIsNone(t *testing.T) {
	for _, line := range []string{
		"a",
		"a | b",
		"a && b || c ; d > e",
		"a;",
	} {
		t.Run(line, func(t *testing.T) {
			got, err := Parse(line)
			assert.Nil(t, err)

			last := len(got.Stages) - 1
			assert.Equal(t, None, got.Stages[last].Operator)
			for _, st := range got.Stages[:last] {
				assert.NotEqual(t, None, st.Operator, "stage %q", st)
			}
		})
	}
}

func TestPipelineString(t *testing.T) {
	got, err := Parse("ls   -la|grep  foo >out")
	assert.Nil(t, err)
	assert.Equal(t, "ls -la | grep foo > out", got.String())
}
