package shell

import (
	"fmt"
	"strings"
)

// Operator joins a stage to the one after it.
type Operator int

const (
	// None marks the last stage of a pipeline.
	None Operator = iota
	Pipe
	And
	Or
	Sequence
	Redirect
)

func (o Operator) String() string {
	switch o {
	case None:
		return ""
	case Pipe:
		return "|"
	case And:
		return "&&"
	case Or:
		return "||"
	case Sequence:
		return ";"
	case Redirect:
		return ">"
	default:
		return fmt.Sprintf("Operator(%d)", int(o))
	}
}

const (
	msgEmptyCommand  = "Empty command"
	msgEmptyPipeline = "Empty pipeline"
)

// ParseError is returned for malformed input lines.
type ParseError struct {
	Msg string
}

func (e *ParseError) Error() string {
	return "parse error: " + e.Msg
}

// Stage is one command, its arguments, and the operator that follows it.
type Stage struct {
	Command  string
	Args     []string
	Operator Operator
}

func (s Stage) String() string {
	return strings.Join(append([]string{s.Command}, s.Args...), " ")
}

// Pipeline is a parsed input line. It always has at least one stage, the last
// stage's operator is None and every other stage's operator is not.
type Pipeline struct {
	Stages []Stage
}

func (p *Pipeline) String() string {
	var sb strings.Builder
	for i, st := range p.Stages {
		if i > 0 {
			sb.WriteString(" ")
		}
		sb.WriteString(st.String())
		if st.Operator != None {
			sb.WriteString(" ")
			sb.WriteString(st.Operator.String())
		}
	}
	return sb.String()
}

// Parse splits line into stages at the operators |, ||, &&, ; and >.
//
// Operators are matched literally, there is no quoting or escaping. A single
// '&' is an ordinary character. A trailing ';' is allowed, any other trailing
// operator is an error.
func Parse(line string) (*Pipeline, error) {
	var (
		stages []Stage
		buf    strings.Builder
	)

	input := []rune(line)
	emit := func(op Operator) error {
		fields := strings.Fields(buf.String())
		buf.Reset()
		if len(fields) == 0 {
			return &ParseError{Msg: msgEmptyCommand}
		}
		stages = append(stages, Stage{Command: fields[0], Args: fields[1:], Operator: op})
		return nil
	}
	requireMore := func(i int, op Operator) error {
		if strings.TrimSpace(string(input[i:])) == "" {
			return &ParseError{Msg: fmt.Sprintf("missing command after %q", op.String())}
		}
		return nil
	}

	for i := 0; i < len(input); i++ {
		var op Operator
		switch c := input[i]; {
		case c == '|' && i+1 < len(input) && input[i+1] == '|':
			op = Or
			i++
		case c == '|':
			op = Pipe
		case c == '&' && i+1 < len(input) && input[i+1] == '&':
			op = And
			i++
		case c == ';':
			op = Sequence
		case c == '>':
			op = Redirect
		default:
			buf.WriteRune(c)
			continue
		}

		if err := emit(op); err != nil {
			return nil, err
		}
		if op != Sequence {
			if err := requireMore(i+1, op); err != nil {
				return nil, err
			}
		}
	}

	if strings.TrimSpace(buf.String()) != "" {
		if err := emit(None); err != nil {
			return nil, err
		}
	}

	if len(stages) == 0 {
		return nil, &ParseError{Msg: msgEmptyPipeline}
	}
	stages[len(stages)-1].Operator = None

	return &Pipeline{Stages: stages}, nil
}
