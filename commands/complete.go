package commands

import (
	"strings"

	"github.com/abiosoft/readline"
)

// completer completes the command word of the stage under the cursor with
// builtin and alias names.
type completer struct {
	d *Dispatcher
}

var _ readline.AutoCompleter = (*completer)(nil)

// Do implements readline.AutoCompleter.
func (c *completer) Do(line []rune, pos int) (newLine [][]rune, length int) {
	head := string(line[:pos])
	word := strings.TrimLeft(head[strings.LastIndexAny(head, "|&;>")+1:], " \t")
	if strings.ContainsAny(word, " \t") {
		return nil, 0
	}

	for _, name := range c.d.CommandNames() {
		if strings.HasPrefix(name, word) {
			newLine = append(newLine, []rune(name[len(word):]+" "))
		}
	}
	return newLine, len([]rune(word))
}
