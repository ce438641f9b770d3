package shell

import (
	"sort"
	"strings"

	"github.com/chzyer/readline"

	"github.com/r3d91ll/tanita/pkg/fields"
	"github.com/r3d91ll/tanita/pkg/help"
)

// ShellCompleter completes command names after "/", field codes for
// commands that take a code, command names for /help and "last" for the
// measurement commands.
type ShellCompleter struct {
	commands []string
	codes    []string
}

// NewShellCompleter creates a completer over the help registry and the
// field dictionary.
func NewShellCompleter() *ShellCompleter {
	cmds := help.Names()
	sort.Strings(cmds)
	return &ShellCompleter{commands: cmds, codes: fields.Codes()}
}

var _ readline.AutoCompleter = (*ShellCompleter)(nil)

// Do implements readline.AutoCompleter. It returns the candidate suffixes
// and the length of the word being completed.
func (c *ShellCompleter) Do(line []rune, pos int) ([][]rune, int) {
	if len(line) == 0 || pos <= 0 {
		return nil, 0
	}
	if pos > len(line) {
		pos = len(line)
	}

	text := string(line[:pos])
	start := findWordStart(text)
	word := text[start:]

	before := strings.Fields(text[:start])
	if len(before) == 0 {
		if strings.HasPrefix(word, "/") {
			return complete(c.commands, strings.TrimPrefix(word, "/"), len(word))
		}
		return nil, 0
	}

	cmd, ok := help.Lookup(before[0])
	switch {
	case !ok:
		return nil, 0
	case cmd.TakesCode:
		return complete(c.codes, word, len(word))
	case cmd.Name == "/help":
		return complete(c.commands, strings.TrimPrefix(word, "/"), len(word))
	case cmd.Name == "/show" || cmd.Name == "/gauges":
		return complete([]string{"last"}, word, len(word))
	}
	return nil, 0
}

// findWordStart returns the index after the last space or tab.
func findWordStart(s string) int {
	return strings.LastIndexAny(s, " \t") + 1
}

// complete returns the suffixes of candidates that extend prefix, each
// followed by a space. length is passed through as the replaced length.
func complete(candidates []string, prefix string, length int) ([][]rune, int) {
	var out [][]rune
	for _, cand := range candidates {
		if strings.HasPrefix(cand, prefix) {
			out = append(out, []rune(cand[len(prefix):]+" "))
		}
	}
	return out, length
}
