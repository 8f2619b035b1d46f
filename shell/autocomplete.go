package shell

import (
	"strings"

	"github.com/kballard/go-shellquote"
)

// ShellCompleter completes command names and bench options.
type ShellCompleter struct {
	sc *ShellController
}

func NewShellCompleter(sc *ShellController) *ShellCompleter {
	return &ShellCompleter{sc: sc}
}

var commandNames = []string{
	"new", "play", "undo", "show", "solve", "weak", "reset", "random",
	"bench", "help", "exit",
}

var benchOptions = []string{"-weak", "-threads", "-shard", "-report", "-stop", "-hist"}

// Do implements readline.AutoCompleter.
func (c *ShellCompleter) Do(line []rune, pos int) ([][]rune, int) {
	text := string(line[:pos])
	fields, err := shellquote.Split(text)
	if err != nil {
		fields = strings.Fields(text)
	}
	endsWithSpace := len(text) > 0 && text[len(text)-1] == ' '

	var prefix string
	var completions []string
	switch {
	case len(fields) == 0 || (len(fields) == 1 && !endsWithSpace):
		if len(fields) == 1 {
			prefix = fields[0]
		}
		completions = commandNames
	default:
		if !endsWithSpace {
			prefix = fields[len(fields)-1]
		}
		switch fields[0] {
		case "bench":
			if strings.HasPrefix(prefix, "-") || (endsWithSpace && len(fields) > 1) {
				completions = benchOptions
			}
		case "help":
			completions = commandNames
		}
	}

	var matches [][]rune
	for _, completion := range completions {
		if strings.HasPrefix(completion, prefix) {
			matches = append(matches, []rune(completion[len(prefix):]))
		}
	}
	return matches, len(prefix)
}
