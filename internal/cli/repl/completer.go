package repl

import "strings"

// Completer suggests commands for a prefix.
type Completer struct {
	commands []string
}

// NewCompleter creates a Completer for the rollcall-cli command tree.
func NewCompleter() *Completer {
	return &Completer{
		commands: []string{
			"attendance submit", "attendance get",
			"employee add", "employee update", "employee get",
			"system health", "system status", "system gc",
			"backup create", "backup list",
			"help", "exit", "quit",
		},
	}
}

// Complete returns the commands starting with prefix.
func (c *Completer) Complete(prefix string) []string {
	var out []string
	for _, cmd := range c.commands {
		if strings.HasPrefix(cmd, prefix) {
			out = append(out, cmd)
		}
	}
	return out
}
