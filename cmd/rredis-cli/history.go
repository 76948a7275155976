package main

import (
	"fmt"
	"strings"
)

const maxHistorySize = 1000

// commandHistory is an in-memory ring of issued commands. Nothing is
// persisted to disk.
type commandHistory struct {
	commands []string
}

func (h *commandHistory) add(command string) {
	trimmed := strings.TrimSpace(command)
	if trimmed == "" {
		return
	}
	// skip consecutive duplicates
	if n := len(h.commands); n > 0 && h.commands[n-1] == trimmed {
		return
	}
	if len(h.commands) >= maxHistorySize {
		h.commands = h.commands[1:]
	}
	h.commands = append(h.commands, trimmed)
}

func (h *commandHistory) display() string {
	if len(h.commands) == 0 {
		return "No command history."
	}
	var b strings.Builder
	b.WriteString("Command History:\n")
	b.WriteString(strings.Repeat("-", 50) + "\n")
	for i, cmd := range h.commands {
		b.WriteString(fmt.Sprintf("%4d: %s\n", i+1, cmd))
	}
	b.WriteString(strings.Repeat("-", 50) + "\n")
	b.WriteString(fmt.Sprintf("Total: %d commands", len(h.commands)))
	return b.String()
}

func isHistoryCommand(input string) bool {
	return strings.EqualFold(strings.TrimSpace(input), "_history")
}

func isStatsCommand(input string) bool {
	return strings.EqualFold(strings.TrimSpace(input), "_stats")
}

func isInfoCommand(input string) bool {
	return strings.EqualFold(strings.TrimSpace(input), "_info")
}
