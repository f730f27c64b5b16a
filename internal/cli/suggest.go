// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// suggest.go - Typo correction for command words.
package cli

import "strings"

// validCommands lists every command word and alias Parse accepts.
var validCommands = []string{
	"tui", "ask", "chat", "status", "providers", "repos", "db", "memory",
	"config", "version", "help",
	// aliases
	"a", "repl", "s", "provider", "llm", "repo", "kb", "mem", "cfg",
}

// SuggestCommand returns the closest command word to input, or "" when
// nothing is close enough. Short inputs tolerate one edit, longer ones two.
func SuggestCommand(input string) string {
	input = strings.ToLower(input)
	if len([]rune(input)) < 2 {
		return ""
	}
	limit := 1
	if len([]rune(input)) >= 4 {
		limit = 2
	}

	best, bestDist := "", limit+1
	for _, cmd := range validCommands {
		if len(cmd) < 2 {
			continue
		}
		d := editDistance(input, cmd)
		if d == 0 {
			return ""
		}
		if d < bestDist {
			best, bestDist = cmd, d
		}
	}
	return best
}

// editDistance is the Levenshtein distance between a and b, over runes.
func editDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	row := make([]int, len(rb)+1)
	for j := range row {
		row[j] = j
	}
	for i := 1; i <= len(ra); i++ {
		diag := row[0]
		row[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			up := row[j]
			row[j] = min(row[j]+1, row[j-1]+1, diag+cost)
			diag = up
		}
	}
	return row[len(rb)]
}
