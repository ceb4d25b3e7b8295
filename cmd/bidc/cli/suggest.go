// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"strings"

	"github.com/spf13/pflag"
)

// suggestCommand returns the subcommand closest to unknown, or "" when
// nothing is within an edit distance of 3.
func suggestCommand(unknown string, commands []*Command) string {
	names := make([]string, 0, len(commands))
	for _, command := range commands {
		names = append(names, command.Name)
	}
	return closest(unknown, names, 3)
}

// suggestFlag returns "--name" for the defined flag closest to the
// first undefined one in args.
func suggestFlag(args []string, flagSet *pflag.FlagSet) string {
	var defined []string
	flagSet.VisitAll(func(f *pflag.Flag) { defined = append(defined, f.Name) })

	for _, arg := range args {
		name, isFlag := flagName(arg)
		if !isFlag || flagSet.Lookup(name) != nil {
			continue
		}
		if match := closest(name, defined, 2); match != "" {
			return "--" + match
		}
		return ""
	}
	return ""
}

// flagName strips dashes and any "=value" from a flag argument.
func flagName(arg string) (string, bool) {
	if arg == "-" || arg == "--" || !strings.HasPrefix(arg, "-") {
		return "", false
	}
	name, _, _ := strings.Cut(strings.TrimLeft(arg, "-"), "=")
	return name, true
}

// closest returns the candidate with the smallest edit distance to
// word, provided it is at most limit. Ties go to the earlier candidate.
func closest(word string, candidates []string, limit int) string {
	best, bestDistance := "", limit+1
	for _, candidate := range candidates {
		if distance := levenshtein(word, candidate); distance < bestDistance {
			best, bestDistance = candidate, distance
		}
	}
	return best
}

// levenshtein is the edit distance between a and b, computed one row
// at a time.
func levenshtein(a, b string) int {
	if len(a) > len(b) {
		a, b = b, a
	}
	row := make([]int, len(a)+1)
	for i := range row {
		row[i] = i
	}
	for j := 1; j <= len(b); j++ {
		diagonal := row[0]
		row[0] = j
		for i := 1; i <= len(a); i++ {
			substitution := diagonal
			if a[i-1] != b[j-1] {
				substitution++
			}
			diagonal = row[i]
			row[i] = min(row[i]+1, row[i-1]+1, substitution)
		}
	}
	return row[len(a)]
}
