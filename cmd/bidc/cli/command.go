// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"
)

// Command is one node of the bidc command tree.
type Command struct {
	// Name is the word typed to select the command.
	Name string

	// Summary is the one-line description in the parent's listing.
	Summary string

	// Description is shown at the top of the command's own help.
	Description string

	// Usage overrides the synthesized usage line.
	Usage string

	Examples []Example

	// Flags builds the command's flag set. Called each time it is
	// needed, so it must return a fresh set bound to the same targets.
	Flags func() *pflag.FlagSet

	Subcommands []*Command

	// Run receives the positional arguments left after flag parsing.
	Run func(args []string) error

	parent *Command
}

// Example is a usage example shown in help output.
type Example struct {
	Description string
	Command     string
}

// UsageError is a mistake on the command line, as opposed to a failure
// of the command itself.
type UsageError struct {
	// Path is the full command name, e.g. "bidc serve".
	Path string

	Message string

	// Hint is the closest valid spelling, already quoted as it should
	// appear, or empty.
	Hint string
}

func (e *UsageError) Error() string {
	var text strings.Builder
	text.WriteString(e.Message)
	if e.Hint != "" {
		fmt.Fprintf(&text, " (did you mean %s?)", e.Hint)
	}
	fmt.Fprintf(&text, "\n\nRun '%s --help' for usage.", e.Path)
	return text.String()
}

// Execute parses args and runs the selected command.
func (c *Command) Execute(args []string) error {
	if len(args) > 0 && isHelpFlag(args[0]) {
		c.PrintHelp(os.Stderr)
		return nil
	}

	if len(c.Subcommands) > 0 {
		if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
			return c.dispatch(args[0], args[1:])
		}
		if c.Run == nil {
			c.PrintHelp(os.Stderr)
			return &UsageError{Path: c.path(), Message: "a command is required"}
		}
	}

	positional, err := c.parse(args)
	if errors.Is(err, pflag.ErrHelp) {
		c.PrintHelp(os.Stderr)
		return nil
	}
	if err != nil {
		return err
	}

	if c.Run == nil {
		c.PrintHelp(os.Stderr)
		return fmt.Errorf("%s has nothing to run", c.path())
	}
	return c.Run(positional)
}

func (c *Command) dispatch(name string, rest []string) error {
	for _, sub := range c.Subcommands {
		if sub.Name == name {
			sub.parent = c
			return sub.Execute(rest)
		}
	}
	usage := &UsageError{Path: c.path(), Message: fmt.Sprintf("unknown command %q", name)}
	if suggestion := suggestCommand(name, c.Subcommands); suggestion != "" {
		usage.Hint = fmt.Sprintf("%q", suggestion)
	}
	return usage
}

// parse applies the command's flags and returns the positional
// arguments.
func (c *Command) parse(args []string) ([]string, error) {
	if c.Flags == nil {
		return args, nil
	}
	flagSet := c.Flags()
	flagSet.SetOutput(io.Discard)
	err := flagSet.Parse(args)
	switch {
	case err == nil:
		return flagSet.Args(), nil
	case errors.Is(err, pflag.ErrHelp):
		return nil, err
	}

	usage := &UsageError{Path: c.path(), Message: err.Error()}
	if strings.Contains(usage.Message, "unknown flag") {
		usage.Hint = suggestFlag(args, c.Flags())
	}
	return nil, usage
}

// PrintHelp writes the command's help to w.
func (c *Command) PrintHelp(w io.Writer) {
	if text := c.Description; text != "" {
		fmt.Fprintf(w, "%s\n\n", text)
	} else if c.Summary != "" {
		fmt.Fprintf(w, "%s\n\n", c.Summary)
	}
	fmt.Fprintf(w, "Usage:\n  %s\n", c.usageLine())

	if len(c.Subcommands) > 0 {
		io.WriteString(w, "\nCommands:\n")
		table := tabwriter.NewWriter(w, 2, 0, 3, ' ', 0)
		for _, sub := range c.Subcommands {
			fmt.Fprintf(table, "  %s\t%s\n", sub.Name, sub.Summary)
		}
		table.Flush()
	}

	if defaults := c.flagDefaults(); defaults != "" {
		fmt.Fprintf(w, "\nFlags:\n%s", defaults)
	}

	if len(c.Examples) > 0 {
		io.WriteString(w, "\nExamples:\n")
		for _, example := range c.Examples {
			if example.Description == "" {
				fmt.Fprintf(w, "  %s\n", example.Command)
				continue
			}
			fmt.Fprintf(w, "  # %s\n  %s\n\n", example.Description, example.Command)
		}
	}

	if len(c.Subcommands) > 0 {
		fmt.Fprintf(w, "\nRun '%s <command> --help' for details on a command.\n", c.path())
	}
}

func (c *Command) usageLine() string {
	switch {
	case c.Usage != "":
		return c.Usage
	case len(c.Subcommands) > 0:
		return c.path() + " <command> [flags]"
	default:
		return c.path() + " [flags]"
	}
}

func (c *Command) flagDefaults() string {
	if c.Flags == nil {
		return ""
	}
	var defaults strings.Builder
	flagSet := c.Flags()
	flagSet.SetOutput(&defaults)
	flagSet.PrintDefaults()
	return defaults.String()
}

// path is the command's name prefixed by its ancestors'.
func (c *Command) path() string {
	if c.parent == nil {
		return c.Name
	}
	return c.parent.path() + " " + c.Name
}

func isHelpFlag(arg string) bool {
	switch arg {
	case "-h", "--help", "help":
		return true
	}
	return false
}
