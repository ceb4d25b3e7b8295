// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package demo

import (
	"errors"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/bureau-foundation/bidc/cmd/bidc/cli"
)

// Command returns the "demo" command.
func Command() *cli.Command {
	var globals cli.Globals
	return &cli.Command{
		Name:    "demo",
		Summary: "Chat between a page, its iframe, and a popup dialog",
		Description: `Run the interactive demo.

The top row shows the page's side of each connection, the bottom row the
iframe's and the dialog's. Logs are discarded unless --log-file is set,
so they do not draw over the screen.`,
		Examples: []cli.Example{
			{Description: "Run the demo with debug logs in a file", Command: "bidc demo --verbose --log-file /tmp/bidc.log"},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("demo", pflag.ContinueOnError)
			globals.AddFlags(flagSet)
			return flagSet
		},
		Run: func(args []string) error {
			if len(args) > 0 {
				return errors.New("demo takes no arguments")
			}
			if !term.IsTerminal(int(os.Stdout.Fd())) {
				return errors.New("demo needs a terminal on stdout")
			}

			session, err := globals.Open(true)
			if err != nil {
				return err
			}
			defer session.Close()

			d, err := New(Options{
				Logger:   session.Logger,
				Channel:  session.ChannelConfig(),
				Liveness: session.LivenessConfig(),
			})
			if err != nil {
				return err
			}
			defer d.Close()

			program := tea.NewProgram(NewModel(d), tea.WithAltScreen())
			_, err = program.Run()
			return err
		},
	}
}
