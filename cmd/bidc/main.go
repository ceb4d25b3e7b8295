// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"os"

	"github.com/bureau-foundation/bidc/cmd/bidc/cli"
	"github.com/bureau-foundation/bidc/cmd/bidc/demo"
	"github.com/bureau-foundation/bidc/cmd/bidc/remote"
	"github.com/bureau-foundation/bidc/lib/version"
)

func main() {
	if err := root().Execute(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func root() *cli.Command {
	return &cli.Command{
		Name:        "bidc",
		Description: "Bidirectional channels between windows, frames, popups, and processes.",
		Subcommands: []*cli.Command{
			demo.Command(),
			remote.ServeCommand(),
			remote.DialCommand(),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(args []string) error {
					version.Print(os.Stdout, "bidc")
					return nil
				},
			},
		},
		Examples: []cli.Example{
			{Description: "Try the terminal demo", Command: "bidc demo"},
			{Description: "Chat between two terminals", Command: "bidc serve --listen unix:/tmp/bidc.sock & bidc dial --connect unix:/tmp/bidc.sock"},
		},
	}
}
