// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestExecuteDispatchesToSubcommand(t *testing.T) {
	var called string
	var receivedArgs []string
	root := &Command{
		Name: "bidc",
		Subcommands: []*Command{
			{Name: "version", Run: func(args []string) error { called = "version"; return nil }},
			{Name: "dial", Run: func(args []string) error {
				called = "dial"
				receivedArgs = args
				return nil
			}},
		},
	}

	if err := root.Execute([]string{"dial", "extra"}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if called != "dial" || len(receivedArgs) != 1 || receivedArgs[0] != "extra" {
		t.Errorf("called %q with %v", called, receivedArgs)
	}
}

func TestExecuteParsesFlags(t *testing.T) {
	var address string
	command := &Command{
		Name: "serve",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("serve", pflag.ContinueOnError)
			flagSet.StringVar(&address, "listen", "", "address")
			return flagSet
		},
		Run: func(args []string) error { return nil },
	}
	if err := command.Execute([]string{"--listen", "unix:/tmp/x.sock"}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if address != "unix:/tmp/x.sock" {
		t.Errorf("listen = %q", address)
	}
}

func TestExecuteSuggestsCommand(t *testing.T) {
	root := &Command{
		Name:        "bidc",
		Subcommands: []*Command{{Name: "serve", Run: func([]string) error { return nil }}},
	}
	err := root.Execute([]string{"serv"})
	if err == nil || !strings.Contains(err.Error(), `did you mean "serve"`) {
		t.Errorf("error = %v, want a suggestion", err)
	}
}

func TestExecuteSuggestsFlag(t *testing.T) {
	command := &Command{
		Name: "dial",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("dial", pflag.ContinueOnError)
			flagSet.String("connect", "", "address")
			return flagSet
		},
		Run: func([]string) error { return nil },
	}
	err := command.Execute([]string{"--conect", "x"})
	if err == nil || !strings.Contains(err.Error(), "did you mean --connect?") {
		t.Errorf("error = %v, want a flag suggestion", err)
	}
}

func TestUsageErrorsAreTyped(t *testing.T) {
	root := &Command{
		Name:        "bidc",
		Subcommands: []*Command{{Name: "version", Run: func([]string) error { return nil }}},
	}
	err := root.Execute([]string{"nonsense"})
	var usage *UsageError
	if !errors.As(err, &usage) {
		t.Fatalf("error = %v, want *UsageError", err)
	}
	if usage.Path != "bidc" || usage.Hint != "" {
		t.Errorf("usage error = %+v", usage)
	}
	if !strings.Contains(err.Error(), "Run 'bidc --help' for usage.") {
		t.Errorf("error text = %q", err.Error())
	}
}

func TestFlagName(t *testing.T) {
	for _, tc := range []struct {
		arg    string
		name   string
		isFlag bool
	}{
		{"--listen=unix:/x", "listen", true},
		{"-v", "v", true},
		{"--", "", false},
		{"serve", "", false},
	} {
		name, isFlag := flagName(tc.arg)
		if name != tc.name || isFlag != tc.isFlag {
			t.Errorf("flagName(%q) = %q, %v", tc.arg, name, isFlag)
		}
	}
}

func TestExecuteRequiresSubcommand(t *testing.T) {
	root := &Command{Name: "bidc", Subcommands: []*Command{{Name: "demo"}}}
	if err := root.Execute(nil); err == nil {
		t.Error("Execute with no subcommand succeeded")
	}
}

func TestPrintHelpListsSubcommandsAndExamples(t *testing.T) {
	root := &Command{
		Name:        "bidc",
		Description: "Bidirectional channels.",
		Subcommands: []*Command{{Name: "demo", Summary: "run the demo"}},
		Examples:    []Example{{Description: "Start the demo", Command: "bidc demo"}},
	}
	var buffer bytes.Buffer
	root.PrintHelp(&buffer)
	for _, want := range []string{"Bidirectional channels.", "demo", "run the demo", "# Start the demo"} {
		if !strings.Contains(buffer.String(), want) {
			t.Errorf("help missing %q:\n%s", want, buffer.String())
		}
	}
}

func TestLevenshtein(t *testing.T) {
	for _, tc := range []struct {
		a, b string
		want int
	}{
		{"", "abc", 3},
		{"serve", "serve", 0},
		{"serv", "serve", 1},
		{"dail", "dial", 2},
	} {
		if got := levenshtein(tc.a, tc.b); got != tc.want {
			t.Errorf("levenshtein(%q, %q) = %d, want %d", tc.a, tc.b, got, tc.want)
		}
	}
}

func TestGlobalsOpen(t *testing.T) {
	directory := t.TempDir()
	configPath := filepath.Join(directory, "bidc.yaml")
	if err := os.WriteFile(configPath, []byte("channel:\n  ack_timeout: 3s\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	logPath := filepath.Join(directory, "bidc.log")

	globals := Globals{ConfigPath: configPath, LogFile: logPath, Verbose: true}
	session, err := globals.Open(true)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer session.Close()

	if got := session.ChannelConfig().AckTimeout; got != 3*time.Second {
		t.Errorf("AckTimeout = %v, want 3s", got)
	}
	session.Logger.Debug("probe")
	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"probe"`) {
		t.Errorf("debug record missing from log file: %s", data)
	}
}
