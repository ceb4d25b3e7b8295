// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
	if cfg.Channel.AckTimeout != 0 {
		t.Errorf("default ack timeout = %v, want 0 (wait forever)", cfg.Channel.AckTimeout)
	}
	if cfg.Liveness.PollInterval != 500*time.Millisecond {
		t.Errorf("default poll interval = %v, want 500ms", cfg.Liveness.PollInterval)
	}
}

func TestResolveWithoutFileUsesDefaults(t *testing.T) {
	t.Setenv(EnvironmentVariable, "")
	cfg, err := Resolve("")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cfg.Channel.Backlog != Default().Channel.Backlog {
		t.Errorf("backlog = %d, want default", cfg.Channel.Backlog)
	}
}

func TestResolveReadsEnvironmentVariable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bidc.yaml")
	writeFile(t, path, "channel:\n  ack_timeout: 3s\n")
	t.Setenv(EnvironmentVariable, path)

	cfg, err := Resolve("")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cfg.Channel.AckTimeout != 3*time.Second {
		t.Errorf("ack timeout = %v, want 3s", cfg.Channel.AckTimeout)
	}
}

func TestFlagPathWinsOverEnvironment(t *testing.T) {
	directory := t.TempDir()
	fromEnv := filepath.Join(directory, "env.yaml")
	fromFlag := filepath.Join(directory, "flag.yaml")
	writeFile(t, fromEnv, "channel:\n  backlog: 10\n")
	writeFile(t, fromFlag, "channel:\n  backlog: 20\n")
	t.Setenv(EnvironmentVariable, fromEnv)

	cfg, err := Resolve(fromFlag)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if cfg.Channel.Backlog != 20 {
		t.Errorf("backlog = %d, want 20 from the flag file", cfg.Channel.Backlog)
	}
}

func TestParseJSONCWithComments(t *testing.T) {
	data := []byte(`{
		// popups are polled quickly in tests
		"liveness": {"poll_interval": "100ms"},
		"bridge": {"compression": "none",},
	}`)
	cfg, err := Parse(data, ".jsonc")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Liveness.PollInterval != 100*time.Millisecond {
		t.Errorf("poll interval = %v, want 100ms", cfg.Liveness.PollInterval)
	}
	if cfg.Bridge.Compression != "none" {
		t.Errorf("compression = %q, want none", cfg.Bridge.Compression)
	}
}

func TestProductionOverrides(t *testing.T) {
	data := []byte(`
environment: production
channel:
  ack_timeout: 1s
production:
  channel:
    ack_timeout: 10s
  log:
    level: warn
development:
  channel:
    ack_timeout: 99s
`)
	cfg, err := Parse(data, ".yaml")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.Channel.AckTimeout != 10*time.Second {
		t.Errorf("ack timeout = %v, want 10s from production section", cfg.Channel.AckTimeout)
	}
	level, err := cfg.LogLevel()
	if err != nil {
		t.Fatalf("LogLevel: %v", err)
	}
	if level != slog.LevelWarn {
		t.Errorf("level = %v, want warn", level)
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	data := []byte(`
environment: staging
channel:
  backlog: 0
bridge:
  compression: lz77
log:
  level: loud
`)
	_, err := Parse(data, ".yml")
	if err == nil {
		t.Fatal("Parse accepted an invalid config")
	}
	for _, fragment := range []string{"environment", "channel.backlog", "bridge.compression", "log.level"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Errorf("error %q does not mention %s", err, fragment)
		}
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("LoadFile on missing file returned nil error")
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("error %v does not wrap fs.ErrNotExist", err)
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}
