// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// EnvironmentVariable names the config file when --config is absent.
const EnvironmentVariable = "BIDC_CONFIG"

// Environment selects which override section applies.
type Environment string

const (
	Development Environment = "development"
	Production  Environment = "production"
)

// Config is the complete bidc configuration.
type Config struct {
	Environment Environment    `yaml:"environment"`
	Channel     ChannelConfig  `yaml:"channel"`
	Liveness    LivenessConfig `yaml:"liveness"`
	Bridge      BridgeConfig   `yaml:"bridge"`
	Log         LogConfig      `yaml:"log"`

	Development *Overrides `yaml:"development,omitempty"`
	Production  *Overrides `yaml:"production,omitempty"`
}

// Overrides holds the per-environment sections.
type Overrides struct {
	Channel  *ChannelConfig  `yaml:"channel,omitempty"`
	Liveness *LivenessConfig `yaml:"liveness,omitempty"`
	Bridge   *BridgeConfig   `yaml:"bridge,omitempty"`
	Log      *LogConfig      `yaml:"log,omitempty"`
}

// ChannelConfig configures every channel the process opens.
type ChannelConfig struct {
	// AckTimeout bounds how long a send waits for its acknowledgement.
	// Zero waits forever.
	AckTimeout time.Duration `yaml:"ack_timeout"`

	// Backlog is how many payloads a channel holds while no handler is
	// registered.
	Backlog int `yaml:"backlog"`
}

// LivenessConfig configures popup liveness polling.
type LivenessConfig struct {
	PollInterval time.Duration `yaml:"poll_interval"`
}

// BridgeConfig configures cross-process links.
type BridgeConfig struct {
	// Compression is "none" or "zstd".
	Compression string `yaml:"compression"`

	// CompressThreshold is the smallest message body worth compressing.
	CompressThreshold int `yaml:"compress_threshold"`

	// MaxFrameSize caps a single encoded frame in bytes.
	MaxFrameSize int `yaml:"max_frame_size"`

	// HandshakeTimeout bounds the hello exchange on a new link.
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	// Level is debug, info, warn, or error.
	Level string `yaml:"level"`

	// File, if set, receives JSON log records. The TUI demo requires
	// it to see any logs at all.
	File string `yaml:"file"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Environment: Development,
		Channel: ChannelConfig{
			AckTimeout: 0,
			Backlog:    256,
		},
		Liveness: LivenessConfig{
			PollInterval: 500 * time.Millisecond,
		},
		Bridge: BridgeConfig{
			Compression:       "zstd",
			CompressThreshold: 1024,
			MaxFrameSize:      1 << 20,
			HandshakeTimeout:  5 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Resolve loads the file named by path, or by BIDC_CONFIG when path is
// empty. With neither, it returns Default().
func Resolve(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(EnvironmentVariable)
	}
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}

// LoadFile loads and validates the configuration at path.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	cfg, err := Parse(data, filepath.Ext(path))
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes data on top of Default(), applies the environment
// section, and validates the result. extension selects JSONC handling
// (".json", ".jsonc"); anything else is YAML.
func Parse(data []byte, extension string) (*Config, error) {
	switch strings.ToLower(extension) {
	case ".json", ".jsonc":
		// JSON is a YAML subset, so once comments and trailing commas
		// are gone the YAML decoder handles it, durations included.
		data = jsonc.ToJSON(data)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing: %w", err)
	}
	cfg.applyEnvironmentOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnvironmentOverrides() {
	var overrides *Overrides
	switch c.Environment {
	case Development:
		overrides = c.Development
	case Production:
		overrides = c.Production
	}
	if overrides == nil {
		return
	}

	if channel := overrides.Channel; channel != nil {
		if channel.AckTimeout != 0 {
			c.Channel.AckTimeout = channel.AckTimeout
		}
		if channel.Backlog != 0 {
			c.Channel.Backlog = channel.Backlog
		}
	}
	if liveness := overrides.Liveness; liveness != nil && liveness.PollInterval != 0 {
		c.Liveness.PollInterval = liveness.PollInterval
	}
	if bridge := overrides.Bridge; bridge != nil {
		if bridge.Compression != "" {
			c.Bridge.Compression = bridge.Compression
		}
		if bridge.CompressThreshold != 0 {
			c.Bridge.CompressThreshold = bridge.CompressThreshold
		}
		if bridge.MaxFrameSize != 0 {
			c.Bridge.MaxFrameSize = bridge.MaxFrameSize
		}
		if bridge.HandshakeTimeout != 0 {
			c.Bridge.HandshakeTimeout = bridge.HandshakeTimeout
		}
	}
	if log := overrides.Log; log != nil {
		if log.Level != "" {
			c.Log.Level = log.Level
		}
		if log.File != "" {
			c.Log.File = log.File
		}
	}
}

// Validate reports every problem in the configuration at once.
func (c *Config) Validate() error {
	var errs []error

	if c.Environment != Development && c.Environment != Production {
		errs = append(errs, fmt.Errorf("invalid environment: %q", c.Environment))
	}
	if c.Channel.AckTimeout < 0 {
		errs = append(errs, errors.New("channel.ack_timeout must not be negative"))
	}
	if c.Channel.Backlog <= 0 {
		errs = append(errs, errors.New("channel.backlog must be positive"))
	}
	if c.Liveness.PollInterval <= 0 {
		errs = append(errs, errors.New("liveness.poll_interval must be positive"))
	}
	if c.Bridge.Compression != "none" && c.Bridge.Compression != "zstd" {
		errs = append(errs, fmt.Errorf("bridge.compression must be none or zstd, got %q", c.Bridge.Compression))
	}
	if c.Bridge.CompressThreshold < 0 {
		errs = append(errs, errors.New("bridge.compress_threshold must not be negative"))
	}
	if c.Bridge.MaxFrameSize <= 0 {
		errs = append(errs, errors.New("bridge.max_frame_size must be positive"))
	}
	if c.Bridge.HandshakeTimeout <= 0 {
		errs = append(errs, errors.New("bridge.handshake_timeout must be positive"))
	}
	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// LogLevel parses Log.Level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return level, nil
}
