// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"log/slog"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/bidc/channel"
	"github.com/bureau-foundation/bidc/lib/config"
	"github.com/bureau-foundation/bidc/liveness"
)

// Globals are the flags every bidc command accepts.
type Globals struct {
	ConfigPath string
	Verbose    bool
	LogFile    string
}

// AddFlags registers the shared flags on flagSet.
func (g *Globals) AddFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&g.ConfigPath, "config", "", "configuration file (default $"+config.EnvironmentVariable+")")
	flagSet.BoolVarP(&g.Verbose, "verbose", "v", false, "log at debug level")
	flagSet.StringVar(&g.LogFile, "log-file", "", "append JSON logs to this file instead of stderr")
}

// Session is the resolved configuration and logger for one command run.
type Session struct {
	Config *config.Config
	Logger *slog.Logger

	closer func() error
}

// Close releases the log file, if one was opened.
func (s *Session) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}

// Open resolves the configuration and builds the logger. With
// fullScreen set and no log file, logging is discarded.
func (g *Globals) Open(fullScreen bool) (*Session, error) {
	cfg, err := config.Resolve(g.ConfigPath)
	if err != nil {
		return nil, err
	}

	level, err := cfg.LogLevel()
	if err != nil {
		return nil, err
	}
	if g.Verbose {
		level = slog.LevelDebug
	}

	logFile := g.LogFile
	if logFile == "" {
		logFile = cfg.Log.File
	}

	session := &Session{Config: cfg}
	switch {
	case logFile != "":
		logger, closer, err := NewFileLogger(logFile, level)
		if err != nil {
			return nil, err
		}
		session.Logger, session.closer = logger, closer
	case fullScreen:
		session.Logger = DiscardLogger()
	default:
		session.Logger = NewCommandLogger(level)
	}
	return session, nil
}

// ChannelConfig is the channel section of the configuration with the
// session logger attached.
func (s *Session) ChannelConfig() channel.Config {
	return channel.Config{
		Logger:     s.Logger,
		AckTimeout: s.Config.Channel.AckTimeout,
		Backlog:    s.Config.Channel.Backlog,
	}
}

// LivenessConfig is the liveness section of the configuration with the
// session logger attached.
func (s *Session) LivenessConfig() liveness.Config {
	return liveness.Config{
		Interval: s.Config.Liveness.PollInterval,
		Logger:   s.Logger,
	}
}
