// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package remote

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/bidc/bridge"
	"github.com/bureau-foundation/bidc/chat"
	"github.com/bureau-foundation/bidc/cmd/bidc/cli"
	"github.com/bureau-foundation/bidc/window"
)

// ServeCommand returns the "serve" command.
func ServeCommand() *cli.Command {
	var (
		globals    cli.Globals
		listen     string
		windowName string
	)
	return &cli.Command{
		Name:    "serve",
		Summary: "Host a line chat for a window in another process",
		Description: `Listen for a bridge link and host a chat with the window that connects.

A new connection replaces the previous peer and closes its link. When the
peer goes away the chat reports it as disconnected and waits for the next
one.`,
		Examples: []cli.Example{
			{Description: "Serve on a Unix socket", Command: "bidc serve --listen unix:/tmp/bidc.sock"},
			{Description: "Serve on loopback TCP", Command: "bidc serve --listen tcp:127.0.0.1:7400"},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("serve", pflag.ContinueOnError)
			globals.AddFlags(flagSet)
			flagSet.StringVar(&listen, "listen", "", "address to listen on (unix:<path> or tcp:<host:port>)")
			flagSet.StringVar(&windowName, "window", "host", "id of the local window")
			return flagSet
		},
		Run: func(args []string) error {
			if listen == "" {
				return errors.New("--listen is required")
			}
			session, err := globals.Open(false)
			if err != nil {
				return err
			}
			defer session.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, session, listen, windowName)
		},
	}
}

func serve(ctx context.Context, session *cli.Session, address, windowName string) error {
	linkConfig, err := bridge.FromConfig(session.Config.Bridge, session.Logger)
	if err != nil {
		return err
	}

	browser := window.NewBrowser(session.Logger)
	defer browser.Close()
	local, err := browser.Open(windowName)
	if err != nil {
		return err
	}

	out := newConsole(os.Stdout, "Guest")
	host := chat.NewHost(local, chat.Config{
		Logger:   session.Logger,
		Channel:  session.ChannelConfig(),
		OnChange: out.refresh,
	})
	defer host.Detach()
	out.attach(host)

	peers := newPeerSlot(host, local, session.LivenessConfig(), session.Logger)
	server := &bridge.Server{
		Address: address,
		Local:   local,
		Config:  linkConfig,
		Handle:  peers.accept,
	}
	if err := server.Start(ctx); err != nil {
		return err
	}
	defer server.Stop()

	return out.run(ctx, os.Stdin)
}

// DialCommand returns the "dial" command.
func DialCommand() *cli.Command {
	var (
		globals    cli.Globals
		connect    string
		windowName string
	)
	return &cli.Command{
		Name:    "dial",
		Summary: "Join a line chat hosted by another process",
		Description: `Open a bridge link to "bidc serve" and chat as its guest.

The command exits when stdin ends or the host closes the link.`,
		Examples: []cli.Example{
			{Description: "Join over a Unix socket", Command: "bidc dial --connect unix:/tmp/bidc.sock"},
		},
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("dial", pflag.ContinueOnError)
			globals.AddFlags(flagSet)
			flagSet.StringVar(&connect, "connect", "", "address of the serving process")
			flagSet.StringVar(&windowName, "window", "guest", "id of the local window")
			return flagSet
		},
		Run: func(args []string) error {
			if connect == "" {
				return errors.New("--connect is required")
			}
			session, err := globals.Open(false)
			if err != nil {
				return err
			}
			defer session.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return dial(ctx, session, connect, windowName)
		},
	}
}

func dial(ctx context.Context, session *cli.Session, address, windowName string) error {
	linkConfig, err := bridge.FromConfig(session.Config.Bridge, session.Logger)
	if err != nil {
		return err
	}

	browser := window.NewBrowser(session.Logger)
	defer browser.Close()
	local, err := browser.Open(windowName)
	if err != nil {
		return err
	}

	link, err := bridge.Dial(ctx, address, local, linkConfig)
	if err != nil {
		return err
	}
	defer link.Close()

	out := newConsole(os.Stdout, "Host")
	guest, err := chat.NewGuest(local, link.Remote(), chat.Config{
		Logger:   session.Logger,
		Channel:  session.ChannelConfig(),
		OnChange: out.refresh,
	})
	if err != nil {
		return err
	}
	defer guest.Close()
	out.attach(guest)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-link.Done():
			session.Logger.Info("host closed the link")
			cancel()
		case <-ctx.Done():
		}
	}()
	return out.run(ctx, os.Stdin)
}
