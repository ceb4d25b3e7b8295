// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package demo

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bureau-foundation/bidc/channel"
	"github.com/bureau-foundation/bidc/chat"
	"github.com/bureau-foundation/bidc/liveness"
	"github.com/bureau-foundation/bidc/window"
)

// Pane identifies one of the four chat views.
type Pane int

const (
	FrameHost Pane = iota
	FrameGuest
	DialogHost
	DialogGuest

	paneCount
)

func (p Pane) String() string {
	switch p {
	case FrameHost:
		return "Iframe"
	case FrameGuest:
		return "Inside the iframe"
	case DialogHost:
		return "Dialog"
	case DialogGuest:
		return "Dialog window"
	default:
		return fmt.Sprintf("pane(%d)", int(p))
	}
}

// peerLabel is how a pane names messages from the other side.
func (p Pane) peerLabel() string {
	switch p {
	case FrameGuest:
		return "Parent"
	case DialogGuest:
		return "Main"
	default:
		return "Other"
	}
}

// ErrDialogClosed is returned when acting on the dialog while it is
// not open.
var ErrDialogClosed = errors.New("dialog is not open")

// Options configures a Demo.
type Options struct {
	Logger   *slog.Logger
	Channel  channel.Config
	Liveness liveness.Config
}

// Demo is the page, its iframe, and its optional popup dialog, each
// side running a chat session.
type Demo struct {
	logger   *slog.Logger
	chat     chat.Config
	liveness liveness.Config

	browser    *window.Browser
	page       *window.Window
	frameHost  *chat.Host
	frameGuest *chat.Guest
	dialogHost *chat.Host

	changes chan struct{}

	mu          sync.Mutex
	popup       *window.Window
	dialogGuest *chat.Guest
}

// New opens the page and its iframe and starts both iframe sessions.
// The dialog starts closed.
func New(options Options) (*Demo, error) {
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	d := &Demo{
		logger:   logger,
		liveness: options.Liveness,
		changes:  make(chan struct{}, 1),
	}
	d.chat = chat.Config{Logger: logger, Channel: options.Channel, OnChange: d.changed}
	if d.liveness.Logger == nil {
		d.liveness.Logger = logger
	}

	d.browser = window.NewBrowser(logger)
	page, err := d.browser.Open("page")
	if err != nil {
		d.browser.Close()
		return nil, err
	}
	d.page = page

	frame, err := page.Embed("iframe")
	if err != nil {
		d.browser.Close()
		return nil, err
	}

	d.frameHost = chat.NewHost(page, d.chat)
	if err := d.frameHost.Attach(frame); err != nil {
		d.browser.Close()
		return nil, err
	}
	d.frameGuest, err = chat.FrameGuest(frame, d.chat)
	if err != nil {
		d.Close()
		return nil, err
	}
	d.dialogHost = chat.NewHost(page, d.chat)
	return d, nil
}

func (d *Demo) changed() {
	select {
	case d.changes <- struct{}{}:
	default:
	}
}

// Changes receives a value after any session changes. Signals
// coalesce; re-read state after each one.
func (d *Demo) Changes() <-chan struct{} { return d.changes }

// DialogOpen reports whether the popup is open.
func (d *Demo) DialogOpen() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.popup != nil && !d.popup.Closed()
}

// OpenDialog opens the popup, attaches the dialog host to it, and
// starts the popup's guest session. A fresh window and channel are used
// every time. Opening an open dialog does nothing.
func (d *Demo) OpenDialog() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.popup != nil && !d.popup.Closed() {
		return nil
	}
	if d.dialogGuest != nil {
		d.dialogGuest.Close()
		d.dialogGuest = nil
	}

	popup, err := d.page.OpenPopup("dialog")
	if err != nil {
		return fmt.Errorf("opening dialog: %w", err)
	}
	if err := d.dialogHost.Attach(popup); err != nil {
		popup.Close()
		return err
	}
	if err := d.dialogHost.Watch(popup, d.liveness); err != nil {
		popup.Close()
		return err
	}
	guest, err := chat.PopupGuest(popup, d.chat)
	if err != nil {
		popup.Close()
		return err
	}
	d.popup, d.dialogGuest = popup, guest
	d.logger.Info("dialog opened", "window", string(popup.ID()))
	d.changed()
	return nil
}

// CloseDialog closes the popup window the way a user would. The dialog
// host notices on its next liveness poll.
func (d *Demo) CloseDialog() error {
	d.mu.Lock()
	popup, guest := d.popup, d.dialogGuest
	d.popup, d.dialogGuest = nil, nil
	d.mu.Unlock()

	if popup == nil || popup.Closed() {
		return ErrDialogClosed
	}
	guest.Close()
	popup.Close()
	d.logger.Info("dialog closed", "window", string(popup.ID()))
	d.changed()
	return nil
}

// Say sends text from the given pane.
func (d *Demo) Say(pane Pane, text string) error {
	var err error
	switch pane {
	case FrameHost:
		_, err = d.frameHost.Say(text)
	case FrameGuest:
		_, err = d.frameGuest.Say(text)
	case DialogHost:
		_, err = d.dialogHost.Say(text)
	case DialogGuest:
		d.mu.Lock()
		guest := d.dialogGuest
		d.mu.Unlock()
		if guest == nil {
			return ErrDialogClosed
		}
		_, err = guest.Say(text)
	default:
		return fmt.Errorf("unknown pane %d", int(pane))
	}
	return err
}

// PaneState is what a pane shows.
type PaneState struct {
	Title     string
	PeerLabel string

	// Available is false for the dialog panes while no dialog is
	// attached.
	Available bool
	Connected bool
	Messages  []chat.Message
}

// State returns the current view of pane.
func (d *Demo) State(pane Pane) PaneState {
	state := PaneState{Title: pane.String(), PeerLabel: pane.peerLabel()}
	switch pane {
	case FrameHost:
		state.Available = true
		state.Connected = d.frameHost.Connected()
		state.Messages = d.frameHost.Messages()
	case FrameGuest:
		state.Available = true
		state.Connected = d.frameGuest.Connected()
		state.Messages = d.frameGuest.Messages()
	case DialogHost:
		state.Available = d.dialogHost.Attached()
		state.Connected = d.dialogHost.Connected()
		state.Messages = d.dialogHost.Messages()
	case DialogGuest:
		d.mu.Lock()
		guest := d.dialogGuest
		open := d.popup != nil && !d.popup.Closed()
		d.mu.Unlock()
		if guest != nil {
			state.Available = open
			state.Connected = guest.Connected()
			state.Messages = guest.Messages()
		}
	}
	return state
}

// Close tears down every session and window.
func (d *Demo) Close() {
	d.mu.Lock()
	guest := d.dialogGuest
	d.dialogGuest, d.popup = nil, nil
	d.mu.Unlock()

	if guest != nil {
		guest.Close()
	}
	if d.dialogHost != nil {
		d.dialogHost.Detach()
	}
	if d.frameGuest != nil {
		d.frameGuest.Close()
	}
	if d.frameHost != nil {
		d.frameHost.Detach()
	}
	d.browser.Close()
}
