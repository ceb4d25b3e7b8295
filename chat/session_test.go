// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chat

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/bureau-foundation/bidc/lib/clock"
	"github.com/bureau-foundation/bidc/lib/testutil"
	"github.com/bureau-foundation/bidc/liveness"
	"github.com/bureau-foundation/bidc/window"
)

const waitTimeout = 5 * time.Second

func quietLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

// changes returns a config whose OnChange signals the returned channel.
func changes() (Config, <-chan struct{}) {
	changed := make(chan struct{}, 64)
	return Config{
		Logger:   quietLogger(),
		OnChange: func() { changed <- struct{}{} },
	}, changed
}

func newPage(t *testing.T) *window.Window {
	t.Helper()
	browser := window.NewBrowser(quietLogger())
	t.Cleanup(browser.Close)
	page, err := browser.Open("page")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return page
}

// waitFor polls condition after every change notification.
func waitFor(t *testing.T, changed <-chan struct{}, condition func() bool, what string) {
	t.Helper()
	for !condition() {
		testutil.RequireReceive(t, changed, waitTimeout, "waiting for %s", what)
	}
}

func TestFrameChatConnectsAndExchanges(t *testing.T) {
	page := newPage(t)
	frame, err := page.Embed("frame")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}

	hostConfig, hostChanged := changes()
	host := NewHost(page, hostConfig)
	if err := host.Attach(frame); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	defer host.Detach()

	guestConfig, guestChanged := changes()
	guest, err := FrameGuest(frame, guestConfig)
	if err != nil {
		t.Fatalf("FrameGuest: %v", err)
	}
	defer guest.Close()

	waitFor(t, hostChanged, host.Connected, "host connected")
	waitFor(t, guestChanged, guest.Connected, "guest connected")

	call, err := host.Say("  hello frame  ")
	if err != nil {
		t.Fatalf("host Say: %v", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()
	reply, err := call.Wait(ctx)
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	var ack Ack
	if err := reply.Decode(&ack); err != nil || !ack.OK {
		t.Errorf("ack = %+v, %v; want ok", ack, err)
	}

	waitFor(t, guestChanged, func() bool { return len(guest.Messages()) == 1 }, "guest message")
	got := guest.Messages()[0]
	if got.Text != "hello frame" || got.From != FromPeer {
		t.Errorf("guest log = %+v", got)
	}
	if mine := host.Messages(); len(mine) != 1 || mine[0].From != FromMe || mine[0].Text != "hello frame" {
		t.Errorf("host log = %+v", mine)
	}

	if _, err := guest.Say("hi page"); err != nil {
		t.Fatalf("guest Say: %v", err)
	}
	waitFor(t, hostChanged, func() bool { return len(host.Messages()) == 2 }, "host reply")
	if last := host.Messages()[1]; last.ID != 1 || last.Text != "hi page" || last.From != FromPeer {
		t.Errorf("host log entry = %+v", last)
	}
}

func TestSayRejectsBlankInput(t *testing.T) {
	page := newPage(t)
	frame, err := page.Embed("frame")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	host := NewHost(page, Config{Logger: quietLogger()})
	if err := host.Attach(frame); err != nil {
		t.Fatalf("Attach: %v", err)
	}
	defer host.Detach()

	for _, input := range []string{"", "   ", "\t\n"} {
		if _, err := host.Say(input); !errors.Is(err, ErrEmpty) {
			t.Errorf("Say(%q) error = %v, want ErrEmpty", input, err)
		}
	}
	if n := len(host.Messages()); n != 0 {
		t.Errorf("blank input logged %d messages", n)
	}
}

func TestSayWithoutPeer(t *testing.T) {
	host := NewHost(newPage(t), Config{Logger: quietLogger()})
	if _, err := host.Say("anyone?"); !errors.Is(err, ErrDetached) {
		t.Errorf("error = %v, want ErrDetached", err)
	}
	if host.Attached() {
		t.Error("new host reports attached")
	}
}

func TestGuestRequiresPeer(t *testing.T) {
	page := newPage(t)
	if _, err := FrameGuest(page, Config{Logger: quietLogger()}); !errors.Is(err, ErrNoPeer) {
		t.Errorf("FrameGuest(top) error = %v, want ErrNoPeer", err)
	}
	if _, err := PopupGuest(page, Config{Logger: quietLogger()}); !errors.Is(err, ErrNoPeer) {
		t.Errorf("PopupGuest(top) error = %v, want ErrNoPeer", err)
	}

	var missing *window.Window
	if _, err := FrameGuest(missing, Config{Logger: quietLogger()}); !errors.Is(err, ErrNoPeer) {
		t.Errorf("FrameGuest(nil) error = %v, want ErrNoPeer", err)
	}
	if _, err := PopupGuest(missing, Config{Logger: quietLogger()}); !errors.Is(err, ErrNoPeer) {
		t.Errorf("PopupGuest(nil) error = %v, want ErrNoPeer", err)
	}
}

func TestDialogCloseDetachesAndReopenReattaches(t *testing.T) {
	page := newPage(t)
	fake := clock.Fake(time.Unix(1_700_000_000, 0))

	hostConfig, hostChanged := changes()
	host := NewHost(page, hostConfig)
	defer host.Detach()

	open := func() *window.Window {
		t.Helper()
		popup, err := page.OpenPopup("dialog")
		if err != nil {
			t.Fatalf("OpenPopup: %v", err)
		}
		if err := host.Attach(popup); err != nil {
			t.Fatalf("Attach: %v", err)
		}
		if err := host.Watch(popup, liveness.Config{Clock: fake, Interval: 500 * time.Millisecond}); err != nil {
			t.Fatalf("Watch: %v", err)
		}
		guest, err := PopupGuest(popup, Config{Logger: quietLogger()})
		if err != nil {
			t.Fatalf("PopupGuest: %v", err)
		}
		t.Cleanup(guest.Close)
		waitFor(t, hostChanged, host.Connected, "dialog connected")
		return popup
	}

	first := open()
	if _, err := host.Say("before close"); err != nil {
		t.Fatalf("Say: %v", err)
	}

	first.Close()
	fake.WaitForTimers(1)
	fake.Advance(500 * time.Millisecond)
	waitFor(t, hostChanged, func() bool { return !host.Attached() }, "detach after close")
	if host.Connected() {
		t.Error("host still connected after the dialog closed")
	}
	if _, err := host.Say("into the void"); !errors.Is(err, ErrDetached) {
		t.Errorf("Say after close error = %v, want ErrDetached", err)
	}

	second := open()
	if second == first {
		t.Fatal("reopening returned the closed window")
	}
	if !host.Attached() || !host.Connected() {
		t.Error("host not attached and connected after reopen")
	}
	if n := len(host.Messages()); n != 1 {
		t.Errorf("log has %d messages after reopen, want the earlier one kept", n)
	}
}

func TestWatchRequiresAttachment(t *testing.T) {
	page := newPage(t)
	host := NewHost(page, Config{Logger: quietLogger()})
	if err := host.Watch(page, liveness.Config{}); !errors.Is(err, ErrDetached) {
		t.Errorf("error = %v, want ErrDetached", err)
	}
}
