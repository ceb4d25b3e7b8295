// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package remote

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bureau-foundation/bidc/bridge"
	"github.com/bureau-foundation/bidc/channel"
	"github.com/bureau-foundation/bidc/chat"
	"github.com/bureau-foundation/bidc/lib/testutil"
	"github.com/bureau-foundation/bidc/liveness"
	"github.com/bureau-foundation/bidc/window"
)

const waitTimeout = 5 * time.Second

// fakeTalker records what the console sends.
type fakeTalker struct {
	mu        sync.Mutex
	log       chat.Log
	said      []string
	connected bool
}

func (f *fakeTalker) Say(text string) (*channel.Call, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, chat.ErrEmpty
	}
	f.mu.Lock()
	f.said = append(f.said, text)
	f.mu.Unlock()
	f.log.Append(text, chat.FromMe)
	return nil, nil
}

func (f *fakeTalker) Messages() []chat.Message { return f.log.Messages() }

func (f *fakeTalker) Connected() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.connected
}

// syncBuffer is a bytes.Buffer safe for the console and the test to
// share.
type syncBuffer struct {
	mu     sync.Mutex
	buffer bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buffer.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buffer.String()
}

func TestConsoleSendsLinesAndPrintsPeerMessages(t *testing.T) {
	var out syncBuffer
	session := &fakeTalker{}
	c := newConsole(&out, "Host")
	c.attach(session)

	if err := c.run(context.Background(), strings.NewReader("hello\n   \nsecond line\n")); err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(session.said) != 2 || session.said[0] != "hello" || session.said[1] != "second line" {
		t.Errorf("said = %q", session.said)
	}

	session.log.Append("welcome", chat.FromPeer)
	session.mu.Lock()
	session.connected = true
	session.mu.Unlock()
	c.refresh()

	output := out.String()
	if !strings.Contains(output, "* connected") || !strings.Contains(output, "Host: welcome") {
		t.Errorf("output = %q", output)
	}
	if strings.Contains(output, "hello") {
		t.Errorf("own lines were echoed: %q", output)
	}
}

func TestConsoleWithoutPeer(t *testing.T) {
	var out syncBuffer
	c := newConsole(&out, "Guest")
	if err := c.run(context.Background(), strings.NewReader("anyone?\n")); err != nil {
		t.Fatalf("run: %v", err)
	}
	if !strings.Contains(out.String(), "no peer yet") {
		t.Errorf("output = %q", out.String())
	}
}

func TestConsoleStopsOnCancel(t *testing.T) {
	c := newConsole(io.Discard, "Host")
	reader, writer := io.Pipe()
	defer writer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.run(ctx, reader) }()
	cancel()
	if err := testutil.RequireReceive(t, done, waitTimeout); err != nil {
		t.Errorf("run after cancel: %v", err)
	}
}

// chatHost is what serve runs: a chat host behind a bridge server on a
// Unix socket.
type chatHost struct {
	host    *chat.Host
	out     *syncBuffer
	changed chan struct{}
	socket  string
}

func startChatHost(t *testing.T, logger *slog.Logger) *chatHost {
	t.Helper()
	h := &chatHost{
		out:     &syncBuffer{},
		changed: make(chan struct{}, 1),
		socket:  "unix:" + filepath.Join(testutil.SocketDir(t), "chat.sock"),
	}

	browser := window.NewBrowser(logger)
	t.Cleanup(browser.Close)
	local, err := browser.Open("host")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	out := newConsole(h.out, "Guest")
	h.host = chat.NewHost(local, chat.Config{Logger: logger, OnChange: func() {
		out.refresh()
		notify(h.changed)
	}})
	t.Cleanup(h.host.Detach)
	out.attach(h.host)

	peers := newPeerSlot(h.host, local, liveness.Config{Logger: logger}, logger)
	server := &bridge.Server{
		Address: h.socket,
		Local:   local,
		Config:  bridge.Config{Logger: logger},
		Handle:  peers.accept,
	}
	if err := server.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(server.Stop)
	return h
}

// dialGuest does what dial does: connect, then start the guest at once.
func dialGuest(t *testing.T, socket, name string, logger *slog.Logger) (*chat.Guest, *bridge.Link, chan struct{}) {
	t.Helper()
	browser := window.NewBrowser(logger)
	t.Cleanup(browser.Close)
	local, err := browser.Open(name)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()
	link, err := bridge.Dial(ctx, socket, local, bridge.Config{Logger: logger})
	if err != nil {
		t.Fatalf("Dial: %v", err)
	}
	t.Cleanup(func() { link.Close() })

	changed := make(chan struct{}, 1)
	guest, err := chat.NewGuest(local, link.Remote(), chat.Config{Logger: logger, OnChange: func() { notify(changed) }})
	if err != nil {
		t.Fatalf("NewGuest: %v", err)
	}
	t.Cleanup(guest.Close)
	return guest, link, changed
}

func notify(changed chan struct{}) {
	select {
	case changed <- struct{}{}:
	default:
	}
}

func waitConnected(t *testing.T, guest *chat.Guest, changed <-chan struct{}) {
	t.Helper()
	for !guest.Connected() {
		testutil.RequireReceive(t, changed, waitTimeout, "guest never connected")
	}
}

func hostHas(host *chat.Host, text string) bool {
	for _, message := range host.Messages() {
		if message.Text == text {
			return true
		}
	}
	return false
}

// TestServeDialChat joins a chat host and guest in separate browsers
// over a Unix socket, the way serve and dial do.
func TestServeDialChat(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := startChatHost(t, logger)

	guest, _, guestChanged := dialGuest(t, h.socket, "guest", logger)
	waitConnected(t, guest, guestChanged)

	guestConsole := newConsole(io.Discard, "Host")
	guestConsole.attach(guest)
	if err := guestConsole.run(context.Background(), strings.NewReader("hi from afar\n")); err != nil {
		t.Fatalf("run: %v", err)
	}

	for !strings.Contains(h.out.String(), "Guest: hi from afar") {
		testutil.RequireReceive(t, h.changed, waitTimeout, "host output so far: %q", h.out.String())
	}
	if !strings.Contains(h.out.String(), "* connected") {
		t.Errorf("host never reported the guest connected: %q", h.out.String())
	}
}

// TestNewPeerClosesReplacedLink has two dialers declare the same window
// id. The first must be cut off rather than share the second's channel.
func TestNewPeerClosesReplacedLink(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := startChatHost(t, logger)

	first, firstLink, firstChanged := dialGuest(t, h.socket, "guest", logger)
	waitConnected(t, first, firstChanged)

	second, secondLink, secondChanged := dialGuest(t, h.socket, "guest", logger)
	waitConnected(t, second, secondChanged)

	testutil.RequireClosed(t, firstLink.Done(), waitTimeout, "replaced link stayed open")
	if secondLink.Closed() {
		t.Fatal("current link closed")
	}

	call, err := first.Say("from the replaced peer")
	if err != nil {
		t.Fatalf("Say: %v", err)
	}
	testutil.RequireClosed(t, call.Done(), waitTimeout, "send over the replaced link never completed")
	if !errors.Is(call.Err(), channel.ErrSendFailed) {
		t.Errorf("replaced peer's send: err = %v, want ErrSendFailed", call.Err())
	}

	if _, err := second.Say("from the current peer"); err != nil {
		t.Fatalf("Say: %v", err)
	}
	for !hostHas(h.host, "from the current peer") {
		testutil.RequireReceive(t, h.changed, waitTimeout, "host never got the current peer's message")
	}
	if hostHas(h.host, "from the replaced peer") {
		t.Errorf("host log has the replaced peer's message: %+v", h.host.Messages())
	}
}
