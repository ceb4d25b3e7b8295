// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package window

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// ErrDuplicateID is returned when a window is opened with an id that
// an open window already uses.
var ErrDuplicateID = errors.New("window: id already in use")

// Browser owns a set of windows. Window ids are unique among the open
// windows of one browser.
type Browser struct {
	logger *slog.Logger

	mu      sync.Mutex
	windows map[ID]*Window
}

// NewBrowser creates an empty browser. A nil logger uses slog.Default().
func NewBrowser(logger *slog.Logger) *Browser {
	if logger == nil {
		logger = slog.Default()
	}
	return &Browser{
		logger:  logger,
		windows: make(map[ID]*Window),
	}
}

// Open creates a top-level window. An empty name gets a random id.
func (b *Browser) Open(name string) (*Window, error) {
	return b.create(name, Top, nil, nil)
}

// OpenPopup opens a popup whose opener is w.
func (w *Window) OpenPopup(name string) (*Window, error) {
	if w.Closed() {
		return nil, ErrClosed
	}
	return w.browser.create(name, Popup, w, nil)
}

// Embed creates a frame inside w. The frame is closed when w is.
func (w *Window) Embed(name string) (*Window, error) {
	frame, err := w.browser.create(name, Frame, nil, w)
	if err != nil {
		return nil, err
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		frame.Close()
		return nil, ErrClosed
	}
	w.frames = append(w.frames, frame)
	w.mu.Unlock()
	return frame, nil
}

// Lookup returns the open window with the given id.
func (b *Browser) Lookup(id ID) (*Window, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	w, ok := b.windows[id]
	return w, ok
}

// Windows returns the number of open windows.
func (b *Browser) Windows() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.windows)
}

// Close closes every open window.
func (b *Browser) Close() {
	b.mu.Lock()
	windows := make([]*Window, 0, len(b.windows))
	for _, w := range b.windows {
		windows = append(windows, w)
	}
	b.mu.Unlock()

	for _, w := range windows {
		w.Close()
	}
}

func (b *Browser) create(name string, kind Kind, opener, parent *Window) (*Window, error) {
	id := ID(name)
	if id == "" {
		id = ID(uuid.NewString())
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.windows[id]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateID, id)
	}
	w := newWindow(b, id, kind, opener, parent)
	b.windows[id] = w
	w.logger.Debug("window opened")
	return w, nil
}

func (b *Browser) forget(w *Window) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.windows[w.id] == w {
		delete(b.windows, w.id)
	}
}
