// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package window

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// ID identifies a window within a Browser.
type ID string

// Kind distinguishes how a window was created.
type Kind int

const (
	// Top is a window opened directly by the browser.
	Top Kind = iota
	// Frame is embedded in a parent window.
	Frame
	// Popup was opened by another window.
	Popup
)

func (k Kind) String() string {
	switch k {
	case Top:
		return "top"
	case Frame:
		return "frame"
	case Popup:
		return "popup"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Message is one delivered PostMessage call.
type Message struct {
	// Source is the id the sender declared.
	Source ID

	// Data is the receiver's own copy of the posted bytes.
	Data []byte
}

var (
	// ErrClosed is returned when posting to, listening on, or
	// scheduling work on a window that has been closed.
	ErrClosed = errors.New("window: closed")

	// ErrAlreadyListening is returned by Listen when another callback
	// already owns the source id.
	ErrAlreadyListening = errors.New("window: source already has a listener")
)

// Window is one execution context with its own event loop.
type Window struct {
	id      ID
	kind    Kind
	opener  *Window
	parent  *Window
	browser *Browser
	logger  *slog.Logger

	mu        sync.Mutex
	queue     []task
	listeners map[ID]*listener
	frames    []*Window
	closed    bool

	// wake has capacity 1; a pending signal is enough to make the loop
	// re-check the queue.
	wake chan struct{}
	done chan struct{}
}

// task is either a delivered message or a scheduled function.
type task struct {
	message *Message
	run     func()
}

type listener struct {
	callback func(Message)
}

func newWindow(browser *Browser, id ID, kind Kind, opener, parent *Window) *Window {
	w := &Window{
		id:        id,
		kind:      kind,
		opener:    opener,
		parent:    parent,
		browser:   browser,
		logger:    browser.logger.With("window", string(id), "kind", kind.String()),
		listeners: make(map[ID]*listener),
		wake:      make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
	go w.loop()
	return w
}

// ID returns the window's id. A nil window has the empty id.
func (w *Window) ID() ID {
	if w == nil {
		return ""
	}
	return w.id
}

// Kind reports how the window was created. A nil window is Top.
func (w *Window) Kind() Kind {
	if w == nil {
		return Top
	}
	return w.kind
}

// Opener returns the window that opened this popup, or nil.
func (w *Window) Opener() *Window {
	if w == nil {
		return nil
	}
	return w.opener
}

// Parent returns the window this frame is embedded in, or nil.
func (w *Window) Parent() *Window {
	if w == nil {
		return nil
	}
	return w.parent
}

// Frames returns the open frames embedded in w.
func (w *Window) Frames() []*Window {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	frames := make([]*Window, 0, len(w.frames))
	for _, frame := range w.frames {
		if !frame.Closed() {
			frames = append(frames, frame)
		}
	}
	return frames
}

// Browser returns the browser that owns w.
func (w *Window) Browser() *Browser { return w.browser }

// Logger returns w's logger, scoped with the window id.
func (w *Window) Logger() *slog.Logger { return w.logger }

// PostMessage queues data for delivery to w as coming from source. The
// data is copied before PostMessage returns. Messages from one source
// are delivered in the order they were posted.
func (w *Window) PostMessage(source ID, data []byte) error {
	if w == nil {
		return ErrClosed
	}
	message := &Message{Source: source, Data: append([]byte(nil), data...)}
	return w.enqueue(task{message: message})
}

// Do schedules fn to run on w's event loop after everything already
// queued.
func (w *Window) Do(fn func()) error {
	if w == nil {
		return ErrClosed
	}
	return w.enqueue(task{run: fn})
}

func (w *Window) enqueue(next task) error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrClosed
	}
	w.queue = append(w.queue, next)
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}
	return nil
}

// Listen makes callback the receiver of every message whose declared
// source is source. The callback runs on w's event loop. The returned
// cancel function removes the registration; calling it more than once
// is harmless, and it never removes a later registration for the same
// source.
func (w *Window) Listen(source ID, callback func(Message)) (cancel func(), err error) {
	if w == nil {
		return nil, ErrClosed
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, ErrClosed
	}
	if _, exists := w.listeners[source]; exists {
		return nil, fmt.Errorf("%w: %s on %s", ErrAlreadyListening, source, w.id)
	}
	registration := &listener{callback: callback}
	w.listeners[source] = registration

	return func() {
		w.mu.Lock()
		defer w.mu.Unlock()
		if w.listeners[source] == registration {
			delete(w.listeners, source)
		}
	}, nil
}

// Listening reports whether a listener is registered for source.
func (w *Window) Listening(source ID) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	_, exists := w.listeners[source]
	return exists
}

// Closed reports whether w has been closed. A nil window is closed.
func (w *Window) Closed() bool {
	if w == nil {
		return true
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

// Done is closed once w's event loop has exited.
func (w *Window) Done() <-chan struct{} { return w.done }

// Close tears w down: queued messages are discarded, listeners are
// dropped, later posts fail with ErrClosed, and embedded frames are
// closed too. Close does not wait for the event loop to exit (it may be
// called from the loop itself); use Done for that.
func (w *Window) Close() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	w.queue = nil
	w.listeners = make(map[ID]*listener)
	frames := w.frames
	w.frames = nil
	w.mu.Unlock()

	select {
	case w.wake <- struct{}{}:
	default:
	}

	for _, frame := range frames {
		frame.Close()
	}
	w.browser.forget(w)
	w.logger.Debug("window closed")
}

func (w *Window) loop() {
	defer close(w.done)
	for {
		w.mu.Lock()
		for len(w.queue) == 0 && !w.closed {
			w.mu.Unlock()
			<-w.wake
			w.mu.Lock()
		}
		if w.closed {
			w.mu.Unlock()
			return
		}
		next := w.queue[0]
		w.queue[0] = task{}
		w.queue = w.queue[1:]

		var callback func(Message)
		if next.message != nil {
			if registration := w.listeners[next.message.Source]; registration != nil {
				callback = registration.callback
			}
		}
		w.mu.Unlock()

		switch {
		case next.run != nil:
			w.safely(next.run)
		case callback != nil:
			message := *next.message
			w.safely(func() { callback(message) })
		default:
			w.logger.Debug("dropping message with no listener",
				"source", string(next.message.Source),
				"bytes", len(next.message.Data),
			)
		}
	}
}

// safely runs fn, logging instead of crashing if it panics, so one bad
// callback does not take the whole window down.
func (w *Window) safely(fn func()) {
	defer func() {
		if recovered := recover(); recovered != nil {
			w.logger.Error("panic on window event loop", "panic", fmt.Sprint(recovered))
		}
	}()
	fn()
}
