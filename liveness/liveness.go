// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package liveness

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/bureau-foundation/bidc/lib/clock"
	"github.com/bureau-foundation/bidc/transport"
)

// DefaultInterval is the polling period when Config.Interval is zero.
const DefaultInterval = 500 * time.Millisecond

// Config controls a Watcher.
type Config struct {
	// Interval between Closed checks. Zero means DefaultInterval.
	Interval time.Duration

	// Clock drives polling. Nil uses clock.Real().
	Clock clock.Clock

	// Logger records the transition. Nil uses slog.Default().
	Logger *slog.Logger

	// OnClosed runs once, on the watcher goroutine, when the peer is
	// first seen closed. It is not called if Stop wins the race.
	OnClosed func()
}

// Watcher polls one peer until it closes or the watcher is stopped.
type Watcher struct {
	peer     transport.Liveness
	interval time.Duration
	clock    clock.Clock
	logger   *slog.Logger
	onClosed func()

	stop     chan struct{}
	gone     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// Watch starts polling peer. The first check happens one interval
// after Watch returns.
func Watch(peer transport.Liveness, config Config) (*Watcher, error) {
	if peer == nil {
		return nil, errors.New("liveness: nil peer")
	}
	if config.Interval < 0 {
		return nil, errors.New("liveness: negative interval")
	}
	if config.Interval == 0 {
		config.Interval = DefaultInterval
	}
	if config.Clock == nil {
		config.Clock = clock.Real()
	}
	if config.Logger == nil {
		config.Logger = slog.Default()
	}

	watcher := &Watcher{
		peer:     peer,
		interval: config.Interval,
		clock:    config.Clock,
		logger:   config.Logger,
		onClosed: config.OnClosed,
		stop:     make(chan struct{}),
		gone:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	ticker := watcher.clock.NewTicker(watcher.interval)
	go watcher.run(ticker)
	return watcher, nil
}

func (w *Watcher) run(ticker *clock.Ticker) {
	defer close(w.done)
	defer ticker.Stop()

	for {
		select {
		case <-w.stop:
			return
		case <-ticker.C:
			if !w.peer.Closed() {
				continue
			}
			w.logger.Info("peer closed", "interval", w.interval)
			close(w.gone)
			if w.onClosed != nil {
				w.onClosed()
			}
			return
		}
	}
}

// Gone is closed when the peer has been observed closed.
func (w *Watcher) Gone() <-chan struct{} { return w.gone }

// Done is closed when the watcher goroutine has exited.
func (w *Watcher) Done() <-chan struct{} { return w.done }

// Stop ends polling and waits for the watcher goroutine to exit. Stop
// must not be called from OnClosed. Calling Stop more than once is
// harmless.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() { close(w.stop) })
	<-w.done
}
