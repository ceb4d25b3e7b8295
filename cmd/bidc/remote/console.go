// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package remote

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/bureau-foundation/bidc/channel"
	"github.com/bureau-foundation/bidc/chat"
)

// talker is the part of a chat session the console drives.
type talker interface {
	Say(text string) (*channel.Call, error)
	Messages() []chat.Message
	Connected() bool
}

// console prints what a session receives and sends what the user types.
type console struct {
	out       io.Writer
	peerLabel string

	mu        sync.Mutex
	session   talker
	printed   int
	connected bool
}

func newConsole(out io.Writer, peerLabel string) *console {
	return &console{out: out, peerLabel: peerLabel}
}

func (c *console) attach(session talker) {
	c.mu.Lock()
	c.session = session
	c.printed = 0
	c.mu.Unlock()
	c.refresh()
}

// refresh prints connection changes and messages from the peer that
// have not been printed yet. Our own lines are already on screen.
func (c *console) refresh() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return
	}

	if connected := c.session.Connected(); connected != c.connected {
		c.connected = connected
		if connected {
			fmt.Fprintln(c.out, "* connected")
		} else {
			fmt.Fprintln(c.out, "* disconnected")
		}
	}

	messages := c.session.Messages()
	for _, message := range messages[min(c.printed, len(messages)):] {
		if message.From == chat.FromPeer {
			fmt.Fprintf(c.out, "%s: %s\n", c.peerLabel, message.Text)
		}
	}
	c.printed = len(messages)
}

// run sends each input line until in is exhausted or ctx is done.
func (c *console) run(ctx context.Context, in io.Reader) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return err
				default:
					return nil
				}
			}
			c.say(line)
		}
	}
}

func (c *console) say(line string) {
	c.mu.Lock()
	session := c.session
	c.mu.Unlock()
	if session == nil {
		fmt.Fprintln(c.out, "* no peer yet")
		return
	}

	_, err := session.Say(line)
	switch {
	case errors.Is(err, chat.ErrEmpty):
	case err != nil:
		fmt.Fprintf(c.out, "* not sent: %v\n", err)
	}
	// Skip our own echo when the next refresh prints.
	c.refresh()
}
