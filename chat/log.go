// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package chat

import "sync"

// Sender says who wrote a message, from the log owner's point of view.
type Sender int

const (
	FromMe Sender = iota
	FromPeer
)

func (s Sender) String() string {
	if s == FromMe {
		return "me"
	}
	return "peer"
}

// Message is one log entry.
type Message struct {
	// ID increases by one per entry within a log, starting at 0.
	ID   int
	Text string
	From Sender
}

// Log is an append-only message list, safe for concurrent use.
type Log struct {
	mu       sync.Mutex
	nextID   int
	messages []Message
}

// Append adds a message and returns it with its id.
func (l *Log) Append(text string, from Sender) Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	message := Message{ID: l.nextID, Text: text, From: from}
	l.nextID++
	l.messages = append(l.messages, message)
	return message
}

// Messages returns a copy of the log in arrival order.
func (l *Log) Messages() []Message {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Message(nil), l.messages...)
}

// Len returns the number of messages.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.messages)
}
