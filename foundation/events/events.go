// Package events fans node events out to the websocket clients watching
// the node. A client can ask for only the events starting with a set of
// prefixes, such as "viewer:" for new blocks or "state:" for the node
// state machine.
package events

import (
	"fmt"
	"strings"
	"sync"
)

// messageBuffer is the number of events held for a slow receiver before
// new events are dropped for it.
const messageBuffer = 100

// subscriber is a receiver and the event prefixes it wants.
type subscriber struct {
	ch       chan string
	prefixes []string
}

// wants reports if the event matches the subscriber's prefixes. A
// subscriber without prefixes wants every event.
func (s subscriber) wants(msg string) bool {
	if len(s.prefixes) == 0 {
		return true
	}

	for _, prefix := range s.prefixes {
		if strings.HasPrefix(msg, prefix) {
			return true
		}
	}

	return false
}

// Events maintains a mapping of unique id and subscribers so goroutines
// can register and receive events.
type Events struct {
	m  map[string]subscriber
	mu sync.RWMutex
}

// New constructs an events for registering and receiving events.
func New() *Events {
	return &Events{
		m: make(map[string]subscriber),
	}
}

// Shutdown closes and removes all channels that were provided by
// the call to Acquire.
func (evt *Events) Shutdown() {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	for id, sub := range evt.m {
		delete(evt.m, id)
		close(sub.ch)
	}
}

// Acquire takes a unique id and returns a channel that can be used to
// receive the events starting with any of the prefixes, or every event
// when no prefix is given.
func (evt *Events) Acquire(id string, prefixes ...string) chan string {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	if sub, exists := evt.m[id]; exists {
		return sub.ch
	}

	var keep []string
	for _, prefix := range prefixes {
		if prefix = strings.TrimSpace(prefix); prefix != "" {
			keep = append(keep, prefix)
		}
	}

	sub := subscriber{
		ch:       make(chan string, messageBuffer),
		prefixes: keep,
	}
	evt.m[id] = sub

	return sub.ch
}

// Release closes and removes the channel that was provided by the call to
// Acquire. Releasing after Shutdown returns an error the caller can ignore.
func (evt *Events) Release(id string) error {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	sub, exists := evt.m[id]
	if !exists {
		return fmt.Errorf("id %q does not exist", id)
	}

	delete(evt.m, id)
	close(sub.ch)
	return nil
}

// Count returns the number of subscribers.
func (evt *Events) Count() int {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	return len(evt.m)
}

// Send signals a message to every subscriber that wants it. Send will not
// block waiting for a receiver on any given channel.
func (evt *Events) Send(s string) {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	for _, sub := range evt.m {
		if !sub.wants(s) {
			continue
		}

		select {
		case sub.ch <- s:
		default:
		}
	}
}
