/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package events

import "sync"

// EventType enumerates event categories.
type EventType string

const (
	// Live playback events, forwarded to the preview page.
	EventPhaseChange EventType = "player.phase"
	EventClipCommand EventType = "player.clip"
	EventCaption     EventType = "player.caption"
	EventStopped     EventType = "player.stopped"

	// Render lifecycle events.
	EventRenderStarted  EventType = "render.started"
	EventRenderProgress EventType = "render.progress"
	EventRenderFinished EventType = "render.finished"
	EventRenderFailed   EventType = "render.failed"

	// Publish events.
	EventPublished EventType = "publish.completed"
)

// Payload generic event payload.
type Payload map[string]any

// Subscriber receives event payloads.
type Subscriber chan Payload

// Bus implements a simple in-process pubsub.
type Bus struct {
	mu   sync.RWMutex
	subs map[EventType][]Subscriber
}

// NewBus creates an event bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[EventType][]Subscriber)}
}

// Subscribe registers a subscriber for event type.
func (b *Bus) Subscribe(eventType EventType) Subscriber {
	ch := make(Subscriber, 8)
	b.mu.Lock()
	b.subs[eventType] = append(b.subs[eventType], ch)
	b.mu.Unlock()
	return ch
}

// Publish sends payload to subscribers. Slow subscribers drop events
// rather than blocking the publisher. Sends happen with the read lock
// held so Unsubscribe cannot close a channel mid-send; the sends are
// non-blocking, so holding the lock never stalls on a full subscriber.
func (b *Bus) Publish(eventType EventType, payload Payload) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, sub := range b.subs[eventType] {
		select {
		case sub <- payload:
		default:
		}
	}
}

// Unsubscribe removes the subscriber.
func (b *Bus) Unsubscribe(eventType EventType, sub Subscriber) {
	b.mu.Lock()
	defer b.mu.Unlock()
	subs := b.subs[eventType]
	for i, candidate := range subs {
		if candidate == sub {
			subs = append(subs[:i], subs[i+1:]...)
			break
		}
	}
	b.subs[eventType] = subs
	close(sub)
}
