/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package events

import (
	"sync"
	"testing"
	"time"
)

func TestPublishDelivers(t *testing.T) {
	b := NewBus()
	sub := b.Subscribe(EventCaption)

	b.Publish(EventCaption, Payload{"text": "hello"})
	select {
	case p := <-sub:
		if p["text"] != "hello" {
			t.Errorf("payload = %v", p)
		}
	case <-time.After(time.Second):
		t.Fatal("no delivery")
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	b := NewBus()
	sub := b.Subscribe(EventStopped)
	b.Unsubscribe(EventStopped, sub)

	if _, ok := <-sub; ok {
		t.Error("channel still open after unsubscribe")
	}
	// Publishing after unsubscribe must not reach the removed channel.
	b.Publish(EventStopped, Payload{})
}

func TestPublishDuringChurn(t *testing.T) {
	b := NewBus()
	done := make(chan struct{})
	var wg sync.WaitGroup

	// Publishers hammer the bus while subscribers come and go; a send
	// must never land on a closed channel.
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-done:
					return
				default:
					b.Publish(EventClipCommand, Payload{"action": "play"})
				}
			}
		}()
	}

	for i := 0; i < 500; i++ {
		sub := b.Subscribe(EventClipCommand)
		// Drain a little so senders hit both full and empty buffers.
		select {
		case <-sub:
		default:
		}
		b.Unsubscribe(EventClipCommand, sub)
	}

	close(done)
	wg.Wait()
}

func TestSlowSubscriberDoesNotBlock(t *testing.T) {
	b := NewBus()
	b.Subscribe(EventRenderProgress) // never drained

	finished := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			b.Publish(EventRenderProgress, Payload{"frame": i})
		}
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
}
