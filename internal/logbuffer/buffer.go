/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package logbuffer keeps a bounded in-memory tail of the process log
// so the preview server can expose recent activity without touching
// disk.
package logbuffer

import (
	"encoding/json"
	"sync"
	"time"
)

// Entry is one captured log line.
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`
	Component string    `json:"component,omitempty"`
	Message   string    `json:"message"`
}

// Buffer is a thread-safe ring of log entries.
type Buffer struct {
	mu       sync.RWMutex
	entries  []Entry
	capacity int
	head     int
	count    int
}

// New creates a buffer holding up to capacity entries.
func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = 1000
	}
	return &Buffer{
		entries:  make([]Entry, capacity),
		capacity: capacity,
	}
}

// Add appends an entry, evicting the oldest when full.
func (b *Buffer) Add(e Entry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries[b.head] = e
	b.head = (b.head + 1) % b.capacity
	if b.count < b.capacity {
		b.count++
	}
}

// Recent returns up to n entries, newest first. n <= 0 returns all.
func (b *Buffer) Recent(n int) []Entry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if n <= 0 || n > b.count {
		n = b.count
	}
	out := make([]Entry, n)
	for i := 0; i < n; i++ {
		idx := (b.head - 1 - i + b.capacity*2) % b.capacity
		out[i] = b.entries[idx]
	}
	return out
}

// Len returns the number of buffered entries.
func (b *Buffer) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.count
}

// Write implements io.Writer for use as a zerolog output. Each write is
// one JSON log line; lines that fail to parse are kept raw. The time
// field arrives as a unix timestamp, integer or fractional.
func (b *Buffer) Write(p []byte) (int, error) {
	var raw struct {
		Level     string      `json:"level"`
		Component string      `json:"component"`
		Message   string      `json:"message"`
		Time      json.Number `json:"time"`
	}
	e := Entry{Timestamp: time.Now()}
	if err := json.Unmarshal(p, &raw); err == nil {
		e.Level = raw.Level
		e.Component = raw.Component
		e.Message = raw.Message
		if ts, ok := parseUnixTime(raw.Time); ok {
			e.Timestamp = ts
		}
	} else {
		e.Message = string(p)
	}
	b.Add(e)
	return len(p), nil
}

func parseUnixTime(n json.Number) (time.Time, bool) {
	if n == "" {
		return time.Time{}, false
	}
	if sec, err := n.Int64(); err == nil {
		return time.Unix(sec, 0), true
	}
	if f, err := n.Float64(); err == nil {
		sec := int64(f)
		return time.Unix(sec, int64((f-float64(sec))*1e9)), true
	}
	return time.Time{}, false
}
