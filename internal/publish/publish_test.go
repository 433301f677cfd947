/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package publish

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/newscast/internal/config"
	"github.com/friendsincode/newscast/internal/events"
	"github.com/friendsincode/newscast/internal/models"
)

func TestFilename(t *testing.T) {
	date := time.Date(2026, 8, 29, 15, 0, 0, 0, time.UTC)
	tests := []struct {
		channel string
		want    string
	}{
		{"Channel 5 News", "Channel_5_News_2026-08-29.mp4"},
		{"a/b\\c:d", "a-b-c-d_2026-08-29.mp4"},
		{"  ", "broadcast_2026-08-29.mp4"},
		{"", "broadcast_2026-08-29.mp4"},
	}
	for _, tt := range tests {
		if got := Filename(tt.channel, date); got != tt.want {
			t.Errorf("Filename(%q) = %q, want %q", tt.channel, got, tt.want)
		}
	}
}

func testPublisher(t *testing.T, downloads string) (*Publisher, *events.Bus) {
	t.Helper()
	cfg := &config.Config{DownloadsDir: downloads}
	bus := events.NewBus()
	p, err := NewPublisher(context.Background(), cfg, bus, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewPublisher: %v", err)
	}
	return p, bus
}

func testBroadcast() *models.Broadcast {
	b := &models.Broadcast{
		ID:          "b1",
		DisplayDate: time.Date(2026, 8, 29, 0, 0, 0, 0, time.UTC),
	}
	b.Config.ChannelName = "Channel 5"
	return b
}

func TestPublishCopiesToDownloads(t *testing.T) {
	downloads := t.TempDir()
	p, bus := testPublisher(t, downloads)
	published := bus.Subscribe(events.EventPublished)

	src := filepath.Join(t.TempDir(), "render.mp4")
	if err := os.WriteFile(src, []byte("fake mp4"), 0o644); err != nil {
		t.Fatal(err)
	}

	b := testBroadcast()
	res, err := p.Publish(context.Background(), b, src)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}

	want := filepath.Join(downloads, "Channel_5_2026-08-29.mp4")
	if res.LocalPath != want {
		t.Errorf("local path = %q, want %q", res.LocalPath, want)
	}
	data, err := os.ReadFile(want)
	if err != nil {
		t.Fatalf("read published file: %v", err)
	}
	if string(data) != "fake mp4" {
		t.Errorf("published content = %q", data)
	}

	select {
	case <-published:
	case <-time.After(time.Second):
		t.Error("no published event")
	}
}

func TestPublishInPlaceSkipsCopy(t *testing.T) {
	downloads := t.TempDir()
	p, _ := testPublisher(t, downloads)

	b := testBroadcast()
	dest := p.Destination(b)
	if err := os.WriteFile(dest, []byte("already here"), 0o644); err != nil {
		t.Fatal(err)
	}

	res, err := p.Publish(context.Background(), b, dest)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if res.LocalPath != dest {
		t.Errorf("local path = %q, want %q", res.LocalPath, dest)
	}
}

func TestPublishUploadHandoff(t *testing.T) {
	downloads := t.TempDir()
	p, _ := testPublisher(t, downloads)

	var handed string
	p.Upload = func(_ context.Context, path string) error {
		handed = path
		return nil
	}

	src := filepath.Join(t.TempDir(), "render.mp4")
	if err := os.WriteFile(src, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	b := testBroadcast()
	res, err := p.Publish(context.Background(), b, src)
	if err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if handed != res.LocalPath {
		t.Errorf("upload handed %q, want %q", handed, res.LocalPath)
	}
}
