package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/friendsincode/newscast/internal/models"
)

func writeJob(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadJobYAML(t *testing.T) {
	path := writeJob(t, "job.yaml", `
id: evening-news
segments:
  - speaker: Alice
    text: Good evening.
    role: host_a
    audio_file: audio/alice.pcm
videos:
  wide: https://example.com/wide.mp4
  host_a: [https://example.com/a.mp4]
config:
  channel_name: Channel 5
  format: "16:9"
  captions_enabled: true
news:
  - headline: Dog elected mayor
`)

	b, err := loadJob(path)
	if err != nil {
		t.Fatalf("loadJob: %v", err)
	}
	if b.ID != "evening-news" {
		t.Errorf("id = %q", b.ID)
	}
	if len(b.Segments) != 1 || b.Segments[0].Role != models.RoleHostA {
		t.Fatalf("segments = %+v", b.Segments)
	}
	want := filepath.Join(filepath.Dir(path), "audio/alice.pcm")
	if b.Segments[0].AudioFile != want {
		t.Errorf("audio file = %q, want %q", b.Segments[0].AudioFile, want)
	}
	if b.Config.ChannelName != "Channel 5" || !b.Config.CaptionsEnabled {
		t.Errorf("config = %+v", b.Config)
	}
	if len(b.News) != 1 {
		t.Errorf("news = %+v", b.News)
	}
}

func TestLoadJobJSON(t *testing.T) {
	path := writeJob(t, "job.json", `{
		"segments": [{"speaker": "Bob", "text": "hi", "audio_base64": "AAAA"}],
		"config": {"channel_name": "WXYZ"}
	}`)

	b, err := loadJob(path)
	if err != nil {
		t.Fatalf("loadJob: %v", err)
	}
	if b.ID == "" {
		t.Error("missing id was not generated")
	}
	if b.Segments[0].Speaker != "Bob" {
		t.Errorf("speaker = %q", b.Segments[0].Speaker)
	}
}

func TestLoadJobBadFile(t *testing.T) {
	if _, err := loadJob(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
	path := writeJob(t, "bad.json", "{not json")
	if _, err := loadJob(path); err == nil {
		t.Error("expected error for malformed json")
	}
}
