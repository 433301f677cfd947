/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/newscast/internal/audio"
	"github.com/friendsincode/newscast/internal/config"
	"github.com/friendsincode/newscast/internal/logbuffer"
	"github.com/friendsincode/newscast/internal/models"
)

func testServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		HTTPBind:      "127.0.0.1",
		HTTPPort:      0,
		MediaRoot:     dir,
		DownloadsDir:  dir,
		FFmpegBin:     "ffmpeg",
		FFprobeBin:    "ffprobe",
		RenderFPS:     30,
		IntroDuration: 500 * time.Millisecond,
		OutroDuration: 500 * time.Millisecond,
		TalkThreshold: 10,
		PollInterval:  10 * time.Millisecond,
	}
	srv, err := New(context.Background(), cfg, logbuffer.New(100), zerolog.Nop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ts := httptest.NewServer(srv.router)
	t.Cleanup(ts.Close)
	return srv, ts
}

func segmentBase64(t *testing.T, n int) string {
	t.Helper()
	rng := rand.New(rand.NewSource(9))
	raw := make([]byte, n*2)
	for i := 0; i < n; i++ {
		v := uint16(int16((rng.Float64()*2 - 1) * 12000))
		raw[2*i] = byte(v)
		raw[2*i+1] = byte(v >> 8)
	}
	return base64.StdEncoding.EncodeToString(raw)
}

func postBroadcast(t *testing.T, ts *httptest.Server, b *models.Broadcast) map[string]any {
	t.Helper()
	body, err := json.Marshal(b)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(ts.URL+"/api/broadcast", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("post broadcast: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("post broadcast status = %d", resp.StatusCode)
	}
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	return out
}

func TestHealth(t *testing.T) {
	_, ts := testServer(t)
	resp, err := http.Get(ts.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestStateWithoutBroadcast(t *testing.T) {
	_, ts := testServer(t)
	resp, err := http.Get(ts.URL + "/api/state")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var state map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&state); err != nil {
		t.Fatal(err)
	}
	if state["loaded"] != false {
		t.Errorf("loaded = %v, want false", state["loaded"])
	}
}

func TestControlsRejectWithoutBroadcast(t *testing.T) {
	_, ts := testServer(t)
	for _, path := range []string{"/api/play", "/api/stop", "/api/render"} {
		resp, err := http.Post(ts.URL+path, "application/json", nil)
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusConflict {
			t.Errorf("%s status = %d, want 409", path, resp.StatusCode)
		}
	}
}

func TestBroadcastLifecycle(t *testing.T) {
	_, ts := testServer(t)

	b := &models.Broadcast{
		ID: "b1",
		Segments: []models.Segment{
			{Speaker: "Alice", Text: "hello", AudioBase64: segmentBase64(t, audio.SpeechSampleRate/4)},
		},
	}
	b.Config.ChannelName = "Channel 5"

	out := postBroadcast(t, ts, b)
	if out["ready"] != true {
		t.Fatalf("ready = %v, want true", out["ready"])
	}

	resp, err := http.Get(ts.URL + "/api/master.wav")
	if err != nil {
		t.Fatal(err)
	}
	header := make([]byte, 4)
	if _, err := io.ReadFull(resp.Body, header); err != nil {
		t.Fatalf("read wav header: %v", err)
	}
	resp.Body.Close()
	if string(header) != "RIFF" {
		t.Errorf("wav header = %q, want RIFF", header)
	}

	resp, err = http.Post(ts.URL+"/api/play", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("play status = %d, want 200", resp.StatusCode)
	}

	resp, err = http.Post(ts.URL+"/api/stop", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("stop status = %d, want 200", resp.StatusCode)
	}
}

func TestBrokenBroadcastStaysInert(t *testing.T) {
	_, ts := testServer(t)

	b := &models.Broadcast{
		ID: "bad",
		Segments: []models.Segment{
			{Speaker: "Alice", AudioBase64: "%%%"},
		},
	}
	out := postBroadcast(t, ts, b)
	if out["ready"] != false {
		t.Fatalf("ready = %v, want false", out["ready"])
	}

	resp, err := http.Post(ts.URL+"/api/play", "application/json", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("play on inert broadcast status = %d, want 409", resp.StatusCode)
	}

	resp, err = http.Get(ts.URL + "/api/master.wav")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("master.wav on inert broadcast status = %d, want 404", resp.StatusCode)
	}
}

func TestIndexServed(t *testing.T) {
	_, ts := testServer(t)
	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if !bytes.Contains(body, []byte("Newscast Preview")) {
		t.Error("preview page not served")
	}
}
