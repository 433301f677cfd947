/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.RenderFPS != 30 {
		t.Fatalf("unexpected default fps: %d", cfg.RenderFPS)
	}
	if cfg.IntroDuration != 4*time.Second || cfg.OutroDuration != 4*time.Second {
		t.Fatalf("unexpected jingle durations: %v / %v", cfg.IntroDuration, cfg.OutroDuration)
	}
	if cfg.TalkThreshold != 10.0 {
		t.Fatalf("unexpected talk threshold: %v", cfg.TalkThreshold)
	}
	if cfg.S3Enabled() {
		t.Fatal("S3 publishing should be disabled without a bucket")
	}
}

func TestLoadRejectsBadThreshold(t *testing.T) {
	t.Setenv("NEWSCAST_TALK_THRESHOLD", "300")
	if _, err := Load(); err == nil {
		t.Fatal("expected load to fail for out-of-range threshold")
	}
}

func TestLoadRejectsNonPositiveFPS(t *testing.T) {
	t.Setenv("NEWSCAST_RENDER_FPS", "0")
	if _, err := Load(); err == nil {
		t.Fatal("expected load to fail for zero fps")
	}
}

func TestLoadProductionRequiresS3Credentials(t *testing.T) {
	t.Setenv("NEWSCAST_ENV", "production")
	t.Setenv("NEWSCAST_S3_BUCKET", "broadcasts")
	t.Setenv("NEWSCAST_S3_ACCESS_KEY_ID", "")
	t.Setenv("NEWSCAST_S3_SECRET_ACCESS_KEY", "")

	if _, err := Load(); err == nil {
		t.Fatal("expected production config load to fail without S3 credentials")
	}

	t.Setenv("NEWSCAST_S3_ACCESS_KEY_ID", "key")
	t.Setenv("NEWSCAST_S3_SECRET_ACCESS_KEY", "secret")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected production config load with credentials to succeed: %v", err)
	}
	if !cfg.S3Enabled() {
		t.Fatal("expected S3 publishing to be enabled")
	}
}
