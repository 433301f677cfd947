/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config covers process level configuration read from environment variables.
type Config struct {
	Environment string
	HTTPBind    string
	HTTPPort    int
	MetricsBind string

	MediaRoot    string // on-disk cache for fetched clips and extracted frames
	DownloadsDir string // where finished renders are written
	FFmpegBin    string
	FFprobeBin   string

	RenderFPS     int
	IntroDuration time.Duration
	OutroDuration time.Duration

	// TalkThreshold is the mean frequency-bin magnitude (0-255 scale)
	// above which a speaker counts as talking for lip-sync gating.
	TalkThreshold float64
	// PollInterval is how often the live controller re-evaluates
	// lip-sync state, nominally once per display frame.
	PollInterval time.Duration

	TickerSpeedPxPerSec float64
	TickerGapPx         float64

	// S3 publish configuration. Publishing is enabled when a bucket is set.
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3Region          string
	S3Bucket          string
	S3Endpoint        string // for S3-compatible services (MinIO, Spaces, etc.)
	S3PublicBaseURL   string
	S3UsePathStyle    bool
}

// Load reads environment variables, applies defaults, and validates the result.
func Load() (*Config, error) {
	cfg := &Config{
		Environment: getEnv("NEWSCAST_ENV", "development"),
		HTTPBind:    getEnv("NEWSCAST_HTTP_BIND", "0.0.0.0"),
		HTTPPort:    getEnvInt("NEWSCAST_HTTP_PORT", 8080),
		MetricsBind: getEnv("NEWSCAST_METRICS_BIND", "127.0.0.1:9000"),

		MediaRoot:    getEnv("NEWSCAST_MEDIA_ROOT", "./media"),
		DownloadsDir: getEnv("NEWSCAST_DOWNLOADS_DIR", "./downloads"),
		FFmpegBin:    getEnv("NEWSCAST_FFMPEG_BIN", "ffmpeg"),
		FFprobeBin:   getEnv("NEWSCAST_FFPROBE_BIN", "ffprobe"),

		RenderFPS:     getEnvInt("NEWSCAST_RENDER_FPS", 30),
		IntroDuration: time.Duration(getEnvInt("NEWSCAST_INTRO_MS", 4000)) * time.Millisecond,
		OutroDuration: time.Duration(getEnvInt("NEWSCAST_OUTRO_MS", 4000)) * time.Millisecond,

		TalkThreshold: getEnvFloat("NEWSCAST_TALK_THRESHOLD", 10.0),
		PollInterval:  time.Duration(getEnvInt("NEWSCAST_POLL_INTERVAL_MS", 33)) * time.Millisecond,

		TickerSpeedPxPerSec: getEnvFloat("NEWSCAST_TICKER_SPEED", 150.0),
		TickerGapPx:         getEnvFloat("NEWSCAST_TICKER_GAP", 200.0),

		S3AccessKeyID:     getEnvAny([]string{"NEWSCAST_S3_ACCESS_KEY_ID", "AWS_ACCESS_KEY_ID"}, ""),
		S3SecretAccessKey: getEnvAny([]string{"NEWSCAST_S3_SECRET_ACCESS_KEY", "AWS_SECRET_ACCESS_KEY"}, ""),
		S3Region:          getEnvAny([]string{"NEWSCAST_S3_REGION", "AWS_REGION"}, "us-east-1"),
		S3Bucket:          getEnvAny([]string{"NEWSCAST_S3_BUCKET", "S3_BUCKET"}, ""),
		S3Endpoint:        getEnvAny([]string{"NEWSCAST_S3_ENDPOINT", "S3_ENDPOINT"}, ""),
		S3PublicBaseURL:   getEnvAny([]string{"NEWSCAST_S3_PUBLIC_BASE_URL", "S3_PUBLIC_BASE_URL"}, ""),
		S3UsePathStyle:    getEnvBool("NEWSCAST_S3_USE_PATH_STYLE", false),
	}

	if cfg.RenderFPS <= 0 {
		return nil, fmt.Errorf("NEWSCAST_RENDER_FPS must be positive, got %d", cfg.RenderFPS)
	}

	if cfg.TalkThreshold < 0 || cfg.TalkThreshold > 255 {
		return nil, fmt.Errorf("NEWSCAST_TALK_THRESHOLD must be within 0-255, got %v", cfg.TalkThreshold)
	}

	if cfg.IntroDuration <= 0 || cfg.OutroDuration <= 0 {
		return nil, fmt.Errorf("intro and outro durations must be positive")
	}

	if cfg.PollInterval <= 0 {
		return nil, fmt.Errorf("NEWSCAST_POLL_INTERVAL_MS must be positive")
	}

	if strings.EqualFold(cfg.Environment, "production") {
		if cfg.S3Bucket != "" && (cfg.S3AccessKeyID == "" || cfg.S3SecretAccessKey == "") {
			return nil, fmt.Errorf("S3 credentials are required when a publish bucket is configured in production")
		}
	}

	return cfg, nil
}

// S3Enabled reports whether rendered broadcasts should be published to
// object storage.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != ""
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if val := os.Getenv(key); val != "" {
		val = strings.ToLower(strings.TrimSpace(val))
		if val == "true" || val == "1" || val == "yes" {
			return true
		}
		if val == "false" || val == "0" || val == "no" {
			return false
		}
	}
	return def
}

// getEnvAny returns the first non-empty environment variable value from keys, or def if none set.
func getEnvAny(keys []string, def string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return def
}
