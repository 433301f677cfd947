/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package telemetry

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RendersStarted counts render attempts.
	RendersStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "newscast_renders_started_total",
		Help: "Number of broadcast renders started.",
	})

	// RendersCompleted counts renders by outcome.
	RendersCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "newscast_renders_completed_total",
		Help: "Number of broadcast renders finished, by outcome.",
	}, []string{"outcome"})

	// RenderDuration observes wall-clock render time.
	RenderDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "newscast_render_duration_seconds",
		Help:    "Wall-clock duration of broadcast renders.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 10),
	})

	// FramesDrawn counts composited video frames.
	FramesDrawn = promauto.NewCounter(prometheus.CounterOpts{
		Name: "newscast_frames_drawn_total",
		Help: "Number of video frames composited by the render engine.",
	})

	// DecodeFailures counts broadcast initializations aborted by
	// segment decode errors.
	DecodeFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "newscast_segment_decode_failures_total",
		Help: "Number of broadcast initializations aborted by audio decode errors.",
	})

	// LiveSessions gauges active preview playback sessions.
	LiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "newscast_live_sessions",
		Help: "Number of active live preview sessions.",
	})
)

// Handler exposes the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
