/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package playout

import (
	"fmt"
	"os"
	"time"

	"github.com/friendsincode/newscast/internal/audio"
	"github.com/friendsincode/newscast/internal/models"
	"github.com/friendsincode/newscast/internal/telemetry"
	"github.com/friendsincode/newscast/internal/timeline"
)

// Prepared is a broadcast after its single full decode pass: buffers
// index-aligned with the segment list, the derived schedule, and the
// mixed master track.
type Prepared struct {
	Broadcast *models.Broadcast
	Schedule  *timeline.Schedule
	Segments  []*audio.Buffer
	Master    *audio.Buffer
}

// Prepare decodes every segment and derives the schedule and master
// track. Any decode error aborts the whole broadcast; there is no
// partial-segment fallback and no retry.
func Prepare(b *models.Broadcast, intro, outro time.Duration) (*Prepared, error) {
	buffers := make([]*audio.Buffer, 0, len(b.Segments))
	durations := make([]float64, 0, len(b.Segments))

	for i, seg := range b.Segments {
		buf, err := decodeSegmentAudio(seg)
		if err != nil {
			telemetry.DecodeFailures.Inc()
			return nil, fmt.Errorf("decode segment %d (%s): %w", i, seg.Speaker, err)
		}
		buffers = append(buffers, buf)
		durations = append(durations, buf.Seconds())
	}

	sched, err := timeline.Build(intro, outro, b.Segments, durations)
	if err != nil {
		return nil, fmt.Errorf("build schedule: %w", err)
	}

	master, err := BuildMaster(sched, buffers)
	if err != nil {
		return nil, fmt.Errorf("build master track: %w", err)
	}

	return &Prepared{
		Broadcast: b,
		Schedule:  sched,
		Segments:  buffers,
		Master:    master,
	}, nil
}

func decodeSegmentAudio(seg models.Segment) (*audio.Buffer, error) {
	if seg.AudioFile != "" {
		raw, err := os.ReadFile(seg.AudioFile)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", seg.AudioFile, err)
		}
		if len(raw) == 0 {
			return nil, fmt.Errorf("segment audio file %s is empty", seg.AudioFile)
		}
		return audio.DecodePCM(raw, audio.SpeechSampleRate, audio.SpeechChannels)
	}
	return audio.DecodeSegment(seg.AudioBase64)
}
