/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package playout

import (
	"fmt"

	"github.com/friendsincode/newscast/internal/audio"
	"github.com/friendsincode/newscast/internal/jingle"
	"github.com/friendsincode/newscast/internal/timeline"
)

// Jingle mix envelope applied at the mixing stage, layered on top of
// whatever shape the synthesizer itself produces.
const (
	jingleGainStart = 0.5
	jingleGainEnd   = 0.01
)

// BuildMaster mixes the complete broadcast soundtrack: intro jingle at
// zero, each speech segment at its timeline offset, outro jingle where
// speech ends. The live controller and the offline renderer each build
// their own master from the same schedule, so their audio is identical
// by construction. Each call synthesizes a fresh jingle; jingle buffers
// are never shared between playback contexts.
func BuildMaster(sched *timeline.Schedule, segments []*audio.Buffer) (*audio.Buffer, error) {
	if len(segments) != len(sched.Entries) {
		return nil, fmt.Errorf("segment/entry count mismatch: %d != %d", len(segments), len(sched.Entries))
	}

	sr := audio.SpeechSampleRate
	frames := int(sched.TotalSec * float64(sr))
	master := audio.NewBuffer(sr, 2, frames)

	sting := jingle.Synthesize(sr)
	introEnvelope := audio.LinearRamp(jingleGainStart, jingleGainEnd, sched.IntroSec)
	if err := master.MixAt(sting, 0, introEnvelope); err != nil {
		return nil, fmt.Errorf("mix intro jingle: %w", err)
	}

	for i, entry := range sched.Entries {
		if err := master.MixAt(segments[i], entry.Start, audio.UnityGain); err != nil {
			return nil, fmt.Errorf("mix segment %d: %w", i, err)
		}
	}

	outroEnvelope := audio.LinearRamp(jingleGainStart, jingleGainEnd, sched.OutroSec)
	if err := master.MixAt(sting, sched.OutroStart(), outroEnvelope); err != nil {
		return nil, fmt.Errorf("mix outro jingle: %w", err)
	}

	return master, nil
}
