/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package timeline

import (
	"fmt"
	"time"

	"github.com/friendsincode/newscast/internal/models"
)

// Entry describes what plays and displays during one speech interval.
// Entries are contiguous and non-overlapping; entry i ends exactly
// where entry i+1 starts.
type Entry struct {
	Start   float64 // seconds from broadcast start
	End     float64
	Speaker string
	Role    models.Role
	Index   int
	Text    string
}

// Schedule is the single source of truth for "what is happening at
// time T". Both the live controller and the offline renderer derive
// their timing from the same Schedule; computing it twice from the
// same inputs yields identical results because it depends only on
// nominal decoded durations, never on wall-clock jitter.
type Schedule struct {
	IntroSec float64
	OutroSec float64
	Entries  []Entry
	TotalSec float64
}

// Build computes the broadcast schedule from the fixed intro/outro
// durations and the nominal decoded duration of each segment. An empty
// segment list is valid and yields an intro+outro-only schedule.
func Build(intro, outro time.Duration, segments []models.Segment, durationsSec []float64) (*Schedule, error) {
	if len(segments) != len(durationsSec) {
		return nil, fmt.Errorf("segment/duration count mismatch: %d != %d", len(segments), len(durationsSec))
	}

	s := &Schedule{
		IntroSec: intro.Seconds(),
		OutroSec: outro.Seconds(),
		Entries:  make([]Entry, 0, len(segments)),
	}

	cursor := s.IntroSec
	for i, seg := range segments {
		d := durationsSec[i]
		if d < 0 {
			return nil, fmt.Errorf("segment %d has negative duration %v", i, d)
		}
		s.Entries = append(s.Entries, Entry{
			Start:   cursor,
			End:     cursor + d,
			Speaker: seg.Speaker,
			Role:    seg.Role,
			Index:   i,
			Text:    seg.Text,
		})
		cursor += d
	}

	s.TotalSec = cursor + s.OutroSec
	return s, nil
}

// OutroStart returns the second at which speech ends and the outro
// begins, regardless of segment count.
func (s *Schedule) OutroStart() float64 {
	return s.TotalSec - s.OutroSec
}

// EntryAt returns the entry active at t, if any. Entries cover
// [Start, End).
func (s *Schedule) EntryAt(tSec float64) (Entry, bool) {
	for _, e := range s.Entries {
		if tSec >= e.Start && tSec < e.End {
			return e, true
		}
	}
	return Entry{}, false
}

// PhaseAt maps a broadcast position onto the player phase.
func (s *Schedule) PhaseAt(tSec float64) models.Phase {
	switch {
	case tSec < 0 || tSec >= s.TotalSec:
		return models.PhaseIdle
	case tSec < s.IntroSec:
		return models.PhaseIntro
	case tSec < s.OutroStart():
		return models.PhaseContent
	default:
		return models.PhaseOutro
	}
}

// Total returns the grand total duration.
func (s *Schedule) Total() time.Duration {
	return time.Duration(s.TotalSec * float64(time.Second))
}
