/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package timeline

import (
	"math"
	"testing"
	"time"

	"github.com/friendsincode/newscast/internal/models"
)

func segs(n int) []models.Segment {
	out := make([]models.Segment, n)
	for i := range out {
		out[i] = models.Segment{Speaker: "Anna", Text: "line"}
	}
	return out
}

func TestBuildContiguity(t *testing.T) {
	durations := []float64{3.25, 1.0, 2.5, 0.75}
	s, err := Build(4*time.Second, 4*time.Second, segs(len(durations)), durations)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if s.Entries[0].Start != 4.0 {
		t.Errorf("first entry starts at %v, want intro duration", s.Entries[0].Start)
	}
	var sum float64
	for i, e := range s.Entries {
		if math.Abs(e.End-e.Start-durations[i]) > 1e-9 {
			t.Errorf("entry %d span = %v, want %v", i, e.End-e.Start, durations[i])
		}
		if i > 0 && s.Entries[i-1].End != e.Start {
			t.Errorf("entry %d not contiguous: prev end %v, start %v", i, s.Entries[i-1].End, e.Start)
		}
		sum += durations[i]
	}
	if math.Abs(s.TotalSec-(4.0+sum+4.0)) > 1e-9 {
		t.Errorf("total = %v, want %v", s.TotalSec, 4.0+sum+4.0)
	}
	if math.Abs(s.OutroStart()-s.Entries[len(s.Entries)-1].End) > 1e-9 {
		t.Errorf("outro start %v does not meet last entry end %v", s.OutroStart(), s.Entries[len(s.Entries)-1].End)
	}
}

func TestBuildHappyPath(t *testing.T) {
	// 2 segments of 3.0s and 2.5s with 4s intro/outro -> 13.5s total.
	s, err := Build(4*time.Second, 4*time.Second, segs(2), []float64{3.0, 2.5})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if s.TotalSec != 13.5 {
		t.Fatalf("total = %v, want 13.5", s.TotalSec)
	}
	want := []Entry{{Start: 4.0, End: 7.0}, {Start: 7.0, End: 9.5}}
	for i, w := range want {
		if s.Entries[i].Start != w.Start || s.Entries[i].End != w.End {
			t.Errorf("entry %d = [%v,%v), want [%v,%v)", i, s.Entries[i].Start, s.Entries[i].End, w.Start, w.End)
		}
	}
	if s.PhaseAt(9.5) != models.PhaseOutro {
		t.Errorf("phase at 9.5 = %v, want outro", s.PhaseAt(9.5))
	}
	if s.PhaseAt(9.4999) != models.PhaseContent {
		t.Errorf("phase just before outro = %v, want content", s.PhaseAt(9.4999))
	}
}

func TestBuildEmptySegmentList(t *testing.T) {
	s, err := Build(4*time.Second, 4*time.Second, nil, nil)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	if len(s.Entries) != 0 {
		t.Fatalf("expected no entries, got %d", len(s.Entries))
	}
	if s.TotalSec != 8.0 {
		t.Fatalf("total = %v, want 8.0", s.TotalSec)
	}
	if s.PhaseAt(2.0) != models.PhaseIntro {
		t.Errorf("phase at 2 = %v", s.PhaseAt(2.0))
	}
	if s.PhaseAt(5.0) != models.PhaseOutro {
		t.Errorf("phase at 5 = %v, outro begins exactly where speech would end", s.PhaseAt(5.0))
	}
}

func TestBuildRejectsMismatchedInputs(t *testing.T) {
	if _, err := Build(4*time.Second, 4*time.Second, segs(2), []float64{1.0}); err == nil {
		t.Fatal("expected mismatch error")
	}
	if _, err := Build(4*time.Second, 4*time.Second, segs(1), []float64{-1.0}); err == nil {
		t.Fatal("expected negative duration error")
	}
}

func TestEntryAtBoundaries(t *testing.T) {
	s, err := Build(4*time.Second, 4*time.Second, segs(2), []float64{3.0, 2.5})
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if _, ok := s.EntryAt(3.999); ok {
		t.Error("no entry should be active during intro")
	}
	e, ok := s.EntryAt(4.0)
	if !ok || e.Index != 0 {
		t.Errorf("entry at 4.0 = %+v, ok=%v", e, ok)
	}
	e, ok = s.EntryAt(7.0)
	if !ok || e.Index != 1 {
		t.Errorf("entry at 7.0 = %+v, ok=%v; intervals are [start,end)", e, ok)
	}
	if _, ok := s.EntryAt(9.5); ok {
		t.Error("no entry should be active during outro")
	}
}

func TestPhaseAtOutsideBroadcast(t *testing.T) {
	s, _ := Build(4*time.Second, 4*time.Second, nil, nil)
	if s.PhaseAt(-1) != models.PhaseIdle {
		t.Error("negative time should be idle")
	}
	if s.PhaseAt(8.0) != models.PhaseIdle {
		t.Error("time at/after total should be idle")
	}
}
