/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package audio

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"math"
	"testing"
)

func TestDecodePCMShape(t *testing.T) {
	// 24000 samples of mono S16LE = 1 second
	raw := make([]byte, 24000*2)
	buf, err := DecodePCM(raw, SpeechSampleRate, SpeechChannels)
	if err != nil {
		t.Fatalf("decode pcm: %v", err)
	}
	if buf.Channels() != 1 {
		t.Fatalf("channels = %d, want 1", buf.Channels())
	}
	if buf.Frames() != 24000 {
		t.Fatalf("frames = %d, want 24000", buf.Frames())
	}
	if got := buf.Seconds(); math.Abs(got-1.0) > 1e-9 {
		t.Fatalf("seconds = %v, want 1.0", got)
	}
}

func TestDecodePCMValues(t *testing.T) {
	raw := make([]byte, 6)
	maxSample := int16(32767)
	minSample := int16(-32768)
	binary.LittleEndian.PutUint16(raw[0:], uint16(maxSample))
	binary.LittleEndian.PutUint16(raw[2:], uint16(minSample))
	binary.LittleEndian.PutUint16(raw[4:], 0)

	buf, err := DecodePCM(raw, SpeechSampleRate, 1)
	if err != nil {
		t.Fatalf("decode pcm: %v", err)
	}
	if got := buf.Data[0][0]; math.Abs(got-32767.0/32768.0) > 1e-9 {
		t.Errorf("sample 0 = %v", got)
	}
	if got := buf.Data[0][1]; got != -1.0 {
		t.Errorf("sample 1 = %v, want -1", got)
	}
	if got := buf.Data[0][2]; got != 0 {
		t.Errorf("sample 2 = %v, want 0", got)
	}
}

func TestDecodeSegmentRejectsMalformedBase64(t *testing.T) {
	if _, err := DecodeSegment("not-valid-base64!!!"); err == nil {
		t.Fatal("expected decode failure for malformed base64")
	}
}

func TestDecodeSegmentRejectsEmptyAudio(t *testing.T) {
	if _, err := DecodeSegment(base64.StdEncoding.EncodeToString(nil)); err == nil {
		t.Fatal("expected decode failure for empty audio")
	}
}

func TestLinearRampEndpoints(t *testing.T) {
	ramp := LinearRamp(0.5, 0.01, 4.0)
	if got := ramp(0); got != 0.5 {
		t.Errorf("ramp(0) = %v, want 0.5", got)
	}
	if got := ramp(2.0); math.Abs(got-0.255) > 1e-9 {
		t.Errorf("ramp(2) = %v, want 0.255", got)
	}
	if got := ramp(4.0); got != 0.01 {
		t.Errorf("ramp(4) = %v, want 0.01", got)
	}
	if got := ramp(10.0); got != 0.01 {
		t.Errorf("ramp holds end value, got %v", got)
	}
}

func TestMixAtUpmixesMonoAndClips(t *testing.T) {
	dst := NewBuffer(24000, 2, 24000)
	src := NewBuffer(24000, 1, 100)
	for i := range src.Data[0] {
		src.Data[0][i] = 0.8
	}

	if err := dst.MixAt(src, 0.5, UnityGain); err != nil {
		t.Fatalf("mix: %v", err)
	}
	// Mono source lands identically in both channels at the offset.
	at := 12000
	for ch := 0; ch < 2; ch++ {
		if got := dst.Data[ch][at]; got != 0.8 {
			t.Errorf("channel %d sample = %v, want 0.8", ch, got)
		}
		if got := dst.Data[ch][at-1]; got != 0 {
			t.Errorf("channel %d pre-offset sample = %v, want 0", ch, got)
		}
	}

	// Mixing the same material again clips rather than overflowing.
	if err := dst.MixAt(src, 0.5, UnityGain); err != nil {
		t.Fatalf("mix: %v", err)
	}
	if got := dst.Data[0][at]; got != 1.0 {
		t.Errorf("clipped sample = %v, want 1.0", got)
	}
}

func TestMixAtRejectsRateMismatch(t *testing.T) {
	dst := NewBuffer(24000, 2, 100)
	src := NewBuffer(48000, 1, 100)
	if err := dst.MixAt(src, 0, UnityGain); err == nil {
		t.Fatal("expected rate mismatch error")
	}
}

func TestEncodeWAVHeader(t *testing.T) {
	buf := NewBuffer(24000, 2, 10)
	var out bytes.Buffer
	if err := EncodeWAV(&out, buf); err != nil {
		t.Fatalf("encode wav: %v", err)
	}

	data := out.Bytes()
	if len(data) != 44+10*2*2 {
		t.Fatalf("wav size = %d", len(data))
	}
	if string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		t.Fatal("missing RIFF/WAVE markers")
	}
	if rate := binary.LittleEndian.Uint32(data[24:28]); rate != 24000 {
		t.Errorf("sample rate = %d", rate)
	}
	if ch := binary.LittleEndian.Uint16(data[22:24]); ch != 2 {
		t.Errorf("channels = %d", ch)
	}
}

func TestMonoAveragesChannels(t *testing.T) {
	buf := NewBuffer(24000, 2, 3)
	buf.Data[0] = []float64{1, 0, -1}
	buf.Data[1] = []float64{0, 0, -1}
	mono := buf.Mono()
	want := []float64{0.5, 0, -1}
	for i := range want {
		if math.Abs(mono[i]-want[i]) > 1e-12 {
			t.Errorf("mono[%d] = %v, want %v", i, mono[i], want[i])
		}
	}
}
