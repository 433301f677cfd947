/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package audio

import (
	"fmt"
	"time"
)

// Buffer holds planar float64 PCM in the range [-1, 1].
type Buffer struct {
	SampleRate int
	Data       [][]float64 // Data[channel][frame]
}

// NewBuffer allocates a silent buffer of the given shape.
func NewBuffer(sampleRate, channels, frames int) *Buffer {
	data := make([][]float64, channels)
	for ch := range data {
		data[ch] = make([]float64, frames)
	}
	return &Buffer{SampleRate: sampleRate, Data: data}
}

// Channels returns the channel count.
func (b *Buffer) Channels() int {
	return len(b.Data)
}

// Frames returns the per-channel sample count.
func (b *Buffer) Frames() int {
	if len(b.Data) == 0 {
		return 0
	}
	return len(b.Data[0])
}

// Seconds returns the buffer duration in seconds.
func (b *Buffer) Seconds() float64 {
	if b.SampleRate == 0 {
		return 0
	}
	return float64(b.Frames()) / float64(b.SampleRate)
}

// Duration returns the buffer duration.
func (b *Buffer) Duration() time.Duration {
	return time.Duration(b.Seconds() * float64(time.Second))
}

// GainFunc maps a position in seconds within the source to a gain.
type GainFunc func(tSec float64) float64

// UnityGain leaves samples untouched.
func UnityGain(float64) float64 { return 1.0 }

// LinearRamp returns a gain function interpolating from start to end
// over the given duration, holding the end value afterwards.
func LinearRamp(start, end, durationSec float64) GainFunc {
	return func(t float64) float64 {
		if durationSec <= 0 || t >= durationSec {
			return end
		}
		if t <= 0 {
			return start
		}
		return start + (end-start)*(t/durationSec)
	}
}

// MixAt adds src into b starting at offsetSec, applying gain per source
// position. A mono source is duplicated into every destination channel.
// Samples are clipped to [-1, 1]. Source material past the end of b is
// dropped.
func (b *Buffer) MixAt(src *Buffer, offsetSec float64, gain GainFunc) error {
	if src.SampleRate != b.SampleRate {
		return fmt.Errorf("sample rate mismatch: %d != %d", src.SampleRate, b.SampleRate)
	}
	if gain == nil {
		gain = UnityGain
	}

	startFrame := int(offsetSec * float64(b.SampleRate))
	for ch := range b.Data {
		srcCh := ch
		if srcCh >= src.Channels() {
			srcCh = 0
		}
		source := src.Data[srcCh]
		dest := b.Data[ch]
		for i, s := range source {
			j := startFrame + i
			if j < 0 {
				continue
			}
			if j >= len(dest) {
				break
			}
			t := float64(i) / float64(src.SampleRate)
			dest[j] = clip(dest[j] + s*gain(t))
		}
	}
	return nil
}

// Mono returns a channel-averaged view of the buffer.
func (b *Buffer) Mono() []float64 {
	if b.Channels() == 1 {
		return b.Data[0]
	}
	out := make([]float64, b.Frames())
	for ch := range b.Data {
		for i, s := range b.Data[ch] {
			out[i] += s
		}
	}
	n := float64(b.Channels())
	for i := range out {
		out[i] /= n
	}
	return out
}

func clip(s float64) float64 {
	if s > 1 {
		return 1
	}
	if s < -1 {
		return -1
	}
	return s
}
