/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package jingle

import (
	"math"

	"github.com/friendsincode/newscast/internal/audio"
)

// DurationSec is the fixed length of the synthesized stinger.
const DurationSec = 4.0

// Minimal-standard Lehmer generator constants. Full period over the
// modulus, so every synthesis pass walks the identical noise sequence.
const (
	lcgSeed       = 1234
	lcgMultiplier = 16807
	lcgModulus    = 2147483647
)

// Layer mix levels.
const (
	percussiveMix = 0.8
	noiseMix      = 0.1
	masterGain    = 0.8
)

// melodicScale is the 8-note loop cycled at 4 notes per second.
var melodicScale = [8]float64{
	261.63, // C4
	293.66, // D4
	329.63, // E4
	392.00, // G4
	440.00, // A4
	523.25, // C5
	440.00, // A4
	392.00, // G4
}

type lcg struct {
	state int64
}

func newLCG() *lcg {
	return &lcg{state: lcgSeed}
}

// next returns a pseudo-random float in [0, 1).
func (g *lcg) next() float64 {
	g.state = (g.state * lcgMultiplier) % lcgModulus
	return float64(g.state) / float64(lcgModulus)
}

// Synthesize generates the deterministic intro/outro stinger: a kick
// retriggering every half second, a hat-like noise burst every quarter
// second, and a decaying melodic loop. Identical output every call, so
// intro and outro music need no network or storage dependency. Each
// audio context synthesizes its own copy; buffers are never shared.
func Synthesize(sampleRate int) *audio.Buffer {
	frames := int(DurationSec * float64(sampleRate))
	buf := audio.NewBuffer(sampleRate, 2, frames)
	rng := newLCG()

	for i := 0; i < frames; i++ {
		t := float64(i) / float64(sampleRate)

		// Percussive layer: 0.1s sine sweep from 60 Hz downward with
		// linear decay, retriggered every 0.5s.
		var percussive float64
		beatTime := math.Mod(t, 0.5)
		if beatTime < 0.1 {
			freq := 60.0 * (1.0 - beatTime/0.1)
			percussive = math.Sin(2*math.Pi*freq*beatTime) * (1.0 - beatTime/0.1)
		}

		// Noise layer: 0.05s transient at the top of every 0.25s window.
		var noise float64
		if math.Mod(t, 0.25) < 0.05 {
			noise = (rng.next()*2.0 - 1.0) * 0.2
		}

		// Melodic layer: one note per 0.25s slot, exponential decay.
		noteIndex := int(t*4.0) % len(melodicScale)
		noteTime := math.Mod(t, 0.25)
		melody := math.Sin(2*math.Pi*melodicScale[noteIndex]*noteTime) *
			math.Exp(-10.0*noteTime) * 0.3

		sample := (percussiveMix*percussive + noiseMix*noise + melody) * masterGain
		buf.Data[0][i] = sample
		buf.Data[1][i] = sample
	}

	return buf
}
