/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package analyzer

import (
	"math"

	"gonum.org/v1/gonum/dsp/fourier"

	"github.com/friendsincode/newscast/internal/audio"
)

// DefaultFFTSize is the analysis window length in samples.
const DefaultFFTSize = 256

// Decibel range mapped onto the 0-255 byte scale.
const (
	minDecibels = -100.0
	maxDecibels = -30.0
)

// Analyzer measures frequency-domain energy at a position inside an
// audio buffer. Both the live controller and the offline renderer gate
// lip sync on the same measurement, so there is exactly one
// implementation of "is anyone talking at time T".
type Analyzer struct {
	size   int
	fft    *fourier.FFT
	window []float64
}

// New creates an analyzer with the given FFT window size.
func New(size int) *Analyzer {
	if size <= 0 {
		size = DefaultFFTSize
	}
	window := make([]float64, size)
	for i := range window {
		// Hann window
		window[i] = 0.5 * (1 - math.Cos(2*math.Pi*float64(i)/float64(size-1)))
	}
	return &Analyzer{
		size:   size,
		fft:    fourier.NewFFT(size),
		window: window,
	}
}

// ByteFrequencyData returns per-bin magnitudes on a 0-255 scale at the
// given position, mirroring the byte frequency data convention of
// browser audio analysers. Positions past the end of the buffer yield
// silence.
func (a *Analyzer) ByteFrequencyData(buf *audio.Buffer, atSec float64) []byte {
	mono := buf.Mono()
	start := int(atSec * float64(buf.SampleRate))

	frame := make([]float64, a.size)
	for i := 0; i < a.size; i++ {
		j := start + i
		if j < 0 || j >= len(mono) {
			continue
		}
		frame[i] = mono[j] * a.window[i]
	}

	coeffs := a.fft.Coefficients(nil, frame)
	bins := make([]byte, len(coeffs))
	for k, c := range coeffs {
		magnitude := math.Hypot(real(c), imag(c)) / float64(a.size)
		db := minDecibels
		if magnitude > 0 {
			db = 20 * math.Log10(magnitude)
		}
		scaled := 255 * (db - minDecibels) / (maxDecibels - minDecibels)
		if scaled < 0 {
			scaled = 0
		}
		if scaled > 255 {
			scaled = 255
		}
		bins[k] = byte(scaled)
	}
	return bins
}

// Mean returns the mean magnitude across all frequency bins.
func Mean(bins []byte) float64 {
	if len(bins) == 0 {
		return 0
	}
	var sum float64
	for _, b := range bins {
		sum += float64(b)
	}
	return sum / float64(len(bins))
}

// Talking classifies the position as speech when the mean bin
// magnitude exceeds the threshold. Level-triggered: repeated calls
// with unchanged audio give unchanged answers.
func (a *Analyzer) Talking(buf *audio.Buffer, atSec, threshold float64) bool {
	return Mean(a.ByteFrequencyData(buf, atSec)) > threshold
}
