/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package audio

import (
	"encoding/base64"
	"encoding/binary"
	"fmt"
)

// Speech segments arrive as raw signed 16-bit little-endian PCM at a
// fixed rate, mono, regardless of the output channel layout elsewhere.
const (
	SpeechSampleRate = 24000
	SpeechChannels   = 1
)

// DecodeBase64 converts persisted base64 audio into raw bytes.
func DecodeBase64(encoded string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode base64 audio: %w", err)
	}
	return raw, nil
}

// DecodePCM converts raw S16LE interleaved bytes into a Buffer.
func DecodePCM(raw []byte, sampleRate, channels int) (*Buffer, error) {
	if sampleRate <= 0 || channels <= 0 {
		return nil, fmt.Errorf("invalid pcm shape: rate=%d channels=%d", sampleRate, channels)
	}
	if len(raw)%2 != 0 {
		// trailing odd byte cannot form an int16 sample
		raw = raw[:len(raw)-1]
	}

	samples := len(raw) / 2
	frames := samples / channels
	buf := NewBuffer(sampleRate, channels, frames)
	for f := 0; f < frames; f++ {
		for ch := 0; ch < channels; ch++ {
			idx := (f*channels + ch) * 2
			v := int16(binary.LittleEndian.Uint16(raw[idx : idx+2]))
			buf.Data[ch][f] = float64(v) / 32768.0
		}
	}
	return buf, nil
}

// DecodeSegment decodes a base64 speech segment into a mono Buffer at
// the fixed speech sample rate. Any failure here is terminal for the
// whole broadcast initialization; callers must not fall back to a
// partial segment list.
func DecodeSegment(encoded string) (*Buffer, error) {
	raw, err := DecodeBase64(encoded)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, fmt.Errorf("segment audio is empty")
	}
	return DecodePCM(raw, SpeechSampleRate, SpeechChannels)
}
