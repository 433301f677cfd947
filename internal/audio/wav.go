/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package audio

import (
	"encoding/binary"
	"fmt"
	"io"
)

// EncodeWAV writes the buffer as a 16-bit PCM RIFF/WAVE stream. The
// render muxer hands this to ffmpeg as the audio input; the preview
// server streams it to the browser.
func EncodeWAV(w io.Writer, b *Buffer) error {
	channels := b.Channels()
	if channels == 0 {
		return fmt.Errorf("cannot encode empty buffer")
	}

	frames := b.Frames()
	dataSize := uint32(frames * channels * 2)
	byteRate := uint32(b.SampleRate * channels * 2)
	blockAlign := uint16(channels * 2)

	var header [44]byte
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], 36+dataSize)
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(header[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(header[24:28], uint32(b.SampleRate))
	binary.LittleEndian.PutUint32(header[28:32], byteRate)
	binary.LittleEndian.PutUint16(header[32:34], blockAlign)
	binary.LittleEndian.PutUint16(header[34:36], 16)
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], dataSize)

	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("write wav header: %w", err)
	}

	out := make([]byte, frames*channels*2)
	for f := 0; f < frames; f++ {
		for ch := 0; ch < channels; ch++ {
			s := b.Data[ch][f]
			v := int16(clip(s) * 32767.0)
			binary.LittleEndian.PutUint16(out[(f*channels+ch)*2:], uint16(v))
		}
	}
	if _, err := w.Write(out); err != nil {
		return fmt.Errorf("write wav data: %w", err)
	}
	return nil
}
