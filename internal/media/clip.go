/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package media

import (
	"fmt"
	"image"
	_ "image/jpeg"
	"os"
	"sync"
)

// FrameSequence is an extracted clip as an indexable run of frames.
type FrameSequence struct {
	paths  []string
	width  int
	height int
	fps    int

	mu        sync.Mutex
	cachedIdx int
	cachedImg image.Image
	hasCached bool
}

func newFrameSequence(paths []string, width, height, fps int) *FrameSequence {
	return &FrameSequence{paths: paths, width: width, height: height, fps: fps}
}

// Len returns the frame count.
func (f *FrameSequence) Len() int { return len(f.paths) }

// Size returns the clip's native pixel dimensions.
func (f *FrameSequence) Size() (w, h int) { return f.width, f.height }

// FrameAt decodes the frame at index i. Paused clips ask for the same
// index every render tick, so the last decode is kept.
func (f *FrameSequence) FrameAt(i int) (image.Image, error) {
	if len(f.paths) == 0 {
		return nil, fmt.Errorf("empty frame sequence")
	}
	i = ((i % len(f.paths)) + len(f.paths)) % len(f.paths)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.hasCached && f.cachedIdx == i {
		return f.cachedImg, nil
	}

	file, err := os.Open(f.paths[i])
	if err != nil {
		return nil, fmt.Errorf("open frame %d: %w", i, err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("decode frame %d: %w", i, err)
	}
	f.cachedIdx = i
	f.cachedImg = img
	f.hasCached = true
	return img, nil
}

// Clip is a capability handle over a frame sequence: play, pause,
// rewind, and per-tick advancement. It loops like a muted looping
// video element and satisfies the clip controller contract used by
// lip-sync gating.
type Clip struct {
	frames *FrameSequence

	mu      sync.Mutex
	playing bool
	pos     int
}

// NewClip wraps a frame sequence in a playback handle.
func NewClip(frames *FrameSequence) *Clip {
	return &Clip{frames: frames}
}

// Warm forces the first frame to decode so the first composited draw
// is never black.
func (c *Clip) Warm() error {
	_, err := c.frames.FrameAt(0)
	return err
}

// Play starts advancement.
func (c *Clip) Play() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playing = true
}

// Pause holds the current frame.
func (c *Clip) Pause() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playing = false
}

// Playing reports whether the clip is advancing.
func (c *Clip) Playing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.playing
}

// Rewind pauses the clip and seeks to the first frame.
func (c *Clip) Rewind() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.playing = false
	c.pos = 0
}

// Advance steps one frame forward when playing, wrapping at the end.
// Called once per render tick.
func (c *Clip) Advance() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.playing && c.frames.Len() > 0 {
		c.pos = (c.pos + 1) % c.frames.Len()
	}
}

// Frame returns the image at the current position.
func (c *Clip) Frame() (image.Image, error) {
	c.mu.Lock()
	pos := c.pos
	c.mu.Unlock()
	return c.frames.FrameAt(pos)
}

// Size returns the clip's native dimensions.
func (c *Clip) Size() (w, h int) {
	return c.frames.Size()
}
