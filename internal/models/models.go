/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package models

import "time"

// Role identifies which visual clip pool a speaker belongs to.
type Role string

const (
	// RoleAuto means the role is derived by matching the speaker name
	// against the configured character names. Kept as a compatibility
	// fallback for productions authored before explicit role tags.
	RoleAuto  Role = ""
	RoleHostA Role = "host_a"
	RoleHostB Role = "host_b"
)

// Segment is one line of spoken dialogue with its pre-rendered audio.
// Segments are ordered; insertion order is broadcast order.
type Segment struct {
	Speaker     string `json:"speaker" yaml:"speaker"`
	Text        string `json:"text" yaml:"text"`
	AudioBase64 string `json:"audio_base64" yaml:"audio_base64"`
	// AudioFile optionally points at a raw PCM file on disk instead of
	// inlining base64. Job files use this to stay readable.
	AudioFile string `json:"audio_file,omitempty" yaml:"audio_file,omitempty"`
	Role      Role   `json:"role,omitempty" yaml:"role,omitempty"`
}

// VideoAssets holds the clip pools available to a broadcast. HostA and
// HostB are pools of interchangeable clips; Wide is the establishing
// shot used for intro, outro, and any speaker without a pool.
type VideoAssets struct {
	Wide  string   `json:"wide" yaml:"wide"`
	HostA []string `json:"host_a" yaml:"host_a"`
	HostB []string `json:"host_b" yaml:"host_b"`
}

// Character maps a display name to a clip pool.
type Character struct {
	Name string `json:"name" yaml:"name"`
}

// Format is the output aspect of the broadcast.
type Format string

const (
	FormatLandscape Format = "16:9"
	FormatPortrait  Format = "9:16"
)

// CanvasSize returns the pixel dimensions for the format.
func (f Format) CanvasSize() (w, h int) {
	if f == FormatPortrait {
		return 720, 1280
	}
	return 1280, 720
}

// ChannelConfig carries per-broadcast styling and identity.
type ChannelConfig struct {
	ChannelName     string    `json:"channel_name" yaml:"channel_name"`
	Tagline         string    `json:"tagline" yaml:"tagline"`
	LogoColor1      string    `json:"logo_color1" yaml:"logo_color1"`
	LogoColor2      string    `json:"logo_color2" yaml:"logo_color2"`
	Format          Format    `json:"format" yaml:"format"`
	CaptionsEnabled bool      `json:"captions_enabled" yaml:"captions_enabled"`
	Characters      struct {
		HostA Character `json:"host_a" yaml:"host_a"`
		HostB Character `json:"host_b" yaml:"host_b"`
	} `json:"characters" yaml:"characters"`
}

// NewsItem is a ticker headline.
type NewsItem struct {
	Headline string `json:"headline" yaml:"headline"`
	Source   string `json:"source" yaml:"source"`
}

// Broadcast bundles everything needed to play or render one broadcast.
type Broadcast struct {
	ID          string        `json:"id" yaml:"id"`
	Segments    []Segment     `json:"segments" yaml:"segments"`
	Videos      VideoAssets   `json:"videos" yaml:"videos"`
	Config      ChannelConfig `json:"config" yaml:"config"`
	News        []NewsItem    `json:"news" yaml:"news"`
	DisplayDate time.Time     `json:"display_date,omitempty" yaml:"display_date,omitempty"`
}

// Date returns the display date, defaulting to now.
func (b *Broadcast) Date() time.Time {
	if b.DisplayDate.IsZero() {
		return time.Now()
	}
	return b.DisplayDate
}

// Phase is the live player's coarse state. Exactly one phase holds at
// any instant.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseIntro   Phase = "intro"
	PhaseContent Phase = "content"
	PhaseOutro   Phase = "outro"
)
