/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package clips

import (
	"fmt"

	"github.com/friendsincode/newscast/internal/models"
	"github.com/friendsincode/newscast/internal/timeline"
)

// Selection identifies the clip that should be on screen. An empty URL
// means no usable asset exists ("no feed" placeholder), never an error.
type Selection struct {
	Key string
	URL string
}

// KeyWide is the selection key for the establishing shot.
const KeyWide = "wide"

// Resolver picks the active clip for a timeline position. It is a pure
// function of (phase, speaker, role, index); phase history never
// influences selection. Live playback and offline rendering share this
// one implementation.
type Resolver struct {
	videos models.VideoAssets
	config models.ChannelConfig
}

// NewResolver creates a resolver over the broadcast's assets.
func NewResolver(videos models.VideoAssets, config models.ChannelConfig) *Resolver {
	return &Resolver{videos: videos, config: config}
}

// Resolve returns the clip for the given phase and, during content, the
// active timeline entry. Intro, outro, and idle always use the wide
// shot. A speaker with no pool, or no role match, degrades to the wide
// shot.
func (r *Resolver) Resolve(phase models.Phase, entry *timeline.Entry) Selection {
	if phase != models.PhaseContent || entry == nil {
		return r.wide()
	}

	pool, poolKey := r.poolFor(entry)
	if len(pool) == 0 {
		return r.wide()
	}

	i := entry.Index % len(pool)
	return Selection{
		Key: fmt.Sprintf("%s/%d", poolKey, i),
		URL: pool[i],
	}
}

// poolFor maps an entry onto a clip pool, preferring the explicit role
// tag and falling back to exact-name matching against the configured
// characters. Name matching is a compatibility path for productions
// authored before segments carried role tags.
func (r *Resolver) poolFor(entry *timeline.Entry) ([]string, string) {
	role := entry.Role
	if role == models.RoleAuto {
		switch entry.Speaker {
		case r.config.Characters.HostA.Name:
			role = models.RoleHostA
		case r.config.Characters.HostB.Name:
			role = models.RoleHostB
		}
	}

	switch role {
	case models.RoleHostA:
		return r.videos.HostA, string(models.RoleHostA)
	case models.RoleHostB:
		return r.videos.HostB, string(models.RoleHostB)
	default:
		return nil, ""
	}
}

func (r *Resolver) wide() Selection {
	return Selection{Key: KeyWide, URL: r.videos.Wide}
}

// DistinctURLs lists every clip URL the broadcast can possibly show,
// deduplicated, for render-time prefetching.
func (r *Resolver) DistinctURLs() []string {
	seen := make(map[string]bool)
	var out []string
	add := func(url string) {
		if url != "" && !seen[url] {
			seen[url] = true
			out = append(out, url)
		}
	}
	add(r.videos.Wide)
	for _, u := range r.videos.HostA {
		add(u)
	}
	for _, u := range r.videos.HostB {
		add(u)
	}
	return out
}

// Controller abstracts a playable muted clip surface: a DOM video
// element on the preview page, or a frame-stepped clip in the offline
// renderer.
type Controller interface {
	Play()
	Pause()
	Playing() bool
	Rewind()
}

// Gate applies amplitude-gated lip sync to a clip: play while talking,
// pause while silent. Level-triggered and idempotent, so calling it
// every frame issues at most one state change per actual transition.
func Gate(ctrl Controller, talking bool) {
	if ctrl == nil {
		return
	}
	if talking && !ctrl.Playing() {
		ctrl.Play()
	} else if !talking && ctrl.Playing() {
		ctrl.Pause()
	}
}
