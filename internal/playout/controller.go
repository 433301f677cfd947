/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package playout

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/friendsincode/newscast/internal/analyzer"
	"github.com/friendsincode/newscast/internal/clips"
	"github.com/friendsincode/newscast/internal/events"
	"github.com/friendsincode/newscast/internal/models"
	"github.com/friendsincode/newscast/internal/telemetry"
	"github.com/friendsincode/newscast/internal/timeline"
)

// Options tunes the live controller.
type Options struct {
	TalkThreshold float64
	PollInterval  time.Duration
}

// Controller drives live preview playback. It owns the broadcast's
// decoded buffers and master track exclusively; phase transitions are
// derived from the schedule and the playback clock, and the lip-sync
// poll loop runs once per poll interval while any non-idle phase is
// active. The preview page is a thin follower: it streams the master
// WAV and obeys clip commands published on the bus.
type Controller struct {
	prepared *Prepared
	resolver *clips.Resolver
	analyzer *analyzer.Analyzer
	bus      *events.Bus
	opts     Options
	logger   zerolog.Logger

	mu         sync.Mutex
	ready      bool
	phase      models.Phase
	startedAt  time.Time
	pollCancel context.CancelFunc
	clipCtrls  map[string]*previewClip
	lastIndex  int
}

// NewController prepares the broadcast and builds a controller over it.
// A decode failure is terminal: the error is logged once, the player
// stays permanently non-interactive, and Play/Stop become no-ops.
func NewController(b *models.Broadcast, intro, outro time.Duration, bus *events.Bus, opts Options, logger zerolog.Logger) *Controller {
	c := &Controller{
		bus:       bus,
		opts:      opts,
		logger:    logger.With().Str("component", "player").Logger(),
		phase:     models.PhaseIdle,
		clipCtrls: make(map[string]*previewClip),
		lastIndex: -1,
	}

	prepared, err := Prepare(b, intro, outro)
	if err != nil {
		c.logger.Error().Err(err).Msg("broadcast initialization failed, player disabled")
		return c
	}

	c.prepared = prepared
	c.resolver = clips.NewResolver(b.Videos, b.Config)
	c.analyzer = analyzer.New(analyzer.DefaultFFTSize)
	c.ready = true
	c.logger.Info().
		Int("segments", len(prepared.Segments)).
		Float64("total_sec", prepared.Schedule.TotalSec).
		Msg("broadcast ready")
	return c
}

// Ready reports whether initialization succeeded.
func (c *Controller) Ready() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ready
}

// Phase returns the current playback phase.
func (c *Controller) Phase() models.Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// Prepared exposes the decoded broadcast for streaming and rendering.
// Nil until initialization succeeds.
func (c *Controller) Prepared() *Prepared {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.prepared
}

// Position returns the playback position in seconds, 0 when idle.
func (c *Controller) Position() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.phase == models.PhaseIdle {
		return 0
	}
	return time.Since(c.startedAt).Seconds()
}

// Play starts playback from the top. A no-op unless the player is
// ready and idle.
func (c *Controller) Play() {
	c.mu.Lock()
	if !c.ready || c.phase != models.PhaseIdle {
		c.mu.Unlock()
		return
	}
	c.startedAt = time.Now()
	c.phase = models.PhaseIntro
	ctx, cancel := context.WithCancel(context.Background())
	c.pollCancel = cancel
	c.mu.Unlock()

	telemetry.LiveSessions.Inc()
	c.publishPhase(models.PhaseIntro, 0)
	go c.pollLoop(ctx)
	c.logger.Info().Msg("playback started")
}

// Stop halts playback, cancels the poll loop, and rewinds every clip.
// Safe to call in any phase, including repeatedly.
func (c *Controller) Stop() {
	c.mu.Lock()
	if !c.ready || c.phase == models.PhaseIdle {
		c.mu.Unlock()
		return
	}
	cancel := c.pollCancel
	c.pollCancel = nil
	c.phase = models.PhaseIdle
	c.lastIndex = -1
	ctrls := make([]*previewClip, 0, len(c.clipCtrls))
	for _, ctrl := range c.clipCtrls {
		ctrls = append(ctrls, ctrl)
	}
	c.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	for _, ctrl := range ctrls {
		ctrl.Rewind()
	}
	telemetry.LiveSessions.Dec()
	c.bus.Publish(events.EventStopped, events.Payload{})
	c.logger.Info().Msg("playback stopped")
}

// pollLoop re-evaluates phase, captions, and lip sync once per poll
// interval until cancelled or the broadcast ends.
func (c *Controller) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(c.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if done := c.step(time.Since(c.startedAt).Seconds()); done {
				c.Stop()
				return
			}
		}
	}
}

// step advances the controller to position pos. Returns true when the
// broadcast has run to completion. Idempotent per position: a repeated
// call with an unchanged talking classification issues no redundant
// clip commands.
func (c *Controller) step(pos float64) bool {
	c.mu.Lock()
	if c.phase == models.PhaseIdle {
		c.mu.Unlock()
		return false
	}
	sched := c.prepared.Schedule
	master := c.prepared.Master
	resolver := c.resolver
	c.mu.Unlock()

	phase := sched.PhaseAt(pos)
	if phase == models.PhaseIdle {
		return true
	}

	c.mu.Lock()
	phaseChanged := phase != c.phase
	c.phase = phase
	c.mu.Unlock()
	if phaseChanged {
		c.publishPhase(phase, pos)
	}

	entry, hasEntry := sched.EntryAt(pos)
	var entryPtr *timeline.Entry
	if hasEntry {
		entryPtr = &entry
	}
	c.updateCaption(entryPtr)

	sel := resolver.Resolve(phase, entryPtr)

	active := c.controllerFor(sel)
	c.pauseOthers(sel.Key)
	if phase == models.PhaseContent {
		// Amplitude gating only applies to speakers. The wide shot
		// under the bumpers plays through regardless of jingle energy.
		talking := c.analyzer.Talking(master, pos, c.opts.TalkThreshold)
		clips.Gate(active, talking)
	} else {
		clips.Gate(active, true)
	}
	return false
}

func (c *Controller) updateCaption(entry *timeline.Entry) {
	c.mu.Lock()
	index := -1
	if entry != nil {
		index = entry.Index
	}
	changed := index != c.lastIndex
	c.lastIndex = index
	c.mu.Unlock()
	if !changed {
		return
	}

	payload := events.Payload{"index": index}
	if entry != nil {
		payload["speaker"] = entry.Speaker
		payload["text"] = entry.Text
	}
	c.bus.Publish(events.EventCaption, payload)
}

func (c *Controller) publishPhase(phase models.Phase, pos float64) {
	c.bus.Publish(events.EventPhaseChange, events.Payload{
		"phase":    string(phase),
		"position": pos,
	})
	c.logger.Debug().Str("phase", string(phase)).Float64("position", pos).Msg("phase change")
}

// controllerFor returns the virtual clip controller for a selection,
// creating it on first sight. Selections without a usable URL get no
// controller; the preview page shows its "no feed" placeholder.
func (c *Controller) controllerFor(sel clips.Selection) clips.Controller {
	if sel.URL == "" {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	ctrl, ok := c.clipCtrls[sel.Key]
	if !ok {
		ctrl = &previewClip{key: sel.Key, url: sel.URL, bus: c.bus}
		c.clipCtrls[sel.Key] = ctrl
	}
	return ctrl
}

// pauseOthers pauses every clip except the active one. Level-triggered
// like the gate itself, so it is safe every tick.
func (c *Controller) pauseOthers(activeKey string) {
	c.mu.Lock()
	ctrls := make([]*previewClip, 0, len(c.clipCtrls))
	for key, ctrl := range c.clipCtrls {
		if key != activeKey {
			ctrls = append(ctrls, ctrl)
		}
	}
	c.mu.Unlock()
	for _, ctrl := range ctrls {
		if ctrl.Playing() {
			ctrl.Pause()
		}
	}
}

// previewClip mirrors the play/pause state of one video element on the
// preview page. State lives server-side; the page just executes the
// published commands, which keeps the gate's idempotence meaningful
// end to end.
type previewClip struct {
	key string
	url string
	bus *events.Bus

	mu      sync.Mutex
	playing bool
}

func (p *previewClip) Play() {
	p.mu.Lock()
	p.playing = true
	p.mu.Unlock()
	p.publish("play")
}

func (p *previewClip) Pause() {
	p.mu.Lock()
	p.playing = false
	p.mu.Unlock()
	p.publish("pause")
}

func (p *previewClip) Rewind() {
	p.mu.Lock()
	p.playing = false
	p.mu.Unlock()
	p.publish("rewind")
}

func (p *previewClip) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

func (p *previewClip) publish(action string) {
	p.bus.Publish(events.EventClipCommand, events.Payload{
		"key":    p.key,
		"url":    p.url,
		"action": action,
	})
}
