/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package render produces the finished broadcast MP4. It re-derives
// the same schedule and master track as live playback, steps a frame
// loop over the total duration, composites clips and overlays onto a
// canvas, and pipes raw RGBA frames into ffmpeg for muxing with the
// master audio.
package render

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"os"
	"os/exec"
	"sync/atomic"
	"time"

	"github.com/fogleman/gg"
	"github.com/rs/zerolog"

	"github.com/friendsincode/newscast/internal/analyzer"
	"github.com/friendsincode/newscast/internal/audio"
	"github.com/friendsincode/newscast/internal/clips"
	"github.com/friendsincode/newscast/internal/config"
	"github.com/friendsincode/newscast/internal/events"
	"github.com/friendsincode/newscast/internal/media"
	"github.com/friendsincode/newscast/internal/models"
	"github.com/friendsincode/newscast/internal/overlay"
	"github.com/friendsincode/newscast/internal/playout"
	"github.com/friendsincode/newscast/internal/telemetry"
	"github.com/friendsincode/newscast/internal/timeline"
)

// ErrBusy is returned when a render is already in progress. Renders
// own per-invocation resources, but ffmpeg and frame extraction make
// concurrent renders resource-unbounded, so one at a time.
var ErrBusy = errors.New("render already in progress")

// Engine runs offline broadcast renders.
type Engine struct {
	cfg    *config.Config
	media  *media.Service
	bus    *events.Bus
	logger zerolog.Logger
	busy   atomic.Bool
}

// NewEngine creates a render engine.
func NewEngine(cfg *config.Config, mediaSvc *media.Service, bus *events.Bus, logger zerolog.Logger) *Engine {
	return &Engine{
		cfg:    cfg,
		media:  mediaSvc,
		bus:    bus,
		logger: logger.With().Str("component", "render").Logger(),
	}
}

// Busy reports whether a render is in progress.
func (e *Engine) Busy() bool {
	return e.busy.Load()
}

// Render produces the finished MP4 at outPath. A failure is terminal
// for this attempt only and never leaves the engine busy.
func (e *Engine) Render(ctx context.Context, b *models.Broadcast, outPath string) error {
	if !e.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer e.busy.Store(false)

	telemetry.RendersStarted.Inc()
	start := time.Now()
	e.bus.Publish(events.EventRenderStarted, events.Payload{"broadcast": b.ID, "out": outPath})

	err := e.render(ctx, b, outPath)
	telemetry.RenderDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		telemetry.RendersCompleted.WithLabelValues("failure").Inc()
		e.bus.Publish(events.EventRenderFailed, events.Payload{"broadcast": b.ID, "error": err.Error()})
		e.logger.Error().Err(err).Str("broadcast", b.ID).Msg("render failed")
		return err
	}

	telemetry.RendersCompleted.WithLabelValues("success").Inc()
	e.bus.Publish(events.EventRenderFinished, events.Payload{"broadcast": b.ID, "out": outPath})
	e.logger.Info().
		Str("broadcast", b.ID).
		Str("out", outPath).
		Dur("took", time.Since(start)).
		Msg("render finished")
	return nil
}

func (e *Engine) render(ctx context.Context, b *models.Broadcast, outPath string) error {
	prepared, err := playout.Prepare(b, e.cfg.IntroDuration, e.cfg.OutroDuration)
	if err != nil {
		return fmt.Errorf("prepare broadcast: %w", err)
	}

	resolver := clips.NewResolver(b.Videos, b.Config)
	clipSet, err := e.loadClips(ctx, resolver)
	if err != nil {
		return fmt.Errorf("load clips: %w", err)
	}

	masterPath, err := e.writeMasterWAV(prepared.Master)
	if err != nil {
		return fmt.Errorf("write master track: %w", err)
	}
	defer os.Remove(masterPath)

	ov, err := overlay.New(b.Config, b.News, b.Date(), e.cfg.TickerSpeedPxPerSec, e.cfg.TickerGapPx)
	if err != nil {
		return fmt.Errorf("overlay renderer: %w", err)
	}

	w, h := b.Config.Format.CanvasSize()
	return e.runFrameLoop(ctx, frameLoopInput{
		prepared: prepared,
		resolver: resolver,
		clips:    clipSet,
		overlay:  ov,
		width:    w,
		height:   h,
		master:   masterPath,
		outPath:  outPath,
	})
}

// loadClips fetches, extracts, and warms every distinct clip the
// broadcast can show. A url that resolves to an empty selection is not
// in this set; the frame loop falls back to the placeholder for those.
func (e *Engine) loadClips(ctx context.Context, resolver *clips.Resolver) (map[string]*media.Clip, error) {
	out := make(map[string]*media.Clip)
	for _, url := range resolver.DistinctURLs() {
		path, err := e.media.Fetch(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", url, err)
		}
		probe, err := e.media.Probe(ctx, path)
		if err != nil {
			return nil, fmt.Errorf("probe %s: %w", url, err)
		}
		if probe.Width == 0 || probe.Height == 0 {
			return nil, fmt.Errorf("probe %s: no video stream", url)
		}
		e.logger.Debug().
			Str("clip", url).
			Int("width", probe.Width).
			Int("height", probe.Height).
			Float64("duration", probe.Duration).
			Msg("clip probed")
		frames, err := e.media.ExtractFrames(ctx, path, e.cfg.RenderFPS)
		if err != nil {
			return nil, fmt.Errorf("extract frames %s: %w", url, err)
		}
		clip := media.NewClip(frames)
		if err := clip.Warm(); err != nil {
			return nil, fmt.Errorf("warm %s: %w", url, err)
		}
		out[url] = clip
	}
	return out, nil
}

func (e *Engine) writeMasterWAV(master *audio.Buffer) (string, error) {
	f, err := os.CreateTemp("", "newscast-master-*.wav")
	if err != nil {
		return "", err
	}
	if err := audio.EncodeWAV(f, master); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

type frameLoopInput struct {
	prepared *playout.Prepared
	resolver *clips.Resolver
	clips    map[string]*media.Clip
	overlay  *overlay.Renderer
	width    int
	height   int
	master   string
	outPath  string
}

// runFrameLoop drives the draw loop against the precomputed total
// duration and streams raw frames into ffmpeg. The canvas persists
// across frames, so the outro bumper fades in over the last content
// frame rather than over black.
func (e *Engine) runFrameLoop(ctx context.Context, in frameLoopInput) error {
	fps := e.cfg.RenderFPS
	sched := in.prepared.Schedule
	totalFrames := int(math.Ceil(sched.TotalSec * float64(fps)))

	cmd := exec.CommandContext(ctx, e.cfg.FFmpegBin,
		"-y",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", in.width, in.height),
		"-r", fmt.Sprintf("%d", fps),
		"-i", "pipe:0",
		"-i", in.master,
		"-c:v", "libx264",
		"-pix_fmt", "yuv420p",
		"-c:a", "aac",
		"-shortest",
		in.outPath,
	)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("ffmpeg stdin: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start ffmpeg: %w", err)
	}

	dc := gg.NewContext(in.width, in.height)
	dc.SetRGB(0, 0, 0)
	dc.Clear()
	an := analyzer.New(analyzer.DefaultFFTSize)

	writeErr := func() error {
		for i := 0; i < totalFrames; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			tSec := float64(i) / float64(fps)
			e.drawFrame(dc, in, an, tSec)
			telemetry.FramesDrawn.Inc()

			rgba, ok := dc.Image().(*image.RGBA)
			if !ok {
				return fmt.Errorf("unexpected canvas image type %T", dc.Image())
			}
			if _, err := stdin.Write(rgba.Pix); err != nil {
				return fmt.Errorf("write frame %d: %w", i, err)
			}

			if i%fps == 0 {
				e.bus.Publish(events.EventRenderProgress, events.Payload{
					"frame": i,
					"total": totalFrames,
				})
			}
		}
		return nil
	}()

	if closeErr := stdin.Close(); closeErr != nil && writeErr == nil {
		writeErr = fmt.Errorf("close ffmpeg stdin: %w", closeErr)
	}
	waitErr := cmd.Wait()
	if writeErr != nil {
		return writeErr
	}
	if waitErr != nil {
		return fmt.Errorf("ffmpeg: %w", waitErr)
	}
	return nil
}

// drawFrame composites one frame at tSec. Three regimes: intro bumper,
// content with overlays, outro bumper.
func (e *Engine) drawFrame(dc *gg.Context, in frameLoopInput, an *analyzer.Analyzer, tSec float64) {
	sched := in.prepared.Schedule

	switch sched.PhaseAt(tSec) {
	case models.PhaseIntro:
		progress := 0.0
		if sched.IntroSec > 0 {
			progress = tSec / sched.IntroSec
		}
		in.overlay.DrawIntroBumper(dc, progress)

	case models.PhaseOutro:
		progress := 0.0
		if sched.OutroSec > 0 {
			progress = (tSec - sched.OutroStart()) / sched.OutroSec
		}
		in.overlay.DrawOutroBumper(dc, progress)

	default:
		entry, hasEntry := in.prepared.Schedule.EntryAt(tSec)
		var entryPtr *timeline.Entry
		if hasEntry {
			entryPtr = &entry
		}
		sel := in.resolver.Resolve(models.PhaseContent, entryPtr)
		e.drawContent(dc, in, an, sel, tSec)

		if hasEntry {
			in.overlay.DrawCaption(dc, entry.Text)
		}
		in.overlay.DrawScanlines(dc)
		in.overlay.DrawNameBadge(dc)
		in.overlay.DrawDatePill(dc)
		in.overlay.DrawTicker(dc, tSec-sched.IntroSec)
	}
}

// drawContent blits the active clip and steps the frame-loop lip sync:
// gate the active clip by the analyser's talking classification, pause
// the rest, and advance the active clip one step per frame while it
// plays.
func (e *Engine) drawContent(dc *gg.Context, in frameLoopInput, an *analyzer.Analyzer, sel clips.Selection, tSec float64) {
	active := in.clips[sel.URL]
	talking := an.Talking(in.prepared.Master, tSec, e.cfg.TalkThreshold)

	for url, clip := range in.clips {
		if url != sel.URL && clip.Playing() {
			clip.Pause()
		}
	}

	if active == nil {
		drawPlaceholder(dc)
		return
	}

	clips.Gate(active, talking)
	active.Advance()

	frame, err := active.Frame()
	if err != nil {
		e.logger.Warn().Err(err).Str("clip", sel.URL).Msg("frame decode failed, placeholder shown")
		drawPlaceholder(dc)
		return
	}
	drawCover(dc, frame)
}

// drawPlaceholder fills the frame with the "no feed" card used when a
// selection has no usable asset.
func drawPlaceholder(dc *gg.Context) {
	dc.SetRGB(0.08, 0.08, 0.1)
	dc.Clear()
}

// CoverRect computes the cover-fit placement of a source of size
// (sw, sh) in a canvas of size (cw, ch): scaled by the larger of the
// two axis ratios and centered, cropping the overflow.
func CoverRect(cw, ch, sw, sh int) (scale, dx, dy float64) {
	if sw == 0 || sh == 0 {
		return 1, 0, 0
	}
	scale = math.Max(float64(cw)/float64(sw), float64(ch)/float64(sh))
	dx = (float64(cw) - float64(sw)*scale) / 2
	dy = (float64(ch) - float64(sh)*scale) / 2
	return scale, dx, dy
}

func drawCover(dc *gg.Context, img image.Image) {
	b := img.Bounds()
	scale, dx, dy := CoverRect(dc.Width(), dc.Height(), b.Dx(), b.Dy())

	dc.Push()
	dc.Translate(dx, dy)
	dc.Scale(scale, scale)
	dc.DrawImage(img, 0, 0)
	dc.Pop()
}
