/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package overlay draws the broadcast graphics: logo bumpers, caption
// band, scanlines, name and date badges, and the scrolling breaking
// news ticker. All routines are stateless draws over a gg context at
// a given timeline position, so the offline renderer and any future
// surface produce identical frames from identical inputs.
package overlay

import (
	"fmt"
	"image/color"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/fogleman/gg"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/friendsincode/newscast/internal/models"
)

// Default brand colors when the channel config carries none or an
// unparsable value. Asset gaps degrade, they never abort.
var (
	defaultColor1 = color.RGBA{R: 0xcc, G: 0x00, B: 0x22, A: 0xff}
	defaultColor2 = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
)

// ParseHexColor parses #rgb or #rrggbb.
func ParseHexColor(s string) (color.RGBA, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	var r, g, b uint8
	switch len(s) {
	case 3:
		if _, err := fmt.Sscanf(s, "%1x%1x%1x", &r, &g, &b); err != nil {
			return color.RGBA{}, fmt.Errorf("parse color %q: %w", s, err)
		}
		r, g, b = r*17, g*17, b*17
	case 6:
		if _, err := fmt.Sscanf(s, "%02x%02x%02x", &r, &g, &b); err != nil {
			return color.RGBA{}, fmt.Errorf("parse color %q: %w", s, err)
		}
	default:
		return color.RGBA{}, fmt.Errorf("parse color %q: bad length", s)
	}
	return color.RGBA{R: r, G: g, B: b, A: 0xff}, nil
}

// BumperScale maps intro progress in [0,1] to the logo scale, shrinking
// from 2.0 to rest size at full opacity.
func BumperScale(progress float64) float64 {
	return 2.0 - clamp01(progress)
}

// BumperAlpha maps outro progress in [0,1] to the logo opacity, fading
// in at rest scale.
func BumperAlpha(progress float64) float64 {
	return clamp01(progress)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// TickerOffset computes the x position of the scrolling headline run.
// The text starts flush with the badge's right edge and scrolls left at
// speed px/s, wrapping modulo one loop width (text width plus gap) so
// the run can be drawn at offset, offset+loop, and offset-loop for a
// seamless band. The returned value is in (badgeWidth-loop, badgeWidth].
func TickerOffset(badgeWidth, textWidth, gap, speed, elapsedSec float64) float64 {
	loop := textWidth + gap
	if loop <= 0 {
		return badgeWidth
	}
	scrolled := math.Mod(elapsedSec*speed, loop)
	if scrolled < 0 {
		scrolled += loop
	}
	return badgeWidth - scrolled
}

// TickerText joins all headlines with a bullet separator. An empty news
// list yields an empty string, a degenerate but valid ticker.
func TickerText(news []models.NewsItem) string {
	parts := make([]string, 0, len(news))
	for _, item := range news {
		if item.Headline != "" {
			parts = append(parts, item.Headline)
		}
	}
	return strings.Join(parts, "  •  ")
}

// Renderer draws overlays for one broadcast. It is safe for a single
// render loop; the face cache is guarded for warm-up from other
// goroutines.
type Renderer struct {
	config models.ChannelConfig
	news   []models.NewsItem
	date   time.Time

	color1 color.Color
	color2 color.Color

	tickerSpeed float64
	tickerGap   float64

	regular *truetype.Font
	bold    *truetype.Font

	mu    sync.Mutex
	faces map[faceKey]font.Face
}

type faceKey struct {
	bold bool
	size float64
}

// New builds a renderer for the broadcast's styling. Unparsable brand
// colors fall back to the defaults.
func New(cfg models.ChannelConfig, news []models.NewsItem, date time.Time, tickerSpeed, tickerGap float64) (*Renderer, error) {
	regular, err := truetype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse regular font: %w", err)
	}
	boldFont, err := truetype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse bold font: %w", err)
	}

	r := &Renderer{
		config:      cfg,
		news:        news,
		date:        date,
		tickerSpeed: tickerSpeed,
		tickerGap:   tickerGap,
		regular:     regular,
		bold:        boldFont,
		faces:       make(map[faceKey]font.Face),
	}
	r.color1 = parseOrDefault(cfg.LogoColor1, defaultColor1)
	r.color2 = parseOrDefault(cfg.LogoColor2, defaultColor2)
	return r, nil
}

func parseOrDefault(s string, fallback color.RGBA) color.Color {
	if s == "" {
		return fallback
	}
	c, err := ParseHexColor(s)
	if err != nil {
		return fallback
	}
	return c
}

func (r *Renderer) face(bold bool, size float64) font.Face {
	key := faceKey{bold: bold, size: size}
	r.mu.Lock()
	defer r.mu.Unlock()
	if f, ok := r.faces[key]; ok {
		return f
	}
	src := r.regular
	if bold {
		src = r.bold
	}
	f := truetype.NewFace(src, &truetype.Options{Size: size})
	r.faces[key] = f
	return f
}

// unit returns the layout scale relative to the 720p reference design.
func unit(dc *gg.Context) float64 {
	return float64(dc.Height()) / 720.0
}

// DrawIntroBumper draws the shrinking logo over a brand-colored card at
// full opacity. progress runs 0..1 across the intro.
func (r *Renderer) DrawIntroBumper(dc *gg.Context, progress float64) {
	r.drawBumper(dc, BumperScale(progress), 1.0)
}

// DrawOutroBumper draws the logo fading in at rest scale. progress runs
// 0..1 across the outro.
func (r *Renderer) DrawOutroBumper(dc *gg.Context, progress float64) {
	r.drawBumper(dc, 1.0, BumperAlpha(progress))
}

func (r *Renderer) drawBumper(dc *gg.Context, scale, alpha float64) {
	w := float64(dc.Width())
	h := float64(dc.Height())
	u := unit(dc)

	dc.Push()
	defer dc.Pop()

	dc.SetRGBA(0.04, 0.04, 0.08, alpha)
	dc.DrawRectangle(0, 0, w, h)
	dc.Fill()

	name := r.config.ChannelName
	split := splitBadge(name)

	size := 72 * u * scale
	dc.SetFontFace(r.face(true, size))
	headWidth, _ := dc.MeasureString(split.head)
	tailWidth, _ := dc.MeasureString(split.tail)
	x := (w - headWidth - tailWidth) / 2
	y := h / 2

	dc.SetColor(withAlpha(r.color1, alpha))
	dc.DrawStringAnchored(split.head, x+headWidth/2, y, 0.5, 0.5)
	dc.SetColor(withAlpha(r.color2, alpha))
	dc.DrawStringAnchored(split.tail, x+headWidth+tailWidth/2, y, 0.5, 0.5)

	if r.config.Tagline != "" {
		dc.SetFontFace(r.face(false, 24*u))
		dc.SetRGBA(1, 1, 1, 0.8*alpha)
		dc.DrawStringAnchored(r.config.Tagline, w/2, y+60*u*scale, 0.5, 0.5)
	}
}

// DrawCaption draws the semi-opaque caption band with the active
// segment's text. No-op when captions are disabled or text is empty.
func (r *Renderer) DrawCaption(dc *gg.Context, text string) {
	if !r.config.CaptionsEnabled || text == "" {
		return
	}
	w := float64(dc.Width())
	h := float64(dc.Height())
	u := unit(dc)

	bandH := 64 * u
	y := h - 140*u

	dc.Push()
	defer dc.Pop()

	dc.SetRGBA(0, 0, 0, 0.65)
	dc.DrawRectangle(0, y, w, bandH)
	dc.Fill()

	dc.SetFontFace(r.face(false, 26*u))
	dc.SetRGB(1, 1, 1)
	dc.DrawStringWrapped(text, w/2, y+bandH/2, 0.5, 0.5, w-80*u, 1.2, gg.AlignCenter)
}

// DrawScanlines draws the decorative translucent horizontal bars.
func (r *Renderer) DrawScanlines(dc *gg.Context) {
	w := float64(dc.Width())
	h := dc.Height()
	step := int(4 * unit(dc))
	if step < 2 {
		step = 2
	}

	dc.Push()
	defer dc.Pop()
	dc.SetRGBA(0, 0, 0, 0.08)
	for y := 0; y < h; y += step {
		dc.DrawRectangle(0, float64(y), w, 1)
	}
	dc.Fill()
}

// badgeSplit is a channel name split for two-tone rendering: the first
// five characters in the primary color, the remainder in the secondary.
type badgeSplit struct {
	head string
	tail string
}

func splitBadge(name string) badgeSplit {
	runes := []rune(name)
	if len(runes) <= 5 {
		return badgeSplit{head: name}
	}
	return badgeSplit{head: string(runes[:5]), tail: string(runes[5:])}
}

// DrawNameBadge draws the two-tone channel name badge in the top left.
func (r *Renderer) DrawNameBadge(dc *gg.Context) {
	u := unit(dc)
	split := splitBadge(r.config.ChannelName)

	dc.Push()
	defer dc.Pop()

	dc.SetFontFace(r.face(true, 30*u))
	headWidth, _ := dc.MeasureString(split.head)
	tailWidth, _ := dc.MeasureString(split.tail)

	padX := 16 * u
	badgeH := 46 * u
	x := 32 * u
	y := 32 * u

	dc.SetRGBA(0, 0, 0, 0.7)
	dc.DrawRoundedRectangle(x, y, headWidth+tailWidth+2*padX, badgeH, 6*u)
	dc.Fill()

	textY := y + badgeH/2
	dc.SetColor(r.color1)
	dc.DrawStringAnchored(split.head, x+padX+headWidth/2, textY, 0.5, 0.5)
	dc.SetColor(r.color2)
	dc.DrawStringAnchored(split.tail, x+padX+headWidth+tailWidth/2, textY, 0.5, 0.5)
}

// DrawDatePill draws the long-form broadcast date in a pill, top right.
func (r *Renderer) DrawDatePill(dc *gg.Context) {
	w := float64(dc.Width())
	u := unit(dc)
	text := r.date.Format("Monday, January 2, 2006")

	dc.Push()
	defer dc.Pop()

	dc.SetFontFace(r.face(false, 20*u))
	textW, _ := dc.MeasureString(text)

	padX := 14 * u
	pillH := 36 * u
	x := w - textW - 2*padX - 32*u
	y := 32 * u

	dc.SetRGBA(0, 0, 0, 0.7)
	dc.DrawRoundedRectangle(x, y, textW+2*padX, pillH, pillH/2)
	dc.Fill()

	dc.SetRGB(1, 1, 1)
	dc.DrawStringAnchored(text, x+padX+textW/2, y+pillH/2, 0.5, 0.5)
}

// DrawTicker draws the bottom breaking-news bar: a labeled badge on the
// left and the headline run scrolling right-to-left, drawn up to three
// times within the clipped band for seamless wraparound.
// elapsedSinceIntroSec is time since the intro ended.
func (r *Renderer) DrawTicker(dc *gg.Context, elapsedSinceIntroSec float64) {
	w := float64(dc.Width())
	h := float64(dc.Height())
	u := unit(dc)

	barH := 56 * u
	barY := h - barH

	dc.Push()
	defer dc.Pop()

	dc.SetRGBA(0.05, 0.05, 0.1, 0.95)
	dc.DrawRectangle(0, barY, w, barH)
	dc.Fill()

	label := "BREAKING"
	dc.SetFontFace(r.face(true, 24*u))
	labelW, _ := dc.MeasureString(label)
	badgeW := labelW + 32*u

	text := TickerText(r.news)
	dc.SetFontFace(r.face(false, 24*u))
	textW, _ := dc.MeasureString(text)

	gap := r.tickerGap * u
	loop := textW + gap
	offset := TickerOffset(badgeW, textW, gap, r.tickerSpeed*u, elapsedSinceIntroSec)

	textY := barY + barH/2
	if text != "" {
		dc.Push()
		dc.DrawRectangle(badgeW, barY, w-badgeW, barH)
		dc.Clip()
		dc.SetRGB(1, 1, 1)
		dc.DrawStringAnchored(text, offset+textW/2, textY, 0.5, 0.5)
		dc.DrawStringAnchored(text, offset+loop+textW/2, textY, 0.5, 0.5)
		if offset < badgeW {
			dc.DrawStringAnchored(text, offset-loop+textW/2, textY, 0.5, 0.5)
		}
		dc.ResetClip()
		dc.Pop()
	}

	dc.SetColor(r.color1)
	dc.DrawRectangle(0, barY, badgeW, barH)
	dc.Fill()
	dc.SetFontFace(r.face(true, 24*u))
	dc.SetRGB(1, 1, 1)
	dc.DrawStringAnchored(label, badgeW/2, textY, 0.5, 0.5)
}

func withAlpha(c color.Color, alpha float64) color.Color {
	r, g, b, _ := c.RGBA()
	return color.NRGBA{
		R: uint8(r >> 8),
		G: uint8(g >> 8),
		B: uint8(b >> 8),
		A: uint8(clamp01(alpha) * 255),
	}
}
