/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package media

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Service fetches remote clips into an on-disk cache and turns them
// into frame sequences the renderer can step through.
type Service struct {
	root       string
	ffmpegBin  string
	ffprobeBin string
	client     *http.Client
	logger     zerolog.Logger
}

// NewService creates a media service rooted at the given cache dir.
func NewService(root, ffmpegBin, ffprobeBin string, logger zerolog.Logger) *Service {
	return &Service{
		root:       root,
		ffmpegBin:  ffmpegBin,
		ffprobeBin: ffprobeBin,
		client:     &http.Client{Timeout: 60 * time.Second},
		logger:     logger.With().Str("component", "media").Logger(),
	}
}

// Fetch resolves a clip URL to a local file, downloading it into the
// cache on first use. Local paths pass through untouched.
func (s *Service) Fetch(ctx context.Context, url string) (string, error) {
	if url == "" {
		return "", fmt.Errorf("empty clip url")
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		if _, err := os.Stat(url); err != nil {
			return "", fmt.Errorf("local clip %s: %w", url, err)
		}
		return url, nil
	}

	cached := filepath.Join(s.root, "clips", cacheKey(url)+urlExt(url))
	if _, err := os.Stat(cached); err == nil {
		return cached, nil
	}

	if err := os.MkdirAll(filepath.Dir(cached), 0o755); err != nil {
		return "", fmt.Errorf("create clip cache dir: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build clip request: %w", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch clip %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch clip %s: status %d", url, resp.StatusCode)
	}

	tmp := cached + ".part"
	out, err := os.Create(tmp)
	if err != nil {
		return "", fmt.Errorf("create clip file: %w", err)
	}
	if _, err := io.Copy(out, resp.Body); err != nil {
		out.Close()
		os.Remove(tmp)
		return "", fmt.Errorf("download clip %s: %w", url, err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("close clip file: %w", err)
	}
	if err := os.Rename(tmp, cached); err != nil {
		return "", fmt.Errorf("finalize clip file: %w", err)
	}

	s.logger.Debug().Str("url", url).Str("path", cached).Msg("clip cached")
	return cached, nil
}

// ProbeResult carries the stream facts the renderer needs.
type ProbeResult struct {
	Width    int
	Height   int
	Duration float64
}

type ffprobeOutput struct {
	Streams []struct {
		Width  int `json:"width"`
		Height int `json:"height"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Probe reads the clip's native dimensions and duration via ffprobe.
func (s *Service) Probe(ctx context.Context, path string) (*ProbeResult, error) {
	cmd := exec.CommandContext(ctx, s.ffprobeBin,
		"-v", "error",
		"-select_streams", "v:0",
		"-show_entries", "stream=width,height",
		"-show_entries", "format=duration",
		"-of", "json",
		path,
	)
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("ffprobe %s: %w", path, err)
	}

	var parsed ffprobeOutput
	if err := json.Unmarshal(out, &parsed); err != nil {
		return nil, fmt.Errorf("parse ffprobe output: %w", err)
	}
	if len(parsed.Streams) == 0 {
		return nil, fmt.Errorf("no video stream in %s", path)
	}

	result := &ProbeResult{
		Width:  parsed.Streams[0].Width,
		Height: parsed.Streams[0].Height,
	}
	if d, err := strconv.ParseFloat(parsed.Format.Duration, 64); err == nil {
		result.Duration = d
	}
	return result, nil
}

// ExtractFrames decodes the clip into a cached JPEG frame sequence at
// the given rate. Re-extraction is skipped when the cache already holds
// the sequence.
func (s *Service) ExtractFrames(ctx context.Context, path string, fps int) (*FrameSequence, error) {
	probe, err := s.Probe(ctx, path)
	if err != nil {
		return nil, err
	}

	dir := filepath.Join(s.root, "frames", fmt.Sprintf("%s_%d", cacheKey(path), fps))
	frames, err := listFrameFiles(dir)
	if err == nil && len(frames) > 0 {
		return newFrameSequence(frames, probe.Width, probe.Height, fps), nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create frames dir: %w", err)
	}

	cmd := exec.CommandContext(ctx, s.ffmpegBin,
		"-i", path,
		"-vf", fmt.Sprintf("fps=%d", fps),
		"-q:v", "3",
		"-loglevel", "error",
		"-y",
		filepath.Join(dir, "%06d.jpg"),
	)
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("extract frames from %s: %w", path, err)
	}

	frames, err = listFrameFiles(dir)
	if err != nil {
		return nil, err
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("no frames extracted from %s", path)
	}

	s.logger.Debug().Str("clip", path).Int("frames", len(frames)).Msg("frames extracted")
	return newFrameSequence(frames, probe.Width, probe.Height, fps), nil
}

func listFrameFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var frames []string
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".jpg") {
			frames = append(frames, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(frames)
	return frames, nil
}

func cacheKey(s string) string {
	sum := sha1.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}

// urlExt returns the file extension of a URL's path, ignoring any query
// string or fragment.
func urlExt(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return filepath.Ext(rawURL)
	}
	return filepath.Ext(u.Path)
}
