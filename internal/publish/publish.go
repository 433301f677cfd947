/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package publish moves finished renders out of the engine: a local
// downloads copy, an optional S3 upload, and an optional hand-off to
// an external uploader. Publishing mechanics beyond the hand-off are
// out of scope here.
package publish

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"

	"github.com/friendsincode/newscast/internal/config"
	"github.com/friendsincode/newscast/internal/events"
	"github.com/friendsincode/newscast/internal/models"
)

// UploadFunc hands a finished file to an external uploader (YouTube or
// similar). The callee owns all upload mechanics.
type UploadFunc func(ctx context.Context, path string) error

// Result describes where a broadcast ended up.
type Result struct {
	LocalPath string
	S3Key     string
	S3URL     string
}

// Publisher finalizes renders.
type Publisher struct {
	cfg    *config.Config
	bus    *events.Bus
	logger zerolog.Logger
	s3c    *s3.Client

	// Upload, when set, is invoked after local and S3 placement.
	Upload UploadFunc
}

// NewPublisher builds a publisher. The S3 client is only constructed
// when a bucket is configured.
func NewPublisher(ctx context.Context, cfg *config.Config, bus *events.Bus, logger zerolog.Logger) (*Publisher, error) {
	p := &Publisher{
		cfg:    cfg,
		bus:    bus,
		logger: logger.With().Str("component", "publish").Logger(),
	}

	if cfg.S3Enabled() {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(cfg.S3Region),
			awsconfig.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(cfg.S3AccessKeyID, cfg.S3SecretAccessKey, ""),
			),
		)
		if err != nil {
			return nil, fmt.Errorf("aws config: %w", err)
		}
		p.s3c = s3.NewFromConfig(awsCfg, func(o *s3.Options) {
			if cfg.S3Endpoint != "" {
				o.BaseEndpoint = aws.String(cfg.S3Endpoint)
			}
			o.UsePathStyle = cfg.S3UsePathStyle
		})
	}
	return p, nil
}

// Filename derives the broadcast's output filename from the channel
// name and display date.
func Filename(channelName string, date time.Time) string {
	name := sanitize(channelName)
	if name == "" {
		name = "broadcast"
	}
	return fmt.Sprintf("%s_%s.mp4", name, date.Format("2006-01-02"))
}

// sanitize strips path separators and whitespace runs from a channel
// name so it is safe as a filename on every platform.
func sanitize(s string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(s) {
		switch {
		case r == '/' || r == '\\' || r == ':':
			b.WriteRune('-')
		case r == ' ':
			b.WriteRune('_')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Destination returns the downloads path a broadcast should render to.
func (p *Publisher) Destination(b *models.Broadcast) string {
	return filepath.Join(p.cfg.DownloadsDir, Filename(b.Config.ChannelName, b.Date()))
}

// Publish places the rendered file: copies it into the downloads
// directory if it is not already there, uploads to S3 when configured,
// and invokes the external upload hand-off when set. Any failure is
// terminal for that destination but earlier placements stand.
func (p *Publisher) Publish(ctx context.Context, b *models.Broadcast, renderedPath string) (*Result, error) {
	res := &Result{LocalPath: renderedPath}

	dest := p.Destination(b)
	if renderedPath != dest {
		if err := copyFile(renderedPath, dest); err != nil {
			return nil, fmt.Errorf("copy to downloads: %w", err)
		}
		res.LocalPath = dest
	}

	if p.s3c != nil {
		key := Filename(b.Config.ChannelName, b.Date())
		if err := p.uploadS3(ctx, res.LocalPath, key); err != nil {
			return nil, fmt.Errorf("s3 upload: %w", err)
		}
		res.S3Key = key
		if p.cfg.S3PublicBaseURL != "" {
			res.S3URL = strings.TrimSuffix(p.cfg.S3PublicBaseURL, "/") + "/" + key
		}
		p.logger.Info().Str("bucket", p.cfg.S3Bucket).Str("key", key).Msg("uploaded to S3")
	}

	if p.Upload != nil {
		if err := p.Upload(ctx, res.LocalPath); err != nil {
			return nil, fmt.Errorf("external upload: %w", err)
		}
	}

	p.bus.Publish(events.EventPublished, events.Payload{
		"broadcast": b.ID,
		"path":      res.LocalPath,
		"s3_key":    res.S3Key,
		"url":       res.S3URL,
	})
	return res, nil
}

func (p *Publisher) uploadS3(ctx context.Context, path, key string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = p.s3c.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.cfg.S3Bucket),
		Key:         aws.String(key),
		Body:        f,
		ContentType: aws.String("video/mp4"),
	})
	return err
}

func copyFile(src, dst string) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp := dst + ".part"
	out, err := os.Create(tmp)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(tmp)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(tmp)
		return err
	}
	return os.Rename(tmp, dst)
}
