package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/friendsincode/newscast/internal/models"
)

// loadJob reads a broadcast job file. JSON by extension, YAML otherwise.
// A missing ID gets a generated one so events and logs can reference
// the broadcast.
func loadJob(path string) (*models.Broadcast, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var b models.Broadcast
	if strings.EqualFold(filepath.Ext(path), ".json") {
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	} else {
		if err := yaml.Unmarshal(data, &b); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	if b.ID == "" {
		b.ID = uuid.NewString()
	}

	// Segment audio files are resolved relative to the job file so jobs
	// can ship alongside their assets.
	base := filepath.Dir(path)
	for i, seg := range b.Segments {
		if seg.AudioFile != "" && !filepath.IsAbs(seg.AudioFile) {
			b.Segments[i].AudioFile = filepath.Join(base, seg.AudioFile)
		}
	}
	return &b, nil
}
