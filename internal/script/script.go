// Package script generates the narration script for a session's slides by
// sending the uploaded images to a vision-capable chat model.
package script

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Slide pairs one image with its caption and narration text.
type Slide struct {
	Caption   string `json:"caption"`
	Narration string `json:"narration"`
}

// Script is the persisted output of the script stage: one entry per slide, in
// upload order.
type Script struct {
	Slides []Slide `json:"slides"`
}

// Validate checks the script matches the expected slide count and that every
// slide has narration text.
func (s Script) Validate(expectedSlides int) error {
	if len(s.Slides) != expectedSlides {
		return fmt.Errorf("script has %d slides, expected %d", len(s.Slides), expectedSlides)
	}
	for i, slide := range s.Slides {
		if strings.TrimSpace(slide.Narration) == "" {
			return fmt.Errorf("slide %d has empty narration", i)
		}
	}
	return nil
}

// Save writes the script as JSON to path, creating parent directories.
func (s Script) Save(path string) error {
	encoded, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode script: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create script directory: %w", err)
	}
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		return fmt.Errorf("write script: %w", err)
	}
	return nil
}

// Load reads a script JSON file produced by Save.
func Load(path string) (Script, error) {
	var script Script
	data, err := os.ReadFile(path)
	if err != nil {
		return script, fmt.Errorf("read script: %w", err)
	}
	if err := json.Unmarshal(data, &script); err != nil {
		return script, fmt.Errorf("decode script: %w", err)
	}
	if len(script.Slides) == 0 {
		return script, errors.New("script has no slides")
	}
	return script, nil
}
