// Package testdata provides scripted hand sequences for end-to-end tests.
package testdata

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ayusman/aircanvas/internal/detector"
)

//go:embed scripts/*
var scriptsFS embed.FS

// Poses understood by scripts.
const (
	PoseNone  = "none"
	PosePoint = "point"
	PosePalm  = "palm"
	PoseFist  = "fist"
)

// Step is one frame of a script. X and Y are the index fingertip in pixels.
// Thumb, if set, places the thumb tip at that pixel offset from the
// fingertip; [0, 0] is a full pinch.
type Step struct {
	Pose  string  `json:"pose"`
	X     int     `json:"x"`
	Y     int     `json:"y"`
	Thumb *[2]int `json:"thumb,omitempty"`
}

// Script is a named frame sequence with the outcome it should produce.
type Script struct {
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Steps  []Step `json:"steps"`
	// Expect lists pixels and the hex color they must have afterwards.
	Expect []Pixel `json:"expect"`
	// Strokes is the number of segments the script commits.
	Strokes int `json:"strokes"`
	// Color is the selected color once the script ends.
	Color string `json:"color"`
}

// Pixel is an expected canvas color.
type Pixel struct {
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Color string `json:"color"`
}

// LoadScript loads a script by name, without the .json suffix.
func LoadScript(name string) (*Script, error) {
	data, err := scriptsFS.ReadFile("scripts/" + name + ".json")
	if err != nil {
		return nil, fmt.Errorf("load script %s: %w", name, err)
	}

	var s Script
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("decode script %s: %w", name, err)
	}
	if s.Name == "" {
		s.Name = name
	}
	for i, step := range s.Steps {
		if _, err := step.pose(); err != nil {
			return nil, fmt.Errorf("script %s step %d: %w", name, i, err)
		}
	}
	return &s, nil
}

// LoadScripts loads every embedded script.
func LoadScripts() ([]*Script, error) {
	entries, err := scriptsFS.ReadDir("scripts")
	if err != nil {
		return nil, err
	}

	var scripts []*Script
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		s, err := LoadScript(strings.TrimSuffix(entry.Name(), ".json"))
		if err != nil {
			return nil, err
		}
		scripts = append(scripts, s)
	}
	return scripts, nil
}

func (st Step) pose() (detector.HandLandmarks, error) {
	switch st.Pose {
	case PosePoint:
		return detector.PointingLandmarks(), nil
	case PosePalm:
		return detector.OpenPalmLandmarks(), nil
	case PoseFist:
		return detector.FistLandmarks(), nil
	case PoseNone:
		return detector.HandLandmarks{}, nil
	default:
		return detector.HandLandmarks{}, fmt.Errorf("unknown pose %q", st.Pose)
	}
}

// Observation builds the landmarks for the step on a width x height frame,
// or nil when no hand is visible. Landmarks land on pixel centers, so the
// fingertip projects exactly onto (X, Y).
func (st Step) Observation(width, height int) *detector.HandLandmarks {
	if st.Pose == PoseNone {
		return nil
	}
	base, err := st.pose()
	if err != nil {
		return nil
	}

	x := (float64(st.X) + 0.5) / float64(width)
	y := (float64(st.Y) + 0.5) / float64(height)
	hand := base.MovedTo(x, y, 0.1)
	if st.Thumb != nil {
		hand = hand.WithThumbAt(
			(float64(st.X+st.Thumb[0])+0.5)/float64(width),
			(float64(st.Y+st.Thumb[1])+0.5)/float64(height),
		)
	}
	return &hand
}
