package main

import (
	"fmt"
	"math"
)

// Point is a screen position in pixels.
type Point struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

// DetectionSample is one observation from the detection subsystem.
//
// Offset is target_position - actuator_position, with the sign convention owned
// by the detector. It is nil when the detector found nothing this tick.
// Hint, when set, is where the actuator (the bar) currently sits on screen.
type DetectionSample struct {
	Active bool
	Offset *float64
	Hint   *Point
}

// NewSample returns an active sample carrying offset.
func NewSample(offset float64) *DetectionSample {
	return &DetectionSample{Active: true, Offset: &offset}
}

// WithHint attaches an actuator position to s and returns s.
func (s *DetectionSample) WithHint(x, y int) *DetectionSample {
	s.Hint = &Point{X: x, Y: y}
	return s
}

func (s *DetectionSample) String() string {
	if s == nil {
		return "<nil>"
	}
	if s.Offset == nil {
		return fmt.Sprintf("sample(active=%v offset=none)", s.Active)
	}
	return fmt.Sprintf("sample(active=%v offset=%.2f)", s.Active, *s.Offset)
}

// normalized is a cleaned-up sample: either a usable offset or nothing.
type normalized struct {
	ok     bool
	offset float64
	hint   *Point
}

// normalize folds every flavour of "no data" (nil sample, inactive sample,
// missing offset) into a single not-ok signal. A NaN or infinite offset is a
// detector bug and is treated the same way.
func normalize(s *DetectionSample) normalized {
	if s == nil || !s.Active || s.Offset == nil {
		return normalized{}
	}
	if math.IsNaN(*s.Offset) || math.IsInf(*s.Offset, 0) {
		return normalized{}
	}
	return normalized{ok: true, offset: *s.Offset, hint: s.Hint}
}
