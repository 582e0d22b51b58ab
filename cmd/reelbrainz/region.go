package main

import (
	"errors"
	"fmt"
	"image"

	"github.com/kbinani/screenshot"
)

// Region is the calibrated screen rectangle the detector samples from. It is
// picked once per session, before the control loop starts. The controller
// never reads it.
type Region struct {
	X       int `yaml:"x"`
	Y       int `yaml:"y"`
	Width   int `yaml:"width"`
	Height  int `yaml:"height"`
	Display int `yaml:"display"`
}

func (r Region) Rect() image.Rectangle {
	return image.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

func (r Region) String() string {
	return fmt.Sprintf("%dx%d+%d+%d@%d", r.Width, r.Height, r.X, r.Y, r.Display)
}

// Validate checks the rectangle itself, without looking at any display.
func (r Region) Validate() error {
	if r.Width <= 0 || r.Height <= 0 {
		return errors.New("region.width and region.height must be > 0")
	}
	if r.Display < 0 {
		return errors.New("region.display must be >= 0")
	}
	return nil
}

// displayBounds reports the number of active displays and the bounds of one.
type displayBounds interface {
	NumDisplays() int
	Bounds(display int) image.Rectangle
}

type screenshotDisplays struct{}

func (screenshotDisplays) NumDisplays() int             { return screenshot.NumActiveDisplays() }
func (screenshotDisplays) Bounds(i int) image.Rectangle { return screenshot.GetDisplayBounds(i) }

// CheckBounds verifies the region lies inside its display.
func (r Region) CheckBounds(d displayBounds) error {
	if err := r.Validate(); err != nil {
		return err
	}
	n := d.NumDisplays()
	if r.Display >= n {
		return fmt.Errorf("region.display %d not found (%d active displays)", r.Display, n)
	}
	b := d.Bounds(r.Display)
	if !r.Rect().In(b) {
		return fmt.Errorf("region %s is outside display %d bounds %v", r, r.Display, b)
	}
	return nil
}
