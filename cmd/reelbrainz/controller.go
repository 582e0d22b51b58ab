package main

import (
	"fmt"
	"log/slog"
	"time"
)

// ControllerMode selects the actuation strategy.
//
// Hysteresis mode (default):
// - holds the button while the bar is behind the target, releases once it is ahead
// - a symmetric deadband of +/- Threshold around zero keeps the current state
// - Cooldown debounces state changes
//
// Pulse mode:
// - no hold state across ticks
// - every non-negative offset produces one blocking press-sleep-release pulse whose
//   length grows linearly from MinHold to MaxHold up to SaturationOffset
// - a negative offset releases
type ControllerMode string

const (
	ControllerModeHysteresis ControllerMode = "hysteresis"
	ControllerModePulse      ControllerMode = "pulse"
)

// ControllerConfig contains the tunables of a controller. It is copied at
// construction and never changes afterwards.
type ControllerConfig struct {
	Mode ControllerMode

	Threshold float64       // Deadband half-width (hysteresis mode)
	Cooldown  time.Duration // Minimum spacing between state-changing actions

	MinHold          time.Duration // Pulse mode: shortest pulse
	MaxHold          time.Duration // Pulse mode: longest pulse
	SaturationOffset float64       // Pulse mode: offset at which MaxHold is reached

	Button Button
}

func (c ControllerConfig) withDefaults() ControllerConfig {
	if c.Mode == "" {
		c.Mode = ControllerModeHysteresis
	}
	if c.Button == "" {
		c.Button = Button(defaultButton)
	}
	if c.SaturationOffset <= 0 {
		c.SaturationOffset = defaultSaturationOffset
	}
	if c.Threshold < 0 {
		c.Threshold = -c.Threshold
	}
	if c.Cooldown < 0 {
		c.Cooldown = 0
	}
	if c.MinHold < 0 {
		c.MinHold = 0
	}
	if c.MaxHold < c.MinHold {
		c.MaxHold = c.MinHold
	}
	return c
}

// Outcome is what a single Update did.
type Outcome int

const (
	OutcomeIdle          Outcome = iota // nothing to do (deadband, already in the right state)
	OutcomeDebounced                    // inside the cooldown window, no decision made
	OutcomePress                        // button pressed
	OutcomeMoveThenPress                // pointer moved to the hint, then pressed
	OutcomeRelease                      // button released
	OutcomePulse                        // press-hold-release pulse
)

func (o Outcome) String() string {
	switch o {
	case OutcomeIdle:
		return "idle"
	case OutcomeDebounced:
		return "debounced"
	case OutcomePress:
		return "press"
	case OutcomeMoveThenPress:
		return "move_press"
	case OutcomeRelease:
		return "release"
	case OutcomePulse:
		return "pulse"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// Controller turns detection samples into pointer-button commands.
//
// Implementations are not safe for concurrent use: one controller owns the
// pointer button for a whole session and is driven from a single goroutine.
// Neither method returns an error; actuator failures are logged and the
// controller falls back to a released button.
type Controller interface {
	// Update consumes the sample for one tick and issues at most one command.
	Update(s *DetectionSample) Outcome

	// Reset releases the button unconditionally.
	Reset()

	// Mode reports which strategy this controller implements.
	Mode() ControllerMode
}

// Clock is the time source of a controller.
type Clock interface {
	Now() time.Time
	Sleep(d time.Duration)
}

type systemClock struct{}

func (systemClock) Now() time.Time        { return time.Now() }
func (systemClock) Sleep(d time.Duration) { time.Sleep(d) }

// newController builds the controller selected by cfg.Mode. A nil clock means
// the wall clock.
func newController(cfg ControllerConfig, act Actuator, clock Clock, logger *slog.Logger) (Controller, error) {
	cfg = cfg.withDefaults()
	switch cfg.Mode {
	case ControllerModeHysteresis:
		return newHysteresisController(cfg, act, clock, logger), nil
	case ControllerModePulse:
		return newPulseController(cfg, act, clock, logger), nil
	default:
		return nil, fmt.Errorf("unknown controller mode %q", cfg.Mode)
	}
}
