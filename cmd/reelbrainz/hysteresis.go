package main

import (
	"log/slog"
	"time"
)

// hysteresisController is a bang-bang controller with a deadband and a
// cooldown: it holds the button while the bar lags the target and lets go
// once the bar overshoots.
type hysteresisController struct {
	cfg    ControllerConfig
	act    Actuator
	clock  Clock
	logger *slog.Logger
	errs   *actuatorErrorLog

	holding    bool      // Commanded button state; the only source of truth for press/release
	lastAction time.Time // When the button last changed state
}

func newHysteresisController(cfg ControllerConfig, act Actuator, clock Clock, logger *slog.Logger) *hysteresisController {
	if clock == nil {
		clock = systemClock{}
	}
	return &hysteresisController{
		cfg:        cfg.withDefaults(),
		act:        act,
		clock:      clock,
		logger:     logger,
		errs:       newActuatorErrorLog(logger),
		lastAction: clock.Now(),
	}
}

func (c *hysteresisController) Mode() ControllerMode { return ControllerModeHysteresis }

// Holding reports the commanded button state.
func (c *hysteresisController) Holding() bool { return c.holding }

func (c *hysteresisController) Update(s *DetectionSample) Outcome {
	sig := normalize(s)

	// Loss of signal releases immediately; the cooldown must never leave the
	// button stuck down while the detector is blind.
	if !sig.ok {
		if !c.holding {
			return OutcomeIdle
		}
		c.release(c.clock.Now())
		return OutcomeRelease
	}

	now := c.clock.Now()
	if now.Sub(c.lastAction) < c.cfg.Cooldown {
		return OutcomeDebounced
	}

	switch {
	case sig.offset < -c.cfg.Threshold:
		// Bar is ahead of the target.
		if !c.holding {
			return OutcomeIdle
		}
		c.release(now)
		return OutcomeRelease

	case sig.offset > c.cfg.Threshold:
		// Bar is behind the target.
		if c.holding {
			return OutcomeIdle
		}
		outcome := OutcomePress
		if sig.hint != nil {
			// Best effort: a failed move never skips the press.
			c.errs.report("move", c.act.MoveTo(sig.hint.X, sig.hint.Y))
			outcome = OutcomeMoveThenPress
		}
		c.press(now)
		return outcome

	default:
		return OutcomeIdle
	}
}

// Reset releases the button whether or not we think it is held.
func (c *hysteresisController) Reset() {
	c.errs.report("release", c.act.Release(c.cfg.Button))
	c.holding = false
	controllerResetsTotal.WithLabelValues(string(ControllerModeHysteresis)).Inc()
}

func (c *hysteresisController) press(now time.Time) {
	// A failed press still counts as held: the button may be down, and being
	// held guarantees a later release (overshoot, signal loss or Reset).
	c.errs.report("press", c.act.Press(c.cfg.Button))
	c.holding = true
	c.lastAction = now
}

func (c *hysteresisController) release(now time.Time) {
	c.errs.report("release", c.act.Release(c.cfg.Button))
	c.holding = false
	c.lastAction = now
}
