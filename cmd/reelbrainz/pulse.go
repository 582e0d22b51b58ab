package main

import (
	"log/slog"
	"time"
)

// pulseController corrects with short proportional pulses instead of holding
// the button across ticks. Each pulse blocks the calling tick for its full
// duration, so no samples are consumed meanwhile; staleness is bounded by MaxHold.
type pulseController struct {
	cfg    ControllerConfig
	act    Actuator
	clock  Clock
	logger *slog.Logger
	errs   *actuatorErrorLog

	lastAction time.Time
}

func newPulseController(cfg ControllerConfig, act Actuator, clock Clock, logger *slog.Logger) *pulseController {
	if clock == nil {
		clock = systemClock{}
	}
	return &pulseController{
		cfg:        cfg.withDefaults(),
		act:        act,
		clock:      clock,
		logger:     logger,
		errs:       newActuatorErrorLog(logger),
		lastAction: clock.Now(),
	}
}

func (c *pulseController) Mode() ControllerMode { return ControllerModePulse }

func (c *pulseController) Update(s *DetectionSample) Outcome {
	sig := normalize(s)
	if !sig.ok {
		// There is no hold state to consult, so release on every blind tick.
		c.errs.report("release", c.act.Release(c.cfg.Button))
		return OutcomeRelease
	}

	now := c.clock.Now()
	if now.Sub(c.lastAction) < c.cfg.Cooldown {
		return OutcomeDebounced
	}

	if sig.offset < 0 {
		c.errs.report("release", c.act.Release(c.cfg.Button))
		c.lastAction = now
		return OutcomeRelease
	}

	hold := pulseHold(c.cfg, sig.offset)
	c.errs.report("press", c.act.Press(c.cfg.Button))
	c.clock.Sleep(hold)
	c.errs.report("release", c.act.Release(c.cfg.Button))
	c.lastAction = now

	pulseHoldSeconds.Observe(hold.Seconds())
	return OutcomePulse
}

func (c *pulseController) Reset() {
	c.errs.report("release", c.act.Release(c.cfg.Button))
	controllerResetsTotal.WithLabelValues(string(ControllerModePulse)).Inc()
}

// pulseHold maps an offset to a pulse length:
//
//	hold = MinHold + clamp(offset/SaturationOffset, 0, 1) * (MaxHold - MinHold)
//
// It is non-decreasing in offset and equals MaxHold from SaturationOffset on.
func pulseHold(cfg ControllerConfig, offset float64) time.Duration {
	strength := offset / cfg.SaturationOffset
	if strength < 0 {
		strength = 0
	}
	if strength > 1 {
		strength = 1
	}
	span := float64(cfg.MaxHold - cfg.MinHold)
	return cfg.MinHold + time.Duration(strength*span)
}
