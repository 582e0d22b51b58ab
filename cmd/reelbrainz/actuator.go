package main

import (
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"
)

// Button names a pointer button.
type Button string

const (
	ButtonLeft   Button = "left"
	ButtonRight  Button = "right"
	ButtonCenter Button = "center"
)

func parseButton(s string) (Button, error) {
	switch Button(s) {
	case ButtonLeft, ButtonRight, ButtonCenter:
		return Button(s), nil
	default:
		return "", fmt.Errorf("invalid button %q (must be left, right, or center)", s)
	}
}

// Actuator is the input-injection surface the controller drives.
//
// All three commands are fire-and-forget. Implementations should treat a
// release of an already released button as a no-op, not an error.
type Actuator interface {
	Press(b Button) error
	Release(b Button) error
	MoveTo(x, y int) error
}

// dryRunActuator logs commands instead of injecting them.
type dryRunActuator struct {
	logger *slog.Logger
}

func newDryRunActuator(logger *slog.Logger) *dryRunActuator {
	return &dryRunActuator{logger: logger}
}

func (a *dryRunActuator) Press(b Button) error {
	a.logger.Debug("actuator press", "button", b)
	return nil
}

func (a *dryRunActuator) Release(b Button) error {
	a.logger.Debug("actuator release", "button", b)
	return nil
}

func (a *dryRunActuator) MoveTo(x, y int) error {
	a.logger.Debug("actuator move", "x", x, "y", y)
	return nil
}

// actuatorErrorLog reports actuator failures without flooding the log when the
// device keeps failing at tick rate: the first few failures are logged, then
// at most one per interval.
type actuatorErrorLog struct {
	logger    *slog.Logger
	sometimes rate.Sometimes
}

func newActuatorErrorLog(logger *slog.Logger) *actuatorErrorLog {
	return &actuatorErrorLog{
		logger: logger,
		sometimes: rate.Sometimes{
			First:    actuatorLogFirst,
			Interval: actuatorLogInterval * time.Second,
		},
	}
}

// report records a failed command. op is "press", "release" or "move".
func (l *actuatorErrorLog) report(op string, err error) {
	if err == nil {
		return
	}
	actuatorErrorsTotal.WithLabelValues(op).Inc()
	l.sometimes.Do(func() {
		l.logger.Warn("actuator command failed", "op", op, "error", err)
	})
}
