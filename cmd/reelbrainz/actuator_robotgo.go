package main

import (
	"fmt"

	"github.com/go-vgo/robotgo"
)

// robotgoActuator injects pointer events into the OS through robotgo.
type robotgoActuator struct{}

func newRobotgoActuator() *robotgoActuator {
	return &robotgoActuator{}
}

func (robotgoActuator) Press(b Button) error {
	if err := robotgo.Toggle(string(b)); err != nil {
		return fmt.Errorf("robotgo toggle %s down: %w", b, err)
	}
	return nil
}

func (robotgoActuator) Release(b Button) error {
	if err := robotgo.Toggle(string(b), "up"); err != nil {
		return fmt.Errorf("robotgo toggle %s up: %w", b, err)
	}
	return nil
}

// MoveTo warps the pointer. robotgo does not report failures here; a panic
// from the native layer is turned into an error so the caller's press still runs.
func (robotgoActuator) MoveTo(x, y int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("robotgo move to (%d,%d): %v", x, y, r)
		}
	}()
	robotgo.Move(x, y)
	return nil
}
