package main

import (
	"io"
	"log/slog"
	"strings"
	"time"
)

// recordingActuator is a test double for Actuator that records every command.
type recordingActuator struct {
	cmds []string

	pressErr   error
	releaseErr error
	moveErr    error
}

func (a *recordingActuator) Press(b Button) error {
	a.cmds = append(a.cmds, "press:"+string(b))
	return a.pressErr
}

func (a *recordingActuator) Release(b Button) error {
	a.cmds = append(a.cmds, "release:"+string(b))
	return a.releaseErr
}

func (a *recordingActuator) MoveTo(x, y int) error {
	a.cmds = append(a.cmds, "move")
	return a.moveErr
}

func (a *recordingActuator) count(prefix string) int {
	n := 0
	for _, c := range a.cmds {
		if strings.HasPrefix(c, prefix) {
			n++
		}
	}
	return n
}

// sleepRecordingClock is a manualClock that also remembers every Sleep.
type sleepRecordingClock struct {
	*manualClock
	sleeps []time.Duration
}

func newSleepRecordingClock() *sleepRecordingClock {
	return &sleepRecordingClock{manualClock: newManualClock(time.Unix(1000, 0))}
}

func (c *sleepRecordingClock) Sleep(d time.Duration) {
	c.sleeps = append(c.sleeps, d)
	c.manualClock.Sleep(d)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
