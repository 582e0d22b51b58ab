package main

// Linux input event types and codes (from <linux/input.h>)
const (
	EV_KEY = 0x01

	KEY_ESC = 1
)

// Input event value for a key press (0 is release, 2 is auto-repeat)
const evValuePress = 1

// Controller tuning defaults
const (
	defaultThreshold        = 2.0    // Deadband half-width in pixels
	defaultCooldownMS       = 1.5    // Minimum time between state-changing actions (ms)
	defaultMinHoldMS        = 2.0    // Shortest pulse in pulse mode (ms)
	defaultMaxHoldMS        = 18.0   // Longest pulse in pulse mode (ms)
	defaultSaturationOffset = 40.0   // Offset at which the pulse length saturates at max hold
	defaultButton           = "left" // Pointer button driven by the controller

	// Pulses are meant to be micro-holds; anything longer starves the sampling loop.
	maxPulseHoldMS = 250.0
)

// Sampling loop defaults
const (
	defaultPollHz = 120  // Sampling/decision ticks per second
	maxPollHz     = 1000 // Upper bound accepted by config validation
)

// Actuator failure log throttling
const (
	actuatorLogFirst    = 3 // Always log the first N failures
	actuatorLogInterval = 5 // Then at most one failure log per this many seconds
)

// Stop controls
var defaultStopHotkey = []string{"q", "ctrl", "shift"}
