package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPulseConfig() ControllerConfig {
	return ControllerConfig{
		Mode:             ControllerModePulse,
		Threshold:        2,
		MinHold:          2 * time.Millisecond,
		MaxHold:          18 * time.Millisecond,
		SaturationOffset: 40,
	}
}

func newTestPulse(cfg ControllerConfig) (*pulseController, *recordingActuator, *sleepRecordingClock) {
	act := &recordingActuator{}
	clock := newSleepRecordingClock()
	return newPulseController(cfg, act, clock, discardLogger()), act, clock
}

func TestPulseHold_Bounds(t *testing.T) {
	cfg := testPulseConfig().withDefaults()

	assert.Equal(t, 2*time.Millisecond, pulseHold(cfg, 0))
	assert.Equal(t, 10*time.Millisecond, pulseHold(cfg, 20))
	assert.Equal(t, 18*time.Millisecond, pulseHold(cfg, 40))
	assert.Equal(t, 18*time.Millisecond, pulseHold(cfg, 400))
	assert.Equal(t, 2*time.Millisecond, pulseHold(cfg, -5))
}

func TestPulseHold_MonotonicNonDecreasing(t *testing.T) {
	cfg := testPulseConfig().withDefaults()

	prev := pulseHold(cfg, 0)
	for off := 0.0; off <= 100; off += 0.25 {
		h := pulseHold(cfg, off)
		assert.GreaterOrEqual(t, h, prev, "offset %v", off)
		assert.GreaterOrEqual(t, h, cfg.MinHold)
		assert.LessOrEqual(t, h, cfg.MaxHold)
		prev = h
	}
}

func TestPulseHold_DefaultSaturation(t *testing.T) {
	cfg := testPulseConfig()
	cfg.SaturationOffset = 0
	cfg = cfg.withDefaults()

	assert.Equal(t, defaultSaturationOffset, cfg.SaturationOffset)
	assert.Equal(t, cfg.MaxHold, pulseHold(cfg, defaultSaturationOffset))
}

func TestPulse_PositiveOffsetPulses(t *testing.T) {
	c, act, clock := newTestPulse(testPulseConfig())

	assert.Equal(t, OutcomePulse, c.Update(NewSample(20)))
	assert.Equal(t, []string{"press:left", "release:left"}, act.cmds)
	assert.Equal(t, []time.Duration{10 * time.Millisecond}, clock.sleeps)
}

func TestPulse_ZeroOffsetPulsesMinHold(t *testing.T) {
	c, act, clock := newTestPulse(testPulseConfig())

	assert.Equal(t, OutcomePulse, c.Update(NewSample(0)))
	assert.Equal(t, []string{"press:left", "release:left"}, act.cmds)
	assert.Equal(t, []time.Duration{2 * time.Millisecond}, clock.sleeps)
}

func TestPulse_NegativeOffsetReleases(t *testing.T) {
	c, act, clock := newTestPulse(testPulseConfig())

	assert.Equal(t, OutcomeRelease, c.Update(NewSample(-0.5)))
	assert.Equal(t, []string{"release:left"}, act.cmds)
	assert.Empty(t, clock.sleeps)
}

func TestPulse_SignalLossAlwaysReleases(t *testing.T) {
	c, act, _ := newTestPulse(testPulseConfig())

	assert.Equal(t, OutcomeRelease, c.Update(nil))
	assert.Equal(t, OutcomeRelease, c.Update(inactiveSample()))
	assert.Equal(t, OutcomeRelease, c.Update(missingOffsetSample()))
	assert.Equal(t, 3, act.count("release"))
	assert.Zero(t, act.count("press"))
}

func TestPulse_SignalLossIgnoresCooldown(t *testing.T) {
	cfg := testPulseConfig()
	cfg.Cooldown = time.Second
	c, act, clock := newTestPulse(cfg)

	clock.Advance(2 * time.Second)
	require.Equal(t, OutcomePulse, c.Update(NewSample(5)))

	assert.Equal(t, OutcomeRelease, c.Update(nil))
	assert.Equal(t, OutcomeDebounced, c.Update(NewSample(5)))
	assert.Equal(t, []string{"press:left", "release:left", "release:left"}, act.cmds)
}

func TestPulse_Cooldown(t *testing.T) {
	cfg := testPulseConfig()
	cfg.Cooldown = 50 * time.Millisecond
	c, act, clock := newTestPulse(cfg)

	clock.Advance(time.Second)
	require.Equal(t, OutcomePulse, c.Update(NewSample(40)))

	// The pulse itself consumed 18ms of the cooldown window.
	clock.Advance(20 * time.Millisecond)
	assert.Equal(t, OutcomeDebounced, c.Update(NewSample(40)))

	clock.Advance(20 * time.Millisecond)
	assert.Equal(t, OutcomePulse, c.Update(NewSample(40)))
	assert.Equal(t, 2, act.count("press"))
}

func TestPulse_ResetAlwaysReleases(t *testing.T) {
	c, act, _ := newTestPulse(testPulseConfig())

	c.Reset()
	c.Reset()
	assert.Equal(t, []string{"release:left", "release:left"}, act.cmds)
}

func TestNewController_SelectsMode(t *testing.T) {
	act := &recordingActuator{}
	clock := newManualClock(time.Unix(0, 0))

	h, err := newController(ControllerConfig{}, act, clock, discardLogger())
	require.NoError(t, err)
	assert.Equal(t, ControllerModeHysteresis, h.Mode())

	p, err := newController(ControllerConfig{Mode: ControllerModePulse}, act, clock, discardLogger())
	require.NoError(t, err)
	assert.Equal(t, ControllerModePulse, p.Mode())

	_, err = newController(ControllerConfig{Mode: "bang"}, act, clock, discardLogger())
	assert.Error(t, err)
}

func TestControllerConfig_WithDefaults(t *testing.T) {
	cfg := ControllerConfig{
		Threshold: -3,
		Cooldown:  -time.Millisecond,
		MinHold:   5 * time.Millisecond,
		MaxHold:   time.Millisecond,
	}.withDefaults()

	assert.Equal(t, ControllerModeHysteresis, cfg.Mode)
	assert.Equal(t, ButtonLeft, cfg.Button)
	assert.Equal(t, 3.0, cfg.Threshold)
	assert.Zero(t, cfg.Cooldown)
	assert.Equal(t, cfg.MinHold, cfg.MaxHold)
}

func TestOutcome_String(t *testing.T) {
	assert.Equal(t, "idle", OutcomeIdle.String())
	assert.Equal(t, "debounced", OutcomeDebounced.String())
	assert.Equal(t, "press", OutcomePress.String())
	assert.Equal(t, "move_press", OutcomeMoveThenPress.String())
	assert.Equal(t, "release", OutcomeRelease.String())
	assert.Equal(t, "pulse", OutcomePulse.String())
	assert.Equal(t, "outcome(42)", Outcome(42).String())
}
