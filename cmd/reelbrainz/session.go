package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// ============================================================================
// Session loop
// ============================================================================
//
// One session = one controller driving the pointer button, fed by one sampler.
//
// Rules enforced here:
//   - Ticks never overlap: sample, Update and outcome accounting run to
//     completion before the next tick is taken. A long pulse simply delays it.
//   - The controller is only touched from this goroutine.
//   - Every exit path releases the button through Reset.
//
// ============================================================================

// runSession polls sampler at pollHz and feeds each sample to ctrl.
//
// Shutdown semantics:
//   - returns nil when ctx is canceled or the sampler reports io.EOF
//   - returns the sampler error when the detection subsystem fails
func runSession(
	ctx context.Context,
	sampler Sampler,
	ctrl Controller,
	pollHz int,
	logger *slog.Logger,
) error {
	if pollHz <= 0 {
		return fmt.Errorf("poll rate must be > 0, got %d", pollHz)
	}

	defer ctrl.Reset()

	interval := time.Second / time.Duration(pollHz)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	mode := string(ctrl.Mode())
	var ticks, presses, releases uint64

	logger.Info("session started", "mode", mode, "poll_hz", pollHz)
	defer func() {
		logger.Info("session stopped", "ticks", ticks, "presses", presses, "releases", releases)
	}()

	for {
		select {
		case <-ctx.Done():
			logger.Debug("session stopping (context canceled)")
			return nil

		case <-ticker.C:
			start := time.Now()

			s, err := sampler.Sample(ctx)
			if err != nil {
				switch {
				case errors.Is(err, io.EOF):
					logger.Info("sampler exhausted")
					return nil
				case ctx.Err() != nil:
					return nil
				default:
					sessionSamplerErrorsTotal.Inc()
					logger.Error("sampler failed", "error", err)
					return fmt.Errorf("sampler: %w", err)
				}
			}

			outcome := ctrl.Update(s)
			ticks++
			switch outcome {
			case OutcomePress, OutcomeMoveThenPress:
				presses++
			case OutcomeRelease:
				releases++
			}
			controllerOutcomesTotal.WithLabelValues(mode, outcome.String()).Inc()
			sessionTickDuration.Observe(time.Since(start).Seconds())

			if outcome != OutcomeIdle && outcome != OutcomeDebounced {
				logger.Debug("controller action", "outcome", outcome.String(), "sample", s.String())
			}
		}
	}
}
