package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// manualClock is a Clock that only moves when told to. Sleep advances it,
// so a pulse costs simulated time rather than wall time.
type manualClock struct {
	now time.Time
}

func newManualClock(start time.Time) *manualClock {
	return &manualClock{now: start}
}

func (c *manualClock) Now() time.Time          { return c.now }
func (c *manualClock) Sleep(d time.Duration)   { c.Advance(d) }
func (c *manualClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// replayResult is one replayed tick.
type replayResult struct {
	Tick    int
	At      time.Duration // simulated time since replay start
	Sample  *DetectionSample
	Outcome Outcome
}

// replayTrace runs tr through a controller built from cfg on a simulated
// clock. Ticks are spaced by each entry's gap, or one poll interval. The
// controller is reset at the end, exactly like a live session.
func replayTrace(tr Trace, cfg ControllerConfig, act Actuator, pollHz int, logger *slog.Logger) ([]replayResult, error) {
	if pollHz <= 0 {
		return nil, fmt.Errorf("poll rate must be > 0, got %d", pollHz)
	}
	interval := time.Second / time.Duration(pollHz)

	start := time.Unix(0, 0)
	clock := newManualClock(start)

	ctrl, err := newController(cfg, act, clock, logger)
	if err != nil {
		return nil, err
	}
	defer ctrl.Reset()

	src := NewTraceSampler(tr, false)
	var results []replayResult
	for tick := 1; ; tick++ {
		st, err := src.next()
		if errors.Is(err, io.EOF) {
			return results, nil
		}
		if err != nil {
			return results, err
		}

		gap := st.gap
		if gap == 0 {
			gap = interval
		}
		clock.Advance(gap)
		at := clock.Now().Sub(start)

		outcome := ctrl.Update(st.sample)
		results = append(results, replayResult{
			Tick:    tick,
			At:      at,
			Sample:  st.sample,
			Outcome: outcome,
		})
	}
}

// printReplay writes one line per tick in a stable, diffable format.
func printReplay(w io.Writer, results []replayResult) {
	for _, r := range results {
		fmt.Fprintf(w, "%5d %10.3fms %-34s %s\n",
			r.Tick,
			float64(r.At)/float64(time.Millisecond),
			r.Sample.String(),
			r.Outcome)
	}
}
