package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Sampler is the boundary to the detection subsystem: it yields one sample
// per polling tick. A nil sample means "nothing detected". io.EOF ends the
// session normally; any other error means the detector is gone.
type Sampler interface {
	Sample(ctx context.Context) (*DetectionSample, error)
}

// SamplerFunc adapts a plain function to Sampler.
type SamplerFunc func(ctx context.Context) (*DetectionSample, error)

func (f SamplerFunc) Sample(ctx context.Context) (*DetectionSample, error) {
	return f(ctx)
}

// Trace is a recorded or hand-written sequence of detection samples.
type Trace struct {
	Samples []TraceEntry `yaml:"samples"`
}

// TraceEntry is one sample in a trace file.
//
// Active defaults to true. An entry without offset is a tick where the detector
// found nothing. Repeat emits the same sample several times (default 1).
// GapMS is the time since the previous tick, used by replay; zero means one
// poll interval.
type TraceEntry struct {
	Active *bool    `yaml:"active,omitempty"`
	Offset *float64 `yaml:"offset,omitempty"`
	Hint   *Point   `yaml:"hint,omitempty"`
	Repeat int      `yaml:"repeat,omitempty"`
	GapMS  float64  `yaml:"gap_ms,omitempty"`
}

func (e TraceEntry) sample() *DetectionSample {
	s := &DetectionSample{Active: true}
	if e.Active != nil {
		s.Active = *e.Active
	}
	if e.Offset != nil {
		off := *e.Offset
		s.Offset = &off
	}
	if e.Hint != nil {
		h := *e.Hint
		s.Hint = &h
	}
	return s
}

// LoadTrace reads a YAML trace file. Unknown fields are rejected.
func LoadTrace(path string) (Trace, error) {
	if path == "" {
		return Trace{}, errors.New("trace path is empty")
	}
	b, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		return Trace{}, fmt.Errorf("read trace file: %w", err)
	}
	return parseTrace(b)
}

func parseTrace(b []byte) (Trace, error) {
	var tr Trace
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&tr); err != nil {
		return Trace{}, fmt.Errorf("decode trace yaml: %w", err)
	}
	for i, e := range tr.Samples {
		if e.Repeat < 0 {
			return Trace{}, fmt.Errorf("samples[%d].repeat must be >= 0", i)
		}
		if e.GapMS < 0 {
			return Trace{}, fmt.Errorf("samples[%d].gap_ms must be >= 0", i)
		}
	}
	if len(tr.Samples) == 0 {
		return Trace{}, errors.New("trace has no samples")
	}
	return tr, nil
}

// traceStep is one expanded tick of a trace.
type traceStep struct {
	sample *DetectionSample
	gap    time.Duration // zero: use the poll interval
}

// TraceSampler replays a Trace, one sample per call.
type TraceSampler struct {
	trace Trace
	loop  bool

	entry int // index into trace.Samples
	rep   int // samples already emitted for the current entry
}

func NewTraceSampler(tr Trace, loop bool) *TraceSampler {
	return &TraceSampler{trace: tr, loop: loop}
}

func (t *TraceSampler) Sample(ctx context.Context) (*DetectionSample, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	st, err := t.next()
	if err != nil {
		return nil, err
	}
	return st.sample, nil
}

func (t *TraceSampler) next() (traceStep, error) {
	for {
		if t.entry >= len(t.trace.Samples) {
			if !t.loop || len(t.trace.Samples) == 0 {
				return traceStep{}, io.EOF
			}
			t.entry, t.rep = 0, 0
		}

		e := t.trace.Samples[t.entry]
		n := e.Repeat
		if n == 0 {
			n = 1
		}
		if t.rep >= n {
			t.entry++
			t.rep = 0
			continue
		}
		t.rep++
		return traceStep{
			sample: e.sample(),
			gap:    time.Duration(e.GapMS * float64(time.Millisecond)),
		}, nil
	}
}
