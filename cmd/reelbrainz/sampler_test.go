package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleTraceYAML = `
samples:
  - offset: 5
    repeat: 2
  - offset: -5
    gap_ms: 4
  - active: false
  - {}
  - offset: 10
    hint: {x: 100, y: 200}
`

func TestParseTrace(t *testing.T) {
	tr, err := parseTrace([]byte(sampleTraceYAML))
	require.NoError(t, err)
	require.Len(t, tr.Samples, 5)

	assert.Equal(t, 2, tr.Samples[0].Repeat)
	assert.Equal(t, 4.0, tr.Samples[1].GapMS)

	inactive := tr.Samples[2].sample()
	assert.False(t, inactive.Active)

	empty := tr.Samples[3].sample()
	assert.True(t, empty.Active)
	assert.Nil(t, empty.Offset)

	hinted := tr.Samples[4].sample()
	require.NotNil(t, hinted.Hint)
	assert.Equal(t, Point{X: 100, Y: 200}, *hinted.Hint)
}

func TestParseTrace_Errors(t *testing.T) {
	tests := map[string]string{
		"unknown field":   "samples:\n  - offset: 1\n    offsett: 2\n",
		"negative repeat": "samples:\n  - offset: 1\n    repeat: -1\n",
		"negative gap":    "samples:\n  - offset: 1\n    gap_ms: -3\n",
		"no samples":      "samples: []\n",
		"not yaml":        "samples: [\n",
	}
	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := parseTrace([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestLoadTrace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trace.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleTraceYAML), 0o644))

	tr, err := LoadTrace(path)
	require.NoError(t, err)
	assert.Len(t, tr.Samples, 5)

	_, err = LoadTrace(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = LoadTrace("")
	assert.Error(t, err)
}

func offsets(t *testing.T, s *TraceSampler, n int) []float64 {
	t.Helper()
	var out []float64
	for i := 0; i < n; i++ {
		sm, err := s.Sample(context.Background())
		require.NoError(t, err)
		require.NotNil(t, sm.Offset)
		out = append(out, *sm.Offset)
	}
	return out
}

func TestTraceSampler_RepeatAndEOF(t *testing.T) {
	tr, err := parseTrace([]byte("samples:\n  - offset: 1\n    repeat: 3\n  - offset: 2\n"))
	require.NoError(t, err)

	s := NewTraceSampler(tr, false)
	assert.Equal(t, []float64{1, 1, 1, 2}, offsets(t, s, 4))

	_, err = s.Sample(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

func TestTraceSampler_Loop(t *testing.T) {
	tr, err := parseTrace([]byte("samples:\n  - offset: 1\n  - offset: 2\n    repeat: 2\n"))
	require.NoError(t, err)

	s := NewTraceSampler(tr, true)
	assert.Equal(t, []float64{1, 2, 2, 1, 2, 2, 1}, offsets(t, s, 7))
}

func TestTraceSampler_ReturnsFreshSamples(t *testing.T) {
	tr, err := parseTrace([]byte("samples:\n  - offset: 1\n    repeat: 2\n"))
	require.NoError(t, err)

	s := NewTraceSampler(tr, false)
	a, err := s.Sample(context.Background())
	require.NoError(t, err)
	*a.Offset = 99

	b, err := s.Sample(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1.0, *b.Offset)
}

func TestTraceSampler_Gap(t *testing.T) {
	tr, err := parseTrace([]byte("samples:\n  - offset: 1\n    gap_ms: 2.5\n  - offset: 2\n"))
	require.NoError(t, err)

	s := NewTraceSampler(tr, false)
	st, err := s.next()
	require.NoError(t, err)
	assert.Equal(t, 2500*time.Microsecond, st.gap)

	st, err = s.next()
	require.NoError(t, err)
	assert.Zero(t, st.gap)
}

func TestTraceSampler_CanceledContext(t *testing.T) {
	tr, err := parseTrace([]byte("samples:\n  - offset: 1\n"))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = NewTraceSampler(tr, true).Sample(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
