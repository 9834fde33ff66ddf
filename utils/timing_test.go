package utils

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// captureOutput points Output at a buffer for the rest of the test.
func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	oldOut, oldVerbose := Output, Verbose
	buf := &bytes.Buffer{}
	Output, Verbose = buf, true
	t.Cleanup(func() { Output, Verbose = oldOut, oldVerbose })
	return buf
}

func TestDurationUS(t *testing.T) {
	d := 1234*time.Microsecond + 567*time.Nanosecond
	assert.InDelta(t, 1234.567, DurationUS(d), 0.001)
}

func TestLogfRespectsVerbose(t *testing.T) {
	buf := captureOutput(t)
	Logf("epoch %d of %d", 1, 2)
	assert.Equal(t, "epoch 1 of 2\n", buf.String())

	Verbose = false
	Logf("hidden")
	assert.Equal(t, "epoch 1 of 2\n", buf.String())
}

func TestTrackAccumulates(t *testing.T) {
	var stats TimingStats
	start := time.Now().Add(-2 * time.Millisecond)
	next := stats.Track(&stats.ForwardPassTime, start)
	assert.GreaterOrEqual(t, stats.ForwardPassTime, 2*time.Millisecond)
	first := stats.ForwardPassTime
	stats.Track(&stats.ForwardPassTime, next.Add(-time.Millisecond))
	assert.GreaterOrEqual(t, stats.ForwardPassTime, first+time.Millisecond)
}

func TestPrintTimingStats(t *testing.T) {
	buf := captureOutput(t)
	stats := &TimingStats{
		TotalTime:        10 * time.Second,
		ForwardPassTime:  4 * time.Second,
		BackwardPassTime: 5 * time.Second,
		DataLoadingTime:  time.Second,
	}
	PrintTimingStats(stats, 1000)
	out := buf.String()
	assert.Contains(t, out, "Total execution time: 10s")
	assert.Contains(t, out, "Forward pass: 4s (40.0%)")
	assert.Contains(t, out, "Average time per step: 9ms")
	assert.Contains(t, out, "Average backward pass time: 5000.0µs")

	// no steps and no time must not divide by zero
	buf.Reset()
	PrintTimingStats(&TimingStats{}, 0)
	assert.Contains(t, buf.String(), "Testing: 0s (0.0%)")
	assert.NotContains(t, buf.String(), "Average")
}
