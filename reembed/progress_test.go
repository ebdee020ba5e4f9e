package reembed

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProgressTracker_ReportsCounts(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 100, 50)
	tracker.Start()

	tracker.Record(Report{Missing: 4})
	tracker.Record(Report{Repaired: 4})
	assert.Empty(t, buf.String(), "nothing printed before the interval is scanned")

	tracker.Record(Report{Scanned: 50})
	assert.Contains(t, buf.String(), "Scanned 50/100 (50.0%) missing 4 repaired 4")
	assert.Contains(t, buf.String(), "messages/s")

	time.Sleep(time.Millisecond)
	assert.Greater(t, tracker.Elapsed(), time.Duration(0))
	assert.Equal(t, Report{Scanned: 50, Missing: 4, Repaired: 4}, tracker.Snapshot())
}

func TestProgressTracker_PrintsOncePerInterval(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 10, 4)
	tracker.Start()

	for range 10 {
		tracker.Record(Report{Scanned: 1})
	}
	assert.Equal(t, 2, strings.Count(buf.String(), "\rScanned"), "at 4 and 8")
}

func TestProgressTracker_CapsScannedAtTotal(t *testing.T) {
	tracker := NewProgressTracker(nil, 10, 1)
	tracker.Start()

	tracker.Record(Report{Scanned: 50, Missing: 2})
	assert.Equal(t, Report{Scanned: 10, Missing: 2}, tracker.Snapshot())
}

func TestProgressTracker_FinishShortOfTotal(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 100, 1000)
	tracker.Start()
	tracker.Record(Report{Scanned: 30, Missing: 1})

	report := tracker.Finish()
	assert.Equal(t, Report{Scanned: 30, Missing: 1}, report)
	assert.Contains(t, buf.String(), "Scanned 30/100 (30.0%) missing 1 repaired 0")
	assert.True(t, strings.HasSuffix(buf.String(), "\n"))

	// A second Finish prints nothing more.
	n := buf.Len()
	tracker.Finish()
	assert.Equal(t, n, buf.Len())
}

func TestProgressTracker_NotStarted(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 10, 1)

	tracker.Record(Report{Scanned: 5})
	tracker.Finish()

	assert.Empty(t, buf.String())
	assert.Zero(t, tracker.Elapsed())
	assert.Equal(t, 5, tracker.Snapshot().Scanned)
}

func TestProgressTracker_ZeroTotal(t *testing.T) {
	var buf bytes.Buffer
	tracker := NewProgressTracker(&buf, 0, 0)

	tracker.Start()
	tracker.Finish()

	assert.Contains(t, buf.String(), "Scanned 0/0 (0.0%)")
}
