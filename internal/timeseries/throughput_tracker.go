// Package timeseries provides time-windowed throughput tracking for the
// recut pipeline.
//
// The encoder workers report output bytes as ffmpeg writes them; the
// tracker turns the cumulative count into rolling byte-per-second
// averages for the dashboard and the exit summary.
//
// Thread-safe: AddBytes() uses an atomic int64, Stats() acquires a read
// lock over the sample ring.
package timeseries

import (
	"sync"
	"sync/atomic"
	"time"
)

const (
	// ringBufferSize is the number of samples retained (5 minutes at one
	// sample per second).
	ringBufferSize = 300

	// Window durations for the rolling averages.
	window1s  = 1 * time.Second
	window10s = 10 * time.Second
	window60s = 60 * time.Second
)

// Clock abstracts time.Now for deterministic tests.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// sample is a point-in-time snapshot of the cumulative byte count.
type sample struct {
	timestamp time.Time
	bytes     int64
}

// ThroughputTracker tracks cumulative encode output bytes and computes
// rolling averages over fixed windows.
//
// Usage:
//
//	tracker := NewThroughputTracker()
//	tracker.AddBytes(delta)   // per progress report, lock-free
//	tracker.RecordSample()    // once a second from a ticker
//	stats := tracker.Stats()  // for the dashboard
type ThroughputTracker struct {
	totalBytes atomic.Int64

	mu       sync.RWMutex
	samples  []sample
	writeIdx int

	startTime time.Time
	clock     Clock
}

// ThroughputStats holds the computed rates at one point in time.
type ThroughputStats struct {
	// TotalBytes is the cumulative output since tracking started.
	TotalBytes int64

	// Rolling averages in bytes per second.
	Avg1s  float64
	Avg10s float64
	Avg60s float64

	// AvgOverall is the average since tracking started.
	AvgOverall float64
}

// NewThroughputTracker creates a tracker on the real clock.
func NewThroughputTracker() *ThroughputTracker {
	return NewThroughputTrackerWithClock(realClock{})
}

// NewThroughputTrackerWithClock creates a tracker with a custom clock.
func NewThroughputTrackerWithClock(clock Clock) *ThroughputTracker {
	now := clock.Now()
	t := &ThroughputTracker{
		samples:   make([]sample, 0, ringBufferSize),
		startTime: now,
		clock:     clock,
	}
	t.samples = append(t.samples, sample{timestamp: now, bytes: 0})
	return t
}

// AddBytes adds output bytes to the cumulative total. Lock-free, safe
// from any worker goroutine.
func (t *ThroughputTracker) AddBytes(n int64) {
	if n > 0 {
		t.totalBytes.Add(n)
	}
}

// RecordSample timestamps the current cumulative count. Call it once a
// second while encodes run.
func (t *ThroughputTracker) RecordSample() {
	now := t.clock.Now()
	currentBytes := t.totalBytes.Load()

	t.mu.Lock()
	defer t.mu.Unlock()

	s := sample{timestamp: now, bytes: currentBytes}
	if len(t.samples) < ringBufferSize {
		t.samples = append(t.samples, s)
	} else {
		t.samples[t.writeIdx] = s
		t.writeIdx = (t.writeIdx + 1) % ringBufferSize
	}
}

// Stats computes the current throughput numbers. It never reports "no
// data"; with a short history the windows fall back to whatever span is
// available.
func (t *ThroughputTracker) Stats() ThroughputStats {
	now := t.clock.Now()
	currentBytes := t.totalBytes.Load()

	t.mu.RLock()
	defer t.mu.RUnlock()

	stats := ThroughputStats{TotalBytes: currentBytes}

	elapsed := now.Sub(t.startTime).Seconds()
	if elapsed > 0 {
		stats.AvgOverall = float64(currentBytes) / elapsed
	}

	stats.Avg1s = t.avgOverWindow(now, currentBytes, window1s)
	stats.Avg10s = t.avgOverWindow(now, currentBytes, window10s)
	stats.Avg60s = t.avgOverWindow(now, currentBytes, window60s)
	return stats
}

// avgOverWindow computes bytes/sec against the sample closest to (but not
// inside) the window. Caller holds at least the read lock.
func (t *ThroughputTracker) avgOverWindow(now time.Time, currentBytes int64, window time.Duration) float64 {
	if len(t.samples) == 0 {
		return 0
	}

	targetTime := now.Add(-window)

	var best *sample
	var bestDiff time.Duration = -1
	for i := range t.samples {
		s := &t.samples[i]
		if s.timestamp.After(targetTime) {
			continue
		}
		diff := targetTime.Sub(s.timestamp)
		if bestDiff < 0 || diff < bestDiff {
			best = s
			bestDiff = diff
		}
	}
	if best == nil {
		best = t.oldestSample()
	}
	if best == nil {
		return 0
	}

	transferred := currentBytes - best.bytes
	actualElapsed := now.Sub(best.timestamp).Seconds()
	if actualElapsed <= 0 {
		return 0
	}
	return float64(transferred) / actualElapsed
}

// oldestSample returns the oldest retained sample. Caller holds the lock.
func (t *ThroughputTracker) oldestSample() *sample {
	if len(t.samples) == 0 {
		return nil
	}
	if len(t.samples) < ringBufferSize {
		return &t.samples[0]
	}
	return &t.samples[t.writeIdx]
}

// SampleCount returns the number of retained samples.
func (t *ThroughputTracker) SampleCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.samples)
}
