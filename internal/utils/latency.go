package utils

import (
	"sort"
	"sync"
	"time"
)

// DurationTracker stores recent duration samples per label and computes percentiles.
type DurationTracker struct {
	mu      sync.Mutex
	samples map[string][]time.Duration
	maxSize int
}

// NewDurationTracker creates a tracker storing up to maxSize samples per label.
func NewDurationTracker(maxSize int) *DurationTracker {
	if maxSize <= 0 {
		maxSize = 256
	}
	return &DurationTracker{maxSize: maxSize, samples: make(map[string][]time.Duration)}
}

// Observe records a duration under label and returns the label's sample count.
func (d *DurationTracker) Observe(label string, dur time.Duration) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	s := append(d.samples[label], dur)
	if len(s) > d.maxSize {
		s = s[len(s)-d.maxSize:]
	}
	d.samples[label] = s
	return len(s)
}

// Percentile returns the p-th (0-100) percentile for label, zero without samples.
func (d *DurationTracker) Percentile(label string, p float64) time.Duration {
	d.mu.Lock()
	sorted := append([]time.Duration(nil), d.samples[label]...)
	d.mu.Unlock()

	if len(sorted) == 0 {
		return 0
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	switch {
	case p <= 0:
		return sorted[0]
	case p >= 100:
		return sorted[len(sorted)-1]
	}
	return sorted[int((p/100.0)*float64(len(sorted)-1))]
}

// Count returns the number of samples held for label.
func (d *DurationTracker) Count(label string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.samples[label])
}
