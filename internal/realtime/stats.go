package realtime

import (
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"
)

// timingWindow is the number of samples retained per chunk type.
const timingWindow = 10

// TimingStats keeps a rolling window of observed inter-chunk intervals
// per chunk type. Start chunks trail the previous volume's end by a
// different gap than intermediate chunks trail each other, so the types
// are estimated separately.
type TimingStats struct {
	mu      sync.Mutex
	samples map[ChunkType][]float64
}

// NewTimingStats returns empty statistics.
func NewTimingStats() *TimingStats {
	return &TimingStats{samples: make(map[ChunkType][]float64)}
}

// Add records one observed interval preceding a chunk of the given type.
func (s *TimingStats) Add(typ ChunkType, interval time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	window := append(s.samples[typ], interval.Seconds())
	if len(window) > timingWindow {
		window = window[len(window)-timingWindow:]
	}
	s.samples[typ] = window
}

// Estimate returns the mean observed interval for the chunk type, or
// false when no samples exist yet.
func (s *TimingStats) Estimate(typ ChunkType) (time.Duration, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	window := s.samples[typ]
	if len(window) == 0 {
		return 0, false
	}
	mean := stat.Mean(window, nil)
	return time.Duration(mean * float64(time.Second)), true
}
