// Package profiler times the stages of frame processing and summarises them
// at the end of a run.
package profiler

import (
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// DefaultMaxSamples bounds the durations kept per operation.
const DefaultMaxSamples = 600

// Profiler collects per-operation timings.
//
// It is safe for concurrent use. Only the most recent MaxSamples durations
// of each operation feed the average; count, min and max cover the whole run.
type Profiler struct {
	mu         sync.Mutex
	startTime  time.Time
	maxSamples int

	operationTimes map[string]*TimeTracker
	// first-seen order for stable reports
	order []string
}

// TimeTracker tracks operation timing statistics.
type TimeTracker struct {
	name      string
	durations []time.Duration
	totalTime time.Duration
	minTime   time.Duration
	maxTime   time.Duration
	count     int64
}

// OperationSummary is a snapshot of one operation's timings.
type OperationSummary struct {
	Name  string
	Count int64
	Avg   time.Duration
	Min   time.Duration
	Max   time.Duration
}

// New creates a profiler.
//
// Arguments:
// - maxSamples: Durations kept per operation, DefaultMaxSamples when <= 0.
//
// Returns:
// - A ready Profiler.
func New(maxSamples int) *Profiler {
	if maxSamples <= 0 {
		maxSamples = DefaultMaxSamples
	}
	return &Profiler{
		startTime:      time.Now(),
		maxSamples:     maxSamples,
		operationTimes: make(map[string]*TimeTracker),
	}
}

// StartOperation begins timing an operation.
//
// Arguments:
// - name: The name of the operation to track
//
// Returns:
// - A function to call when the operation completes
func (p *Profiler) StartOperation(name string) func() {
	start := time.Now()
	return func() {
		p.Record(name, time.Since(start))
	}
}

// Record adds one duration to the named operation.
func (p *Profiler) Record(name string, duration time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	tracker, exists := p.operationTimes[name]
	if !exists {
		tracker = &TimeTracker{
			name:    name,
			minTime: duration,
			maxTime: duration,
		}
		p.operationTimes[name] = tracker
		p.order = append(p.order, name)
	}

	tracker.durations = append(tracker.durations, duration)
	tracker.totalTime += duration
	if len(tracker.durations) > p.maxSamples {
		// Remove oldest sample
		tracker.totalTime -= tracker.durations[0]
		tracker.durations = tracker.durations[1:]
	}
	tracker.count++

	if duration < tracker.minTime {
		tracker.minTime = duration
	}
	if duration > tracker.maxTime {
		tracker.maxTime = duration
	}
}

// Summary returns a snapshot of every operation in first-seen order.
func (p *Profiler) Summary() []OperationSummary {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]OperationSummary, 0, len(p.order))
	for _, name := range p.order {
		tracker := p.operationTimes[name]
		s := OperationSummary{
			Name:  name,
			Count: tracker.count,
			Min:   tracker.minTime,
			Max:   tracker.maxTime,
		}
		if n := len(tracker.durations); n > 0 {
			s.Avg = tracker.totalTime / time.Duration(n)
		}
		out = append(out, s)
	}
	return out
}

// Report logs the operation timings and the current memory usage.
func (p *Profiler) Report(logger zerolog.Logger) {
	for _, s := range p.Summary() {
		logger.Info().
			Str("operation", s.Name).
			Int64("count", s.Count).
			Dur("avg", s.Avg.Truncate(time.Microsecond)).
			Dur("min", s.Min.Truncate(time.Microsecond)).
			Dur("max", s.Max.Truncate(time.Microsecond)).
			Msg("operation timing")
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	logger.Debug().
		Dur("uptime", time.Since(p.startTime).Truncate(time.Millisecond)).
		Str("heap_alloc", formatBytes(mem.HeapAlloc)).
		Str("sys", formatBytes(mem.Sys)).
		Uint32("gc_cycles", mem.NumGC).
		Int("goroutines", runtime.NumGoroutine()).
		Msg("runtime")
}

// Reset drops every recorded timing.
func (p *Profiler) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.operationTimes = make(map[string]*TimeTracker)
	p.order = nil
	p.startTime = time.Now()
}

// formatBytes formats byte counts in human-readable format.
func formatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
