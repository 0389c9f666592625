package debug

import (
	"fmt"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Profiler collects timing statistics for named sections.
type Profiler struct {
	mu           sync.Mutex
	measurements map[string]*Measurement
	order        []string
	enabled      atomic.Bool
	maxSamples   int
}

// Measurement holds timing statistics for a profiled section.
type Measurement struct {
	Name  string
	Count uint64
	Total time.Duration
	Min   time.Duration
	Max   time.Duration
	Last  time.Duration

	samples []time.Duration
	next    int
}

// NewProfiler creates a profiler that keeps the most recent maxSamples
// timings of each section for percentile queries.
func NewProfiler(maxSamples int) *Profiler {
	if maxSamples < 1 {
		maxSamples = 1
	}
	p := &Profiler{
		measurements: make(map[string]*Measurement),
		maxSamples:   maxSamples,
	}
	p.enabled.Store(true)
	return p
}

// SetEnabled enables or disables profiling.
func (p *Profiler) SetEnabled(enabled bool) {
	p.enabled.Store(enabled)
}

// Start begins timing a named section. Call the returned function to stop.
func (p *Profiler) Start(name string) func() {
	if !p.enabled.Load() {
		return func() {}
	}
	start := time.Now()
	return func() {
		p.Record(name, time.Since(start))
	}
}

// Time measures the execution time of fn.
func (p *Profiler) Time(name string, fn func()) {
	stop := p.Start(name)
	defer stop()
	fn()
}

// Record adds a timing to the named section.
func (p *Profiler) Record(name string, elapsed time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	m, exists := p.measurements[name]
	if !exists {
		m = &Measurement{
			Name:    name,
			Min:     elapsed,
			samples: make([]time.Duration, 0, p.maxSamples),
		}
		p.measurements[name] = m
		p.order = append(p.order, name)
	}

	m.Count++
	m.Total += elapsed
	m.Last = elapsed
	m.Min = min(m.Min, elapsed)
	m.Max = max(m.Max, elapsed)

	if len(m.samples) < p.maxSamples {
		m.samples = append(m.samples, elapsed)
	} else {
		m.samples[m.next] = elapsed
		m.next = (m.next + 1) % p.maxSamples
	}
}

// Measurement returns a snapshot of the named section.
func (p *Profiler) Measurement(name string) (Measurement, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	m, exists := p.measurements[name]
	if !exists {
		return Measurement{}, false
	}
	snapshot := *m
	snapshot.samples = slices.Clone(m.samples)
	return snapshot, true
}

// Reset clears all measurements.
func (p *Profiler) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.measurements = make(map[string]*Measurement)
	p.order = nil
}

// Report renders all sections in first-recorded order.
func (p *Profiler) Report() string {
	p.mu.Lock()
	names := slices.Clone(p.order)
	p.mu.Unlock()

	if len(names) == 0 {
		return "No measurements recorded\n"
	}

	var sb strings.Builder
	for _, name := range names {
		m, _ := p.Measurement(name)
		fmt.Fprintf(&sb, "%s:\n", name)
		fmt.Fprintf(&sb, "  Count:   %d\n", m.Count)
		fmt.Fprintf(&sb, "  Total:   %v\n", m.Total)
		fmt.Fprintf(&sb, "  Average: %v\n", m.Average())
		fmt.Fprintf(&sb, "  Min:     %v\n", m.Min)
		fmt.Fprintf(&sb, "  Max:     %v\n", m.Max)
		fmt.Fprintf(&sb, "  P99:     %v\n", m.Percentile(99))
	}
	return sb.String()
}

// Load returns the average time spent in the named section as a
// percentage of the real-time duration of a block of frames.
func (p *Profiler) Load(name string, sampleRate float64, frames int) float64 {
	m, exists := p.Measurement(name)
	if !exists || m.Count == 0 || sampleRate <= 0 || frames <= 0 {
		return 0
	}
	budget := time.Duration(float64(frames) / sampleRate * float64(time.Second))
	return float64(m.Average()) / float64(budget) * 100.0
}

// Average returns the mean time of the section.
func (m Measurement) Average() time.Duration {
	if m.Count == 0 {
		return 0
	}
	return m.Total / time.Duration(m.Count)
}

// Percentile returns the given percentile of the retained samples.
func (m Measurement) Percentile(pct float64) time.Duration {
	if len(m.samples) == 0 {
		return 0
	}
	sorted := slices.Clone(m.samples)
	slices.Sort(sorted)
	pct = min(max(pct, 0), 100)
	return sorted[int(float64(len(sorted)-1)*pct/100.0)]
}
