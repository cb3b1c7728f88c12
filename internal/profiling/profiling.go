// Package profiling implements a lightweight per-frame CPU profiler for
// tick-level insight into the FarMap pipeline. A *Profiler is constructed
// explicitly by the caller and threaded through rather than kept as package
// state, so the core never reaches into process-wide globals.
package profiling

import (
	"maps"
	"sort"
	"strings"
	"sync"
	"time"
)

// Profiler accumulates named durations for the current frame.
type Profiler struct {
	mu          sync.Mutex
	frameTotals map[string]time.Duration
}

// New returns an empty Profiler.
func New() *Profiler {
	return &Profiler{frameTotals: make(map[string]time.Duration)}
}

// Track returns a stop function that records the elapsed time under name.
// Usage: defer p.Track("worker.MeshBuild")()
func (p *Profiler) Track(name string) func() {
	start := time.Now()
	return func() {
		d := time.Since(start)
		p.mu.Lock()
		p.frameTotals[name] += d
		p.mu.Unlock()
	}
}

// ResetFrame clears current per-frame totals. Call at the start of each frame.
func (p *Profiler) ResetFrame() {
	p.mu.Lock()
	for k := range p.frameTotals {
		delete(p.frameTotals, k)
	}
	p.mu.Unlock()
}

// Snapshot returns a copy of current per-frame totals.
func (p *Profiler) Snapshot() map[string]time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]time.Duration, len(p.frameTotals))
	maps.Copy(out, p.frameTotals)
	return out
}

// Total returns the sum of all tracked durations this frame.
func (p *Profiler) Total() time.Duration {
	ss := p.Snapshot()
	var sum time.Duration
	for _, v := range ss {
		sum += v
	}
	return sum
}

// SumWithPrefix returns the sum of durations whose names start with any of
// the given prefixes.
func (p *Profiler) SumWithPrefix(prefixes ...string) time.Duration {
	ss := p.Snapshot()
	var sum time.Duration
	for k, v := range ss {
		for _, pre := range prefixes {
			if strings.HasPrefix(k, pre) {
				sum += v
				break
			}
		}
	}
	return sum
}

// Add adds an arbitrary duration under name to the current frame totals.
func (p *Profiler) Add(name string, d time.Duration) {
	if d <= 0 {
		return
	}
	p.mu.Lock()
	p.frameTotals[name] += d
	p.mu.Unlock()
}

// TopN formats the N largest durations from the current frame totals, e.g.
// "worker.MeshBuild:4.2ms, draw.Frame:2.1ms".
func (p *Profiler) TopN(n int) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	type pair struct {
		name string
		dur  time.Duration
	}
	list := make([]pair, 0, len(p.frameTotals))
	for k, v := range p.frameTotals {
		list = append(list, pair{name: k, dur: v})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].dur > list[j].dur })
	if n > len(list) {
		n = len(list)
	}
	parts := make([]string, 0, n)
	for i := 0; i < n; i++ {
		ms := float64(list[i].dur.Microseconds()) / 1000.0
		parts = append(parts, list[i].name+":"+formatMs(ms))
	}
	return strings.Join(parts, ", ")
}

func formatMs(ms float64) string {
	return trimTrailingZerosF(ms) + "ms"
}

func trimTrailingZerosF(f float64) string {
	whole := int64(f)
	frac := int64((f-float64(whole))*10.0 + 0.0001)
	if frac <= 0 {
		return itoa(whole)
	}
	return itoa(whole) + "." + itoa(frac)
}

func itoa(i int64) string {
	if i == 0 {
		return "0"
	}
	neg := false
	if i < 0 {
		neg = true
		i = -i
	}
	buf := make([]byte, 0, 20)
	for i > 0 {
		d := i % 10
		buf = append(buf, byte('0'+d))
		i /= 10
	}
	for l, r := 0, len(buf)-1; l < r; l, r = l+1, r-1 {
		buf[l], buf[r] = buf[r], buf[l]
	}
	if neg {
		return "-" + string(buf)
	}
	return string(buf)
}
