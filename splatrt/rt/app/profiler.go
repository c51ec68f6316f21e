package app

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"
)

// Profiler keeps the most recent CPU duration of each named frame phase and a
// set of integer counters for the HUD.
type Profiler struct {
	Scopes     map[string]time.Duration
	StartTimes map[string]time.Time
	Counts     map[string]int
	Order      []string

	now func() time.Time
}

func NewProfiler() *Profiler {
	return &Profiler{
		Scopes:     make(map[string]time.Duration),
		StartTimes: make(map[string]time.Time),
		Counts:     make(map[string]int),
		now:        time.Now,
	}
}

func (p *Profiler) BeginScope(name string) {
	p.StartTimes[name] = p.now()
	if !slices.Contains(p.Order, name) {
		p.Order = append(p.Order, name)
	}
}

func (p *Profiler) EndScope(name string) {
	if start, ok := p.StartTimes[name]; ok {
		p.Scopes[name] = p.now().Sub(start)
		delete(p.StartTimes, name)
	}
}

func (p *Profiler) SetCount(name string, count int) {
	p.Counts[name] = count
}

// Reset zeroes the timings but keeps scope order and counters.
func (p *Profiler) Reset() {
	for k := range p.Scopes {
		p.Scopes[k] = 0
	}
}

// Lines renders timings in first-use order followed by counters sorted by name.
func (p *Profiler) Lines() []string {
	out := make([]string, 0, len(p.Order)+len(p.Counts))
	for _, name := range p.Order {
		ms := float64(p.Scopes[name].Microseconds()) / 1000.0
		out = append(out, fmt.Sprintf("%-8s %.2f ms", name, ms))
	}
	keys := make([]string, 0, len(p.Counts))
	for k := range p.Counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		out = append(out, fmt.Sprintf("%-8s %d", k, p.Counts[k]))
	}
	return out
}

func (p *Profiler) String() string {
	return strings.Join(p.Lines(), "\n")
}
