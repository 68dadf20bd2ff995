package variation

import (
	"sort"
	"sync"
)

const DefaultPatternLogSize = 256

// PatternLog remembers the structural signatures of recently produced content
// within one generation run. Once full, the oldest entries are forgotten.
type PatternLog struct {
	mu       sync.Mutex
	capacity int
	entries  []string
	counts   map[string]int
}

func NewPatternLog(capacity int) *PatternLog {
	if capacity <= 0 {
		capacity = DefaultPatternLogSize
	}
	return &PatternLog{capacity: capacity, counts: map[string]int{}}
}

// Counts is a frozen view of how often signatures were seen.
type Counts map[string]int

func (c Counts) Count(sig string) int { return c[sig] }

func (l *PatternLog) Record(sigs ...string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.recordLocked(sigs)
}

func (l *PatternLog) recordLocked(sigs []string) {
	for _, s := range sigs {
		l.entries = append(l.entries, s)
		l.counts[s]++
		if len(l.entries) > l.capacity {
			old := l.entries[0]
			l.entries = l.entries[1:]
			if l.counts[old]--; l.counts[old] <= 0 {
				delete(l.counts, old)
			}
		}
	}
}

// Observe returns the prior counts of sigs and records them, atomically.
func (l *PatternLog) Observe(sigs []string) Counts {
	l.mu.Lock()
	defer l.mu.Unlock()
	prior := make(Counts, len(sigs))
	for _, s := range sigs {
		prior[s] = l.counts[s]
	}
	l.recordLocked(sigs)
	return prior
}

func (l *PatternLog) Count(sig string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.counts[sig]
}

// Snapshot copies the current counts.
func (l *PatternLog) Snapshot() Counts {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make(Counts, len(l.counts))
	for k, v := range l.counts {
		out[k] = v
	}
	return out
}

// Overused lists signatures seen at least threshold times, sorted.
func (l *PatternLog) Overused(threshold int) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []string
	for s, n := range l.counts {
		if n >= threshold {
			out = append(out, s)
		}
	}
	sort.Strings(out)
	return out
}

func (l *PatternLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
