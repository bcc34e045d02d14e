package correction

import (
	"maps"
	"sync"
	"sync/atomic"
)

// Learned is an append-only map of corrections confirmed by users.
// Readers never lock; writers copy the map and swap the pointer.
type Learned struct {
	mu sync.Mutex
	m  atomic.Pointer[map[string]string]
}

// NewLearned creates an empty learned map.
func NewLearned() *Learned {
	l := &Learned{}
	empty := map[string]string{}
	l.m.Store(&empty)
	return l
}

// Lookup returns the learned replacement for a token.
func (l *Learned) Lookup(from string) (string, bool) {
	to, ok := (*l.m.Load())[from]
	return to, ok
}

// Add records from->to. Existing entries are never overwritten; reports whether the entry was new.
func (l *Learned) Add(from, to string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	cur := *l.m.Load()
	if _, ok := cur[from]; ok {
		return false
	}
	next := maps.Clone(cur)
	next[from] = to
	l.m.Store(&next)
	return true
}

// Merge adds every entry of m that is not already present.
func (l *Learned) Merge(m map[string]string) int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cur := *l.m.Load()
	next := maps.Clone(cur)
	added := 0
	for from, to := range m {
		if _, ok := next[from]; ok {
			continue
		}
		next[from] = to
		added++
	}
	if added > 0 {
		l.m.Store(&next)
	}
	return added
}

// Len returns the number of learned entries.
func (l *Learned) Len() int { return len(*l.m.Load()) }
