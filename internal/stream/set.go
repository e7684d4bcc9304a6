package stream

import (
	"fmt"
	"sort"
	"sync"
)

// Set is the daemon's roster of running camera runners, keyed by
// camera name.
type Set struct {
	mu      sync.RWMutex
	runners map[string]*Runner
}

// NewSet creates an empty runner set.
func NewSet() *Set {
	return &Set{runners: make(map[string]*Runner)}
}

// Add registers a runner under its camera name.
func (s *Set) Add(r *Runner) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runners[r.Name()]; ok {
		return fmt.Errorf("stream: runner %q already registered", r.Name())
	}
	s.runners[r.Name()] = r
	return nil
}

// Get returns the runner for the named camera.
func (s *Set) Get(name string) (*Runner, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.runners[name]
	return r, ok
}

// Names lists the registered camera names, sorted.
func (s *Set) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.runners))
	for name := range s.runners {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Stats snapshots every runner's counters.
func (s *Set) Stats() []RunnerStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make([]RunnerStats, 0, len(s.runners))
	for _, r := range s.runners {
		stats = append(stats, r.Stats())
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Name < stats[j].Name })
	return stats
}

// CloseAll stops and releases every runner.
func (s *Set) CloseAll() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range s.runners {
		r.Close()
	}
	s.runners = make(map[string]*Runner)
}
