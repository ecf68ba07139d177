package alloc

import "sync"

// Synchronized is a mutex-protected wrapper around Allocator for use by
// several goroutines of one process. It does not coordinate processes that
// share the same bookkeeping block.
type Synchronized struct {
	mu sync.Mutex
	a  *Allocator
}

// NewSynchronized wraps a. The caller must stop using a directly.
func NewSynchronized(a *Allocator) *Synchronized {
	return &Synchronized{a: a}
}

// Alloc thread-safely reserves n bytes.
func (s *Synchronized) Alloc(n uint32) (RelativePtr, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Alloc(n)
}

// Dealloc thread-safely releases the used region starting at p.
func (s *Synchronized) Dealloc(p RelativePtr) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Dealloc(p)
}

// Usage thread-safely reports byte and region totals.
func (s *Synchronized) Usage() Usage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Usage()
}

// Stats thread-safely returns the call counters.
func (s *Synchronized) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Stats()
}

// Check thread-safely runs every bookkeeping invariant.
func (s *Synchronized) Check() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.a.Check()
}

// Do runs fn with the lock held, for sequences that must not interleave.
func (s *Synchronized) Do(fn func(a *Allocator) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.a)
}
