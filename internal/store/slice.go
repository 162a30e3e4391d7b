// Package store implements the async resource slice pattern shared by the
// cart, order and catalog stores: one remote operation wrapped in a
// pending/fulfilled/rejected lifecycle feeding a named partition of state.
package store

import "sync"

// Snapshot is a point-in-time read of a slice.
type Snapshot[T any] struct {
	Data    T
	Loading bool
	Err     error
}

// Slice is an injectable state container for one partition of application
// state. Writes go through the Begin/Resolve/Reject lifecycle; reads are
// whole-slice snapshots, so concurrent subscribers never observe partial
// mutation.
//
// Each Begin hands out a monotonic sequence number and only the most
// recently begun request may settle the slice: a response that arrives
// after a newer request was dispatched is discarded rather than allowed
// to overwrite newer state.
type Slice[T any] struct {
	mu      sync.RWMutex
	data    T
	loading bool
	err     error
	seq     uint64

	subMu   sync.Mutex
	subs    map[int]func(Snapshot[T])
	nextSub int
}

func NewSlice[T any]() *Slice[T] {
	return &Slice[T]{subs: make(map[int]func(Snapshot[T]))}
}

// Begin marks the slice as loading and clears any previous error. The
// returned sequence number must be passed to Resolve or Reject.
func (s *Slice[T]) Begin() uint64 {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.loading = true
	s.err = nil
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return seq
}

// Resolve settles a request successfully, applying the reducer to the
// slice data. Stale settlements (a newer request has begun since) are
// discarded; the return value reports whether the reducer ran.
func (s *Slice[T]) Resolve(seq uint64, apply func(*T)) bool {
	s.mu.Lock()
	if seq != s.seq {
		s.mu.Unlock()
		return false
	}
	if apply != nil {
		apply(&s.data)
	}
	s.loading = false
	s.err = nil
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return true
}

// Reject settles a request with an error, leaving the data untouched.
// Subject to the same staleness fencing as Resolve.
func (s *Slice[T]) Reject(seq uint64, err error) bool {
	s.mu.Lock()
	if seq != s.seq {
		s.mu.Unlock()
		return false
	}
	s.loading = false
	s.err = err
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return true
}

// Mutate applies a local-only change outside the request lifecycle
// (filter state, explicit resets). It does not touch loading or error.
func (s *Slice[T]) Mutate(apply func(*T)) {
	s.mu.Lock()
	apply(&s.data)
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
}

func (s *Slice[T]) Get() Snapshot[T] {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Slice[T]) Data() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data
}

func (s *Slice[T]) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *Slice[T]) Err() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.err
}

// View reads a derived value under the slice lock. Selectors must not
// retain references into mutable slice data.
func View[T, V any](s *Slice[T], selector func(T) V) V {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return selector(s.data)
}

func (s *Slice[T]) ClearError() {
	s.mu.Lock()
	s.err = nil
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
}

// Subscribe registers an observer called after every applied transition.
// The returned function unsubscribes.
func (s *Slice[T]) Subscribe(fn func(Snapshot[T])) func() {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

func (s *Slice[T]) snapshotLocked() Snapshot[T] {
	return Snapshot[T]{Data: s.data, Loading: s.loading, Err: s.err}
}

// notify runs outside the state lock so subscribers may read the slice.
func (s *Slice[T]) notify(snap Snapshot[T]) {
	s.subMu.Lock()
	fns := make([]func(Snapshot[T]), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}
