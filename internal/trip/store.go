// Package trip holds the last trip recommendation and mirrors it into
// durable storage.
package trip

import "sync"

// Snapshot is a consistent view of the store.
type Snapshot struct {
	Data    *Recommendation
	Loading bool
	Err     string
}

// Empty reports whether there is nothing to show and nothing in flight.
func (s Snapshot) Empty() bool {
	return s.Data == nil && !s.Loading && s.Err == ""
}

// Store is the single owner of trip state. Only the search flow calls
// BeginSearch; everything else reads.
type Store struct {
	mu        sync.Mutex
	snap      Snapshot
	gen       uint64
	listeners []func(Snapshot, uint64)
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{}
}

func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap
}

func (s *Store) Data() *Recommendation { return s.Snapshot().Data }
func (s *Store) Loading() bool          { return s.Snapshot().Loading }
func (s *Store) Err() string            { return s.Snapshot().Err }

func (s *Store) SetData(d *Recommendation) {
	s.update(func(snap *Snapshot) { snap.Data = d })
}

func (s *Store) SetLoading(loading bool) {
	s.update(func(snap *Snapshot) { snap.Loading = loading })
}

func (s *Store) SetError(msg string) {
	s.update(func(snap *Snapshot) { snap.Err = msg })
}

// BeginSearch clears any previous result and marks a search in flight.
func (s *Store) BeginSearch() {
	s.update(func(snap *Snapshot) { *snap = Snapshot{Loading: true} })
}

// Finish ends a search with either data or an error message. A non-empty
// message wins over data.
func (s *Store) Finish(d *Recommendation, errMsg string) {
	s.update(func(snap *Snapshot) {
		if errMsg != "" {
			*snap = Snapshot{Err: errMsg}
			return
		}
		*snap = Snapshot{Data: d}
	})
}

// Clear resets the store.
func (s *Store) Clear() {
	s.update(func(snap *Snapshot) { *snap = Snapshot{} })
}

// OnChange registers fn to run after every mutation, outside the lock.
// Concurrent mutations may notify out of order.
func (s *Store) OnChange(fn func(Snapshot)) {
	s.onChange(func(snap Snapshot, _ uint64) { fn(snap) })
}

// onChange also passes the generation the snapshot was taken at, so a
// listener can drop notifications older than one it already handled.
func (s *Store) onChange(fn func(Snapshot, uint64)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

// generation counts mutations; hydration uses it to detect writes that
// happened while storage was being read.
func (s *Store) generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// hydrate installs d only if nothing mutated the store since gen and the
// store is still empty.
func (s *Store) hydrate(gen uint64, d *Recommendation) bool {
	s.mu.Lock()
	if s.gen != gen || !s.snap.Empty() {
		s.mu.Unlock()
		return false
	}
	s.gen++
	s.snap.Data = d
	snap, gen := s.snap, s.gen
	listeners := append([]func(Snapshot, uint64){}, s.listeners...)
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(snap, gen)
	}
	return true
}

func (s *Store) update(fn func(*Snapshot)) {
	s.mu.Lock()
	fn(&s.snap)
	s.gen++
	snap, gen := s.snap, s.gen
	listeners := append([]func(Snapshot, uint64){}, s.listeners...)
	s.mu.Unlock()

	for _, l := range listeners {
		l(snap, gen)
	}
}
