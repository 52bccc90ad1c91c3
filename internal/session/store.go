// Package session owns the "who is logged in" state. The credential lives in
// durable storage; the Store is the only writer of both.
package session

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"travelapp/internal/logging"
	"travelapp/internal/storage"
)

// Clock abstracts time for expiry checks.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// State is the read-only projection handed to views.
type State struct {
	Token           string
	User            *User
	IsAuthenticated bool
	IsLoading       bool
}

// Store holds the session. It starts loading and becomes usable once
// Initialize has run.
type Store struct {
	storage storage.Storage
	clock   Clock
	log     *zap.Logger

	mu    sync.RWMutex
	state State
	subs  map[int]chan State
	next  int

	initOnce sync.Once
	ready    chan struct{}
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used for expiry checks.
func WithClock(c Clock) Option {
	return func(s *Store) { s.clock = c }
}

// NewStore creates a store in the loading state.
func NewStore(st storage.Storage, opts ...Option) *Store {
	s := &Store{
		storage: st,
		clock:   realClock{},
		log:     logging.For(logging.CategorySession),
		state:   State{IsLoading: true},
		subs:    make(map[int]chan State),
		ready:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Initialize restores the session from the persisted credential. It runs
// once; later calls return the current state. A credential that fails to
// decode is removed from storage.
func (s *Store) Initialize() State {
	s.initOnce.Do(func() {
		next := State{}

		token, ok, err := s.storage.Get(storage.KeyToken)
		if err != nil {
			s.log.Warn("could not read persisted credential", zap.Error(err))
			ok = false
		}
		if ok {
			user, err := Decode(token, s.clock.Now())
			if err != nil {
				s.log.Warn("discarding persisted credential", zap.Error(err))
				if err := s.storage.Remove(storage.KeyToken); err != nil {
					s.log.Warn("could not remove persisted credential", zap.Error(err))
				}
			} else {
				next = State{Token: token, User: user, IsAuthenticated: true}
			}
		}

		s.set(next)
		close(s.ready)
	})
	return s.State()
}

// Ready is closed once Initialize has completed.
func (s *Store) Ready() <-chan struct{} {
	return s.ready
}

// State returns a copy of the current session.
func (s *Store) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.state
	if st.User != nil {
		u := *st.User
		st.User = &u
	}
	return st
}

// Token returns the bearer credential, or "" when there is none. Before
// Initialize it is always "".
func (s *Store) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Token
}

// Login persists the credential and populates the session. A credential that
// does not decode logs the user out instead of leaving a partial session.
func (s *Store) Login(token string) error {
	if err := s.storage.Set(storage.KeyToken, token); err != nil {
		s.log.Warn("could not persist credential", zap.Error(err))
	}

	user, err := Decode(token, s.clock.Now())
	if err != nil {
		s.log.Warn("login with undecodable credential", zap.Error(err))
		s.Logout()
		return fmt.Errorf("login: %w", err)
	}

	s.log.Info("logged in", zap.String("user", user.Username), zap.String("role", user.Role))
	s.set(State{Token: token, User: user, IsAuthenticated: true})
	return nil
}

// Logout clears the persisted credential and resets the session. Calling it
// repeatedly is harmless.
func (s *Store) Logout() {
	if err := s.storage.Remove(storage.KeyToken); err != nil {
		s.log.Warn("could not remove persisted credential", zap.Error(err))
	}
	s.set(State{})
}

// Resync re-reads the persisted credential after storage was changed by
// someone else, for example a logout in another terminal.
func (s *Store) Resync() State {
	select {
	case <-s.ready:
	default:
		return s.Initialize()
	}

	token, ok, err := s.storage.Get(storage.KeyToken)
	if err != nil {
		s.log.Warn("could not read persisted credential", zap.Error(err))
		return s.State()
	}
	if ok && token == s.Token() {
		return s.State()
	}
	if !ok {
		s.set(State{})
		return s.State()
	}

	user, err := Decode(token, s.clock.Now())
	if err != nil {
		s.log.Warn("discarding persisted credential", zap.Error(err))
		s.Logout()
		return s.State()
	}
	s.set(State{Token: token, User: user, IsAuthenticated: true})
	return s.State()
}

// Subscribe returns a channel carrying the latest state after every change.
// Only the newest state is kept for slow readers. Call cancel to stop.
func (s *Store) Subscribe() (<-chan State, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.next
	s.next++
	ch := make(chan State, 1)
	s.subs[id] = ch

	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}
}

// set replaces the state and notifies subscribers when it changed.
func (s *Store) set(next State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sameState(s.state, next) {
		return
	}
	s.state = next

	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- next
	}
}

func sameState(a, b State) bool {
	if a.Token != b.Token || a.IsAuthenticated != b.IsAuthenticated || a.IsLoading != b.IsLoading {
		return false
	}
	if (a.User == nil) != (b.User == nil) {
		return false
	}
	return a.User == nil || *a.User == *b.User
}
