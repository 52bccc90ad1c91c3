package geo

import (
	"context"
	"sync"
)

// Readiness runs an initializer once and lets any number of waiters block
// until it finishes or their context ends.
type Readiness struct {
	init func() error

	once sync.Once
	done chan struct{}
	err  error
}

// NewReadiness wraps init. Nothing runs until Start or Wait.
func NewReadiness(init func() error) *Readiness {
	return &Readiness{init: init, done: make(chan struct{})}
}

// Start runs the initializer in the background if it has not run yet.
func (r *Readiness) Start() {
	r.once.Do(func() {
		go func() {
			defer close(r.done)
			if r.init != nil {
				r.err = r.init()
			}
		}()
	})
}

// Wait starts the initializer if needed and blocks until it completes or ctx
// is done.
func (r *Readiness) Wait(ctx context.Context) error {
	r.Start()
	select {
	case <-r.done:
		return r.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Ready reports whether the initializer has finished.
func (r *Readiness) Ready() bool {
	select {
	case <-r.done:
		return true
	default:
		return false
	}
}
