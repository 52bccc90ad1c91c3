package trip

import (
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"travelapp/internal/logging"
	"travelapp/internal/storage"
)

// Persister mirrors the store into durable storage and restores it from
// there. Storage is a cache: the store stays authoritative and write
// failures only produce warnings.
type Persister struct {
	store   *Store
	storage storage.Storage
	log     *zap.Logger

	mirrorOnce sync.Once
	// mu serializes mirror writes. seen is the newest store generation
	// handled; last is the payload storage holds, so hydrating does not
	// write the same bytes straight back.
	mu   sync.Mutex
	seen uint64
	last *Recommendation
}

// NewPersister binds a store to storage. Call Mirror to start writing.
func NewPersister(store *Store, st storage.Storage) *Persister {
	return &Persister{
		store:   store,
		storage: st,
		log:     logging.For(logging.CategoryTrip),
	}
}

// Mirror writes every non-nil data change to storage. A notification older
// than one already handled is dropped, so storage never goes back to an
// earlier payload. Safe to call more than once.
func (p *Persister) Mirror() {
	p.mirrorOnce.Do(func() {
		p.store.onChange(p.mirror)
	})
}

func (p *Persister) mirror(snap Snapshot, gen uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if gen <= p.seen {
		p.log.Debug("dropping stale trip mirror", zap.Uint64("gen", gen), zap.Uint64("seen", p.seen))
		return
	}
	p.seen = gen
	if snap.Data == nil || snap.Data == p.last {
		return
	}
	p.last = snap.Data
	p.write(snap.Data)
}

// Hydrate loads the cached recommendation when the store is empty and not
// loading. A store mutation that lands while storage is being read wins.
// It reports whether the store was populated.
func (p *Persister) Hydrate() bool {
	if !p.store.Snapshot().Empty() {
		return false
	}
	gen := p.store.generation()

	raw, ok, err := p.storage.Get(storage.KeyTripData)
	if err != nil {
		p.log.Warn("could not read cached trip data", zap.Error(err))
		return false
	}
	if !ok || raw == "" {
		return false
	}

	var rec Recommendation
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		p.log.Warn("discarding unreadable cached trip data", zap.Error(err))
		return false
	}

	p.mu.Lock()
	p.last = &rec
	p.mu.Unlock()

	if !p.store.hydrate(gen, &rec) {
		p.log.Debug("skipping hydration, store changed meanwhile")
		return false
	}
	return true
}

// Clear empties the store and drops the cached copy.
func (p *Persister) Clear() {
	p.store.Clear()
	if err := p.storage.Remove(storage.KeyTripData); err != nil {
		p.log.Warn("could not remove cached trip data", zap.Error(err))
	}
}

func (p *Persister) write(rec *Recommendation) {
	b, err := json.Marshal(rec)
	if err != nil {
		p.log.Warn("could not encode trip data", zap.Error(err))
		return
	}
	if err := p.storage.Set(storage.KeyTripData, string(b)); err != nil {
		p.log.Warn("could not cache trip data", zap.Error(err))
	}
}
