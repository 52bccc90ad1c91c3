// Package storage is the durable client storage of the travel client: a small
// string key/value store that outlives a single run, the terminal analogue of
// a browser's local storage.
package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"travelapp/internal/config"
)

// Well-known keys.
const (
	KeyToken    = "jwt_token" // persisted credential
	KeyTripData = "trip_data" // last-known trip recommendation
)

// ErrClosed is returned by operations on a closed store.
var ErrClosed = errors.New("storage closed")

// Storage is a string key/value store. Get reports whether the key exists.
type Storage interface {
	Get(key string) (string, bool, error)
	Set(key, value string) error
	Remove(key string) error
	Close() error
}

// Location returns the file backing backend under dir, or "" for the memory
// backend.
func Location(backend config.Backend, dir string) string {
	switch backend {
	case config.BackendFile, "":
		return filepath.Join(dir, "storage.json")
	case config.BackendSQLite:
		return filepath.Join(dir, "storage.db")
	default:
		return ""
	}
}

// Open builds the configured backend under dir.
func Open(backend config.Backend, dir string) (Storage, error) {
	if backend == config.BackendMemory {
		return NewMemory(), nil
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("failed to create state dir: %w", err)
	}
	switch backend {
	case config.BackendFile, "":
		return NewFileStorage(Location(backend, dir)), nil
	case config.BackendSQLite:
		return OpenSQLite(Location(backend, dir))
	default:
		return nil, fmt.Errorf("unknown storage backend %q", backend)
	}
}
