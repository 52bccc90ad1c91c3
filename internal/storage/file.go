package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"
	"go.uber.org/zap"

	"travelapp/internal/logging"
)

// FileStorage keeps all keys in one JSON object file. Every read goes to
// disk so that a logout performed by another process is observed. Writes
// hold an advisory lock on a sibling ".lock" file, so two processes updating
// different keys do not lose each other's change.
type FileStorage struct {
	path   string
	lock   *flock.Flock
	mu     sync.Mutex
	closed bool
}

// NewFileStorage returns a store backed by the JSON file at path. The file is
// created lazily on first write.
func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path, lock: flock.New(path + ".lock")}
}

// Path returns the backing file path.
func (f *FileStorage) Path() string {
	return f.path
}

func (f *FileStorage) Get(key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return "", false, ErrClosed
	}

	values, err := f.readLocked()
	if err != nil {
		return "", false, err
	}
	v, ok := values[key]
	return v, ok, nil
}

func (f *FileStorage) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}

	return f.update(func(values map[string]string) bool {
		values[key] = value
		return true
	})
}

func (f *FileStorage) Remove(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrClosed
	}

	return f.update(func(values map[string]string) bool {
		if _, ok := values[key]; !ok {
			return false
		}
		delete(values, key)
		return true
	})
}

// update runs a read-modify-write under the cross-process lock. fn reports
// whether it changed anything. Callers hold f.mu.
func (f *FileStorage) update(fn func(map[string]string) bool) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("failed to create storage dir: %w", err)
	}
	if err := f.lock.Lock(); err != nil {
		return fmt.Errorf("failed to lock storage: %w", err)
	}
	defer func() {
		if err := f.lock.Unlock(); err != nil {
			logging.For(logging.CategoryStorage).Warn("failed to unlock storage", zap.Error(err))
		}
	}()

	values, err := f.readLocked()
	if err != nil {
		return err
	}
	if !fn(values) {
		return nil
	}
	return f.writeLocked(values)
}

func (f *FileStorage) Close() error {
	f.mu.Lock()
	f.closed = true
	f.mu.Unlock()
	return nil
}

// readLocked loads the file. A corrupt file is treated as empty so one bad
// write cannot lock the user out; the next write replaces it.
func (f *FileStorage) readLocked() (map[string]string, error) {
	values := make(map[string]string)

	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return values, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read storage: %w", err)
	}
	if len(data) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		logging.For(logging.CategoryStorage).Warn("storage file is corrupt, starting empty",
			zap.String("path", f.path), zap.Error(err))
		return make(map[string]string), nil
	}
	return values, nil
}

func (f *FileStorage) writeLocked(values map[string]string) error {
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".storage-*.json")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write storage: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to write storage: %w", err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to chmod storage: %w", err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace storage: %w", err)
	}
	return nil
}
