// Package logging provides categorized zap loggers for the travel client.
// The CLI logs to stderr; the interactive UI logs to a file under the state
// directory because the terminal belongs to the UI.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/subsystem
type Category string

const (
	CategoryBoot    Category = "boot"    // Startup, config loading
	CategorySession Category = "session" // Credential decode, login/logout
	CategoryAPI     Category = "api"     // Outbound HTTP calls
	CategoryStorage Category = "storage" // Durable client storage
	CategoryTrip    Category = "trip"    // Trip data store and its cache
	CategorySearch  Category = "search"  // Trip search and geolocation
	CategoryMarkers Category = "markers" // Marker listing and edits
	CategoryUI      Category = "ui"      // TUI pages and routing
)

// Options controls how the base logger is built.
type Options struct {
	Level   string // debug, info, warn, error
	Verbose bool   // forces debug level
	File    string // when set, logs go to this file instead of stderr
	Console bool   // human readable encoder instead of JSON
}

var (
	mu   sync.RWMutex
	base = zap.NewNop()
)

// New builds a zap logger from options without installing it.
func New(opts Options) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.DisableStacktrace = true

	level := zapcore.InfoLevel
	if opts.Level != "" {
		parsed, err := zapcore.ParseLevel(strings.ToLower(opts.Level))
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
		}
		level = parsed
	}
	if opts.Verbose {
		level = zapcore.DebugLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	if opts.Console {
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		cfg.OutputPaths = []string{opts.File}
		cfg.ErrorOutputPaths = []string{opts.File}
	}

	return cfg.Build()
}

// Install replaces the process-wide base logger. Passing nil installs a no-op.
func Install(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	mu.Lock()
	base = l
	mu.Unlock()
}

// L returns the base logger.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return base
}

// For returns a named child logger for the category.
func For(category Category) *zap.Logger {
	return L().Named(string(category))
}

// Sync flushes the base logger. Errors from syncing stderr are ignored.
func Sync() {
	_ = L().Sync()
}
