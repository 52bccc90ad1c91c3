package config

import "path/filepath"

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
	File  string `yaml:"file"`  // interactive mode log file, default <state>/logs/travel.log
}

// LogFile resolves the interactive log file path.
func (c *Config) LogFile() string {
	if c.Logging.File != "" {
		return c.Logging.File
	}
	return filepath.Join(c.StateDir(), "logs", "travel.log")
}
