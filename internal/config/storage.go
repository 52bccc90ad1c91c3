package config

// Backend selects the durable client storage implementation.
type Backend string

const (
	BackendFile   Backend = "file"
	BackendSQLite Backend = "sqlite"
	BackendMemory Backend = "memory" // nothing survives the process
)

// StorageConfig configures durable client storage.
type StorageConfig struct {
	Backend Backend `yaml:"backend"`
	Dir     string  `yaml:"dir"` // default ~/.travelapp
}
