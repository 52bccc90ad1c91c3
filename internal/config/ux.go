package config

// UIConfig holds terminal UI configuration.
type UIConfig struct {
	PageSize int  `yaml:"page_size"`
	DarkMode bool `yaml:"dark_mode"`
}
