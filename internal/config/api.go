package config

// APIConfig configures the recommendation API client.
type APIConfig struct {
	BaseURL    string `yaml:"base_url"`
	Timeout    string `yaml:"timeout"`
	RetryCount int    `yaml:"retry_count"` // retries for idempotent GETs only
}
