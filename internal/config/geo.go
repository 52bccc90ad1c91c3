package config

// GeoConfig configures how the search page resolves the user's position.
type GeoConfig struct {
	Timeout     string  `yaml:"timeout"`
	Origin      string  `yaml:"origin"`        // fixed "lat,lng", skips lookup
	IPLookupURL string  `yaml:"ip_lookup_url"` // JSON endpoint returning lat/lon
	FallbackLat float64 `yaml:"fallback_lat"`
	FallbackLng float64 `yaml:"fallback_lng"`
}
