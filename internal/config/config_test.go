package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearTravelEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"TRAVEL_API_BASE_URL", "TRAVEL_API_TIMEOUT", "TRAVEL_STORAGE_BACKEND",
		"TRAVEL_STATE_DIR", "TRAVEL_GEO_TIMEOUT", "TRAVEL_ORIGIN",
		"TRAVEL_DARK_MODE", "TRAVEL_LOG_LEVEL",
	} {
		t.Setenv(k, "")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Empty(t, cfg.API.BaseURL)
	assert.Equal(t, BackendFile, cfg.Storage.Backend)
	assert.Equal(t, 10, cfg.UI.PageSize)
	assert.Equal(t, -6.890614, cfg.Geo.FallbackLat)
	assert.Equal(t, 107.610531, cfg.Geo.FallbackLng)
	assert.Equal(t, 5*time.Second, cfg.GetGeoTimeout())
}

func TestConfig_SaveLoad(t *testing.T) {
	clearTravelEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := DefaultConfig()
	cfg.API.BaseURL = "https://api.example.test"
	cfg.Storage.Backend = BackendSQLite
	cfg.UI.PageSize = 25

	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.test", loaded.API.BaseURL)
	assert.Equal(t, BackendSQLite, loaded.Storage.Backend)
	assert.Equal(t, 25, loaded.UI.PageSize)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearTravelEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api: [unclosed"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Run("base URL from env wins over file", func(t *testing.T) {
		clearTravelEnv(t)
		path := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(path, []byte("api:\n  base_url: http://file\n"), 0o644))
		t.Setenv("TRAVEL_API_BASE_URL", "http://env")

		cfg, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, "http://env", cfg.API.BaseURL)
	})

	t.Run("storage backend is lower-cased", func(t *testing.T) {
		clearTravelEnv(t)
		t.Setenv("TRAVEL_STORAGE_BACKEND", "SQLite")
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.Equal(t, BackendSQLite, cfg.Storage.Backend)
	})

	t.Run("invalid dark mode value is ignored", func(t *testing.T) {
		clearTravelEnv(t)
		t.Setenv("TRAVEL_DARK_MODE", "sometimes")
		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.False(t, cfg.UI.DarkMode)
	})
}

func TestLoadDotEnv(t *testing.T) {
	clearTravelEnv(t)
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("TRAVEL_ORIGIN=-6.9,107.6\n"), 0o644))

	// godotenv never overrides a variable that is set, even to "". The
	// t.Setenv cleanup registered above restores the original value.
	require.NoError(t, os.Unsetenv("TRAVEL_ORIGIN"))
	require.NoError(t, LoadDotEnv(filepath.Join(dir, "missing.env"), envPath))
	assert.Equal(t, "-6.9,107.6", os.Getenv("TRAVEL_ORIGIN"))
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	assert.ErrorIs(t, cfg.Validate(), ErrMissingBaseURL)

	cfg.API.BaseURL = "http://localhost:3000"
	assert.NoError(t, cfg.Validate())

	cfg.Storage.Backend = "redis"
	assert.Error(t, cfg.Validate())
}

func TestStateDirAndLogFile(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Storage.Dir = "/tmp/travel-state"
	assert.Equal(t, "/tmp/travel-state", cfg.StateDir())
	assert.Equal(t, filepath.Join("/tmp/travel-state", "logs", "travel.log"), cfg.LogFile())

	cfg.Logging.File = "/var/log/travel.log"
	assert.Equal(t, "/var/log/travel.log", cfg.LogFile())
}

func TestGetAPITimeout_Fallback(t *testing.T) {
	cfg := DefaultConfig()
	cfg.API.Timeout = "not-a-duration"
	assert.Equal(t, 30*time.Second, cfg.GetAPITimeout())
}
