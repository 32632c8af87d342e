package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTempJSON(t *testing.T, data map[string]any) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cfg.json")
	b, err := json.Marshal(data)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func Test_parseJson(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	t.Run("loads values named by -config", func(t *testing.T) {
		path := writeTempJSON(t, map[string]any{
			"database_path":         "/tmp/notes.db",
			"remote_base_url":       "https://sync.example.com",
			"debounce_interval":     "250ms",
			"online_check_interval": "10s",
		})
		os.Args = []string{"testbin", "-config", path}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseJson(cfg)

		assert.Equal(t, "/tmp/notes.db", cfg.DatabasePath)
		assert.Equal(t, "https://sync.example.com", cfg.RemoteBaseURL)
		assert.Equal(t, 250*time.Millisecond, cfg.DebounceInterval)
		assert.Equal(t, 10*time.Second, cfg.OnlineCheckInterval)
	})

	t.Run("absent fields keep their defaults", func(t *testing.T) {
		path := writeTempJSON(t, map[string]any{
			"remote_base_url": "https://sync.example.com",
		})
		os.Args = []string{"testbin", "-c", path}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseJson(cfg)

		assert.Equal(t, "offnote.db", cfg.DatabasePath)
		assert.Equal(t, 1*time.Second, cfg.DebounceInterval)
	})

	t.Run("no flag means no changes", func(t *testing.T) {
		os.Args = []string{"testbin"}

		cfg := &Config{DatabasePath: "unchanged.db", OnlineCheckInterval: 42 * time.Second}
		parseJson(cfg)

		assert.Equal(t, "unchanged.db", cfg.DatabasePath)
		assert.Equal(t, 42*time.Second, cfg.OnlineCheckInterval)
	})

	t.Run("integer nanoseconds are accepted", func(t *testing.T) {
		path := writeTempJSON(t, map[string]any{
			"debounce_interval": int64(500 * time.Millisecond),
		})
		os.Args = []string{"testbin", "-config", path}

		cfg := &Config{}
		cfg.LoadDefaults()
		parseJson(cfg)

		assert.Equal(t, 500*time.Millisecond, cfg.DebounceInterval)
	})
}
