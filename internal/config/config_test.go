package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Run("Reads the config file and keeps defaults for missing keys", func(t *testing.T) {
		// Given: a config file with a few keys set
		path := filepath.Join(t.TempDir(), "config.yml")
		content := "log-level: debug\n" +
			"storage:\n  driver: memory\n" +
			"redis:\n  host: redis\n" +
			"presence:\n  liveness-window: 45s\n" +
			"cors:\n  allow-origins: [\"http://localhost:3000\"]\n"
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		// When: it is loaded
		conf, err := Load(path)

		// Then: file values and defaults are merged
		require.NoError(t, err)
		assert.Equal(t, "debug", conf.LogLevel)
		assert.Equal(t, StorageMemory, conf.Storage.Driver)
		assert.Equal(t, "redis:6379", conf.Redis.GetRedisAddr())
		assert.Equal(t, 45*time.Second, conf.Presence.LivenessWindow)
		assert.Equal(t, []string{"http://localhost:3000"}, conf.CORS.AllowOrigins)
		assert.Equal(t, "9090", conf.HTTPPort)
		assert.Equal(t, 5, conf.Room.CodeAttempts)
	})

	t.Run("Falls back to the environment without a file", func(t *testing.T) {
		t.Setenv("HTTP_PORT", "8081")
		t.Setenv("STORAGE_DRIVER", "memory")

		conf, err := Load(filepath.Join(t.TempDir(), "missing.yml"))

		require.NoError(t, err)
		assert.Equal(t, "8081", conf.HTTPPort)
		assert.Equal(t, StorageMemory, conf.Storage.Driver)
		assert.Equal(t, 10*time.Second, conf.Presence.LivenessWindow)
	})

	t.Run("Postgres driver requires a dsn", func(t *testing.T) {
		t.Setenv("STORAGE_DRIVER", "postgres")

		_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))

		require.Error(t, err)
	})

	t.Run("Unknown driver is rejected", func(t *testing.T) {
		t.Setenv("STORAGE_DRIVER", "cassandra")

		_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))

		require.Error(t, err)
	})
}
