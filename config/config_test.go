package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir()) // .env dosyası okunmasın
	t.Setenv("JWT_SECRET", "secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0:9090", cfg.Server.Addr())
	assert.Equal(t, "./data/unread.db", cfg.Database.Path)
	assert.Equal(t, 5, cfg.Unread.BatchSize)
	assert.True(t, cfg.Unread.FastPath)
	assert.Equal(t, time.Minute, cfg.Unread.FastPathRetry)
	assert.Equal(t, 5*time.Minute, cfg.Unread.FullRefreshInterval)
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:5173"}, cfg.CORS.AllowedOrigins)
}

func TestLoad_Overrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("SERVER_PORT", "8081")
	t.Setenv("UNREAD_BATCH_SIZE", "3")
	t.Setenv("UNREAD_FAST_PATH", "false")
	t.Setenv("UNREAD_FULL_REFRESH_MINUTES", "0")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example , ,https://b.example")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8081, cfg.Server.Port)
	assert.Equal(t, 3, cfg.Unread.BatchSize)
	assert.False(t, cfg.Unread.FastPath)
	assert.Zero(t, cfg.Unread.FullRefreshInterval)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing secret", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("JWT_SECRET", "")

		_, err := Load()
		assert.ErrorContains(t, err, "JWT_SECRET")
	})

	t.Run("bad port", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("JWT_SECRET", "secret")
		t.Setenv("SERVER_PORT", "abc")

		_, err := Load()
		assert.ErrorContains(t, err, "SERVER_PORT")
	})

	t.Run("batch size below one", func(t *testing.T) {
		t.Chdir(t.TempDir())
		t.Setenv("JWT_SECRET", "secret")
		t.Setenv("UNREAD_BATCH_SIZE", "0")

		_, err := Load()
		assert.ErrorContains(t, err, "UNREAD_BATCH_SIZE")
	})
}
