package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(body), 0o600))
	return dir
}

func TestLoadConfig_Defaults(t *testing.T) {
	dir := writeConfig(t, `
server:
  mode: debug
database:
  driver: sqlite
  path: test.db
jwt:
  secret: short
`)

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Database.QueryTimeout)
	assert.False(t, cfg.Activity.Enabled)
	assert.Equal(t, time.Minute, cfg.Activity.MinInterval)
	assert.Equal(t, 10, cfg.Review.DefaultPageSize)
	assert.Equal(t, 100, cfg.Review.MaxPageSize)
	assert.Equal(t, 30*time.Second, cfg.Review.WorkloadCacheTTL)
	assert.Equal(t, 3, cfg.Review.MaxWriteAttempts)
}

func TestLoadConfig_ReadsNestedKeysAndEnv(t *testing.T) {
	dir := writeConfig(t, `
server:
  mode: debug
database:
  driver: sqlite
  path: test.db
  query_timeout: 2s
jwt:
  secret: from-file
log:
  level: warn
rate_limit:
  max_requests: 50
  window_minutes: 5
activity:
  enabled: true
  min_interval: 10s
`)
	t.Setenv("JWT_SECRET", "from-env")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, 2*time.Second, cfg.Database.QueryTimeout)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, 50, cfg.RateLimit.MaxRequests)
	assert.Equal(t, 5, cfg.RateLimit.WindowMinutes)
	assert.True(t, cfg.Activity.Enabled)
	assert.Equal(t, 10*time.Second, cfg.Activity.MinInterval)
	assert.Equal(t, "from-env", cfg.JWT.Secret)
}

func TestLoadConfig_ReleaseRequiresStrongSecret(t *testing.T) {
	dir := writeConfig(t, `
server:
  mode: release
database:
  driver: mysql
jwt:
  secret: too-short
`)

	_, err := LoadConfig(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT secret is too short")
}

func TestLoadConfig_RejectsUnknownDriver(t *testing.T) {
	dir := writeConfig(t, `
database:
  driver: postgres
`)

	_, err := LoadConfig(dir)
	require.Error(t, err)
}

func TestReviewConfig_Normalize(t *testing.T) {
	r := ReviewConfig{DefaultPageSize: 500, MaxPageSize: 50}
	r.Normalize()

	assert.Equal(t, 50, r.DefaultPageSize)
	assert.Equal(t, 50, r.MaxPageSize)
	assert.Equal(t, 3, r.MaxWriteAttempts)
}
