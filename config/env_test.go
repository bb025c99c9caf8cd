package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultsWhenFilesMissing(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, LoadFrom(filepath.Join(dir, "app.json"), filepath.Join(dir, ".env")))

	assert.Equal(t, "sqlite", DatabaseDriver())
	assert.Equal(t, defaultSQLiteDSN, DatabaseDSN())
	assert.Equal(t, "memory", DispenseDriver())
	assert.Equal(t, 5*time.Second, DispenseCooldown())
	assert.Equal(t, "machine-001", MachineID())
	assert.Equal(t, 200, RateLimitPerMinute())
}

func TestDotEnvOverridesJSON(t *testing.T) {
	dir := t.TempDir()
	jsonPath := writeFile(t, dir, "app.json", `{"db_driver":"postgres","dispense_cooldown":"2s","rate_limit_per_minute":50}`)
	envPath := writeFile(t, dir, ".env", "# comment\nDISPENSE_COOLDOWN=\"750ms\"\nMACHINE_ID=lobby-02\n")

	require.NoError(t, LoadFrom(jsonPath, envPath))

	assert.Equal(t, "postgres", DatabaseDriver())
	assert.Equal(t, defaultPostgresDSN, DatabaseDSN())
	assert.Equal(t, 750*time.Millisecond, DispenseCooldown())
	assert.Equal(t, "lobby-02", MachineID())
	assert.Equal(t, 50, RateLimitPerMinute())
}

func TestEnvironmentWins(t *testing.T) {
	dir := t.TempDir()
	envPath := writeFile(t, dir, ".env", "DISPENSE_DRIVER=memory\n")
	t.Setenv("DISPENSE_DRIVER", "redis")
	t.Setenv("DISPENSE_COOLDOWN", "0s")

	require.NoError(t, LoadFrom(filepath.Join(dir, "app.json"), envPath))

	assert.Equal(t, "redis", DispenseDriver())
	assert.Equal(t, time.Duration(0), DispenseCooldown())
}

func TestInvalidValuesFallBack(t *testing.T) {
	dir := t.TempDir()
	envPath := writeFile(t, dir, ".env", "DB_DRIVER=oracle\nDISPENSE_DRIVER=etcd\nDISPENSE_COOLDOWN=soon\nRATE_LIMIT_PER_MINUTE=-3\n")

	require.NoError(t, LoadFrom(filepath.Join(dir, "app.json"), envPath))

	assert.Equal(t, "sqlite", DatabaseDriver())
	assert.Equal(t, "memory", DispenseDriver())
	assert.Equal(t, 5*time.Second, DispenseCooldown())
	assert.Equal(t, 200, RateLimitPerMinute())
}

func TestMalformedJSON(t *testing.T) {
	dir := t.TempDir()
	jsonPath := writeFile(t, dir, "app.json", `{"db_driver":`)

	assert.Error(t, LoadFrom(jsonPath, filepath.Join(dir, ".env")))
}

func TestCORSAllowedOrigins(t *testing.T) {
	dir := t.TempDir()
	envPath := writeFile(t, dir, ".env", "CORS_ALLOWED_ORIGINS=https://a.example.com, https://b.example.com,\n")

	require.NoError(t, LoadFrom(filepath.Join(dir, "app.json"), envPath))
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, CORSAllowedOrigins())
}
