package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromMap_Defaults(t *testing.T) {
	cfg, err := FromMap(map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.LogFormat())
	assert.Empty(t, cfg.Database.URL)
	assert.Equal(t, 10, cfg.Database.MaxConns)
	assert.Equal(t, 30*time.Second, cfg.Redis.CacheTTL)
	assert.Equal(t, "upkeep.notifications", cfg.Notify.Exchange)
	assert.Equal(t, uint32(5), cfg.Notify.BreakerFailures)
	assert.Equal(t, "600-M", cfg.HTTP.RateLimit)
	assert.Equal(t, time.UTC, cfg.Location())
	assert.Equal(t, "owner", cfg.Actor.Role)
	assert.Equal(t, "00000000-0000-0000-0000-00000000f00d", cfg.OperatorRecipientID().String())
}

func TestFromMap_Overrides(t *testing.T) {
	cfg, err := FromMap(map[string]string{
		"APP_ENV":                "production",
		"DATABASE_URL":           "postgres://localhost/upkeep",
		"AVAILABILITY_CACHE_TTL": "2m",
		"TIMEZONE":               "Europe/Berlin",
		"RATE_LIMIT":             "10-S",
		"UPKEEP_ACTOR_ID":        "9f3c1f8e-6d0e-4a7b-9a59-1b0a3f3f6f10",
		"UPKEEP_ACTOR_ROLE":      "operator",
	})
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "json", cfg.LogFormat())
	assert.Equal(t, "postgres://localhost/upkeep", cfg.Database.URL)
	assert.Equal(t, 2*time.Minute, cfg.Redis.CacheTTL)
	assert.Equal(t, "Europe/Berlin", cfg.Location().String())
	assert.Equal(t, "operator", cfg.Actor.Role)
}

func TestValidate_CollectsErrors(t *testing.T) {
	_, err := FromMap(map[string]string{
		"TIMEZONE":           "Mars/Olympus",
		"RATE_LIMIT":         "lots",
		"OPERATOR_RECIPIENT": "ops",
		"DATABASE_MAX_CONNS": "-1",
	})
	require.Error(t, err)

	for _, key := range []string{"TIMEZONE", "RATE_LIMIT", "OPERATOR_RECIPIENT", "DATABASE_MAX_CONNS"} {
		assert.Contains(t, err.Error(), key)
	}
}

func TestFromMap_BadDuration(t *testing.T) {
	_, err := FromMap(map[string]string{"AVAILABILITY_CACHE_TTL": "soon"})
	assert.ErrorContains(t, err, "parse environment")
}

func TestLoad_ReadsEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("UPKEEP_VERSION=9.9.9\n"), 0o600))
	t.Setenv("UPKEEP_VERSION", "")
	require.NoError(t, os.Unsetenv("UPKEEP_VERSION"))

	cfg, err := Load(path, filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "9.9.9", cfg.Version)
}
