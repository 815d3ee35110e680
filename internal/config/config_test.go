package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "weather_data_store.txt", cfg.SnapshotPath)
	assert.Equal(t, 30*time.Second, cfg.RecordTTL)
	assert.Equal(t, 5*time.Second, cfg.EvictInterval)
	assert.Equal(t, 4567, cfg.DefaultPort)
	assert.Equal(t, "8080", cfg.AdminPort)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SNAPSHOT_PATH", "/tmp/stations.txt")
	t.Setenv("RECORD_TTL", "1m")
	t.Setenv("EVICT_INTERVAL", "10s")
	t.Setenv("DEFAULT_PORT", "9999")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/stations.txt", cfg.SnapshotPath)
	assert.Equal(t, time.Minute, cfg.RecordTTL)
	assert.Equal(t, 10*time.Second, cfg.EvictInterval)
	assert.Equal(t, 9999, cfg.DefaultPort)
}

func TestLoadRejectsBadDuration(t *testing.T) {
	t.Setenv("RECORD_TTL", "not-a-duration")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsOutOfRangePort(t *testing.T) {
	t.Setenv("DEFAULT_PORT", "70000")

	_, err := Load()
	assert.Error(t, err)
}
