package main

import (
	"testing"
	"time"

	"github.com/Sternrassler/flashsale-itemcache/pkg/itemcache"
	"github.com/Sternrassler/flashsale-itemcache/pkg/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func envFrom(m map[string]string) func(string) string {
	return func(k string) string { return m[k] }
}

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := loadConfig(envFrom(nil))
	require.NoError(t, err)

	assert.Equal(t, "localhost:6379", cfg.RedisURL)
	assert.Equal(t, "8080", cfg.Port)
	assert.Empty(t, cfg.CatalogURL)
	assert.Equal(t, logging.LevelInfo, cfg.Logging.Level)
	assert.False(t, cfg.Logging.Pretty)
	assert.Equal(t, itemcache.DefaultConfig(), cfg.Cache)
	assert.Empty(t, cfg.WarmupIDs)
}

func TestLoadConfig_Overrides(t *testing.T) {
	cfg, err := loadConfig(envFrom(map[string]string{
		"REDIS_URL":       "redis://cache:6379/1",
		"PORT":            "9090",
		"CATALOG_URL":     "http://catalog:8080",
		"LOG_LEVEL":       "debug",
		"LOG_PRETTY":      "TRUE",
		"LOCAL_TTL":       "3s",
		"REMOTE_TTL":      "10m",
		"LOCK_WAIT":       "500ms",
		"LOCK_LEASE":      "2s",
		"LOCAL_CAPACITY":  "250",
		"WARMUP_ITEM_IDS": "101,102, 103,",
	}))
	require.NoError(t, err)

	assert.Equal(t, "redis://cache:6379/1", cfg.RedisURL)
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, "http://catalog:8080", cfg.CatalogURL)
	assert.Equal(t, logging.LogLevel("debug"), cfg.Logging.Level)
	assert.True(t, cfg.Logging.Pretty)
	assert.Equal(t, 3*time.Second, cfg.Cache.LocalTTL)
	assert.Equal(t, 10*time.Minute, cfg.Cache.RemoteTTL)
	assert.Equal(t, 500*time.Millisecond, cfg.Cache.LockWait)
	assert.Equal(t, 2*time.Second, cfg.Cache.LockLease)
	assert.Equal(t, 250, cfg.Cache.LocalCapacity)
	assert.Equal(t, []int64{101, 102, 103}, cfg.WarmupIDs)
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"bad duration", map[string]string{"LOCAL_TTL": "soon"}, "LOCAL_TTL"},
		{"bad capacity", map[string]string{"LOCAL_CAPACITY": "lots"}, "LOCAL_CAPACITY"},
		{"bad pretty flag", map[string]string{"LOG_PRETTY": "maybe"}, "LOG_PRETTY"},
		{"bad warmup id", map[string]string{"WARMUP_ITEM_IDS": "1,x"}, "WARMUP_ITEM_IDS"},
		{"non-positive warmup id", map[string]string{"WARMUP_ITEM_IDS": "0"}, "WARMUP_ITEM_IDS"},
		{"wait exceeds lease", map[string]string{"LOCK_WAIT": "10s"}, "lock_wait"},
		{"zero capacity", map[string]string{"LOCAL_CAPACITY": "0"}, "local_capacity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loadConfig(envFrom(tt.env))
			assert.ErrorContains(t, err, tt.want)
		})
	}
}
