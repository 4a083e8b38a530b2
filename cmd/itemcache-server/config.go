package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Sternrassler/flashsale-itemcache/pkg/itemcache"
	"github.com/Sternrassler/flashsale-itemcache/pkg/logging"
)

// serverConfig is read from the environment at startup.
type serverConfig struct {
	RedisURL     string
	Port         string
	CatalogURL   string
	Logging      logging.Config
	Cache        itemcache.Config
	WarmupIDs    []int64
	LookupBudget time.Duration
}

// loadConfig reads the configuration through getenv. Unset variables keep
// their defaults; malformed ones are an error.
func loadConfig(getenv func(string) string) (serverConfig, error) {
	env := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	cfg := serverConfig{
		RedisURL:     env("REDIS_URL", "localhost:6379"),
		Port:         env("PORT", "8080"),
		CatalogURL:   env("CATALOG_URL", ""),
		Logging:      logging.DefaultConfig(),
		Cache:        itemcache.DefaultConfig(),
		LookupBudget: 3 * time.Second,
	}
	cfg.Logging.Level = logging.LogLevel(env("LOG_LEVEL", string(logging.LevelInfo)))
	cfg.Logging.Service = "itemcache-server"

	var err error
	if cfg.Logging.Pretty, err = parseBool(env("LOG_PRETTY", "false")); err != nil {
		return cfg, fmt.Errorf("LOG_PRETTY: %w", err)
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"LOCAL_TTL", &cfg.Cache.LocalTTL},
		{"REMOTE_TTL", &cfg.Cache.RemoteTTL},
		{"LOCK_WAIT", &cfg.Cache.LockWait},
		{"LOCK_LEASE", &cfg.Cache.LockLease},
	}
	for _, d := range durations {
		v := getenv(d.key)
		if v == "" {
			continue
		}
		if *d.dst, err = time.ParseDuration(v); err != nil {
			return cfg, fmt.Errorf("%s: %w", d.key, err)
		}
	}

	if v := getenv("LOCAL_CAPACITY"); v != "" {
		if cfg.Cache.LocalCapacity, err = strconv.Atoi(v); err != nil {
			return cfg, fmt.Errorf("LOCAL_CAPACITY: %w", err)
		}
	}

	if cfg.WarmupIDs, err = parseIDs(getenv("WARMUP_ITEM_IDS")); err != nil {
		return cfg, fmt.Errorf("WARMUP_ITEM_IDS: %w", err)
	}

	if err := cfg.Cache.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func parseBool(s string) (bool, error) {
	return strconv.ParseBool(strings.ToLower(s))
}

// parseIDs parses a comma separated list of positive item ids.
func parseIDs(s string) ([]int64, error) {
	var ids []int64
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, err
		}
		if id <= 0 {
			return nil, fmt.Errorf("item id must be positive (got %d)", id)
		}
		ids = append(ids, id)
	}
	return ids, nil
}
