// Package config provides runtime configuration values for the service.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds configuration knobs for the HTTP server, the backend
// connection, the catalog store, and the response cache.
type Config struct {
	HTTPAddr        string
	ShutdownTimeout time.Duration

	BackendBaseURL string
	APIToken       string
	FetchTimeout   time.Duration

	StoreBackend string
	StorePath    string
	RedisAddr    string

	CacheDir        string
	CacheGeneration string
	AssetManifest   string

	ProbeInterval time.Duration
	ProbeTimeout  time.Duration
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func atoienv(key string, def int) int {
	v := getenv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func durenvms(key string, defMs int) time.Duration {
	ms := atoienv(key, defMs)
	return time.Duration(ms) * time.Millisecond
}

func durenvs(key string, defSec int) time.Duration {
	sec := atoienv(key, defSec)
	return time.Duration(sec) * time.Second
}

// Load collects configuration from environment with defaults.
func Load() Config {
	return Config{
		HTTPAddr:        getenv("HTTP_ADDR", ":8090"),
		ShutdownTimeout: durenvs("SHUTDOWN_TIMEOUT", 15),

		BackendBaseURL: getenv("BACKEND_BASE_URL", "http://localhost:8080"),
		APIToken:       getenv("API_TOKEN", ""),
		FetchTimeout:   durenvms("FETCH_TIMEOUT_MS", 10000),

		StoreBackend: getenv("STORE_BACKEND", "file"),
		StorePath:    getenv("STORE_PATH", "data/catalog.json"),
		RedisAddr:    getenv("REDIS_ADDR", "localhost:6379"),

		CacheDir:        getenv("CACHE_DIR", "data/webcache"),
		CacheGeneration: getenv("CACHE_GENERATION", "appV1"),
		AssetManifest:   getenv("ASSET_MANIFEST", ""),

		ProbeInterval: durenvms("PROBE_INTERVAL_MS", 5000),
		ProbeTimeout:  durenvms("PROBE_TIMEOUT_MS", 2000),
	}
}
