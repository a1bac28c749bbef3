package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type StoreBackend string

const (
	BackendMemory    StoreBackend = "memory"
	BackendSQLite    StoreBackend = "sqlite"
	BackendPostgres  StoreBackend = "postgres"
	BackendFirestore StoreBackend = "firestore"
)

// Client holds the terminal client settings.
type Client struct {
	APIURL      string
	HTTPTimeout time.Duration

	StateDir string
	MediaDir string

	FilterRefetch  string // every, debounce or never
	FilterDebounce time.Duration
	DiscardStale   bool // drop message responses older than the last applied one
	PollInterval   time.Duration

	LogFile  string
	LogLevel string
}

// Store holds the stand-in store server settings.
type Store struct {
	Port    string
	Backend StoreBackend

	SQLitePath   string
	PostgresDSN  string
	GCPProjectID string

	SeedFile string

	RateRPS   int
	RateBurst int

	LogLevel string
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getBoolEnv(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	if v == "1" || v == "true" || v == "TRUE" {
		return true
	}
	return false
}

func getIntEnv(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getDurationEnv(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".messenger"
	}
	return filepath.Join(home, ".config", "messenger")
}

// LoadClient reads the MESSENGER_* env vars used by the terminal client.
func LoadClient() (*Client, error) {
	stateDir := getEnv("MESSENGER_STATE_DIR", defaultStateDir())

	cfg := &Client{
		APIURL:      strings.TrimRight(getEnv("MESSENGER_API_URL", "https://insta-lvyt.onrender.com"), "/"),
		HTTPTimeout: getDurationEnv("MESSENGER_HTTP_TIMEOUT", 10*time.Second),

		StateDir: stateDir,
		MediaDir: getEnv("MESSENGER_MEDIA_DIR", filepath.Join(stateDir, "media")),

		FilterRefetch:  strings.ToLower(getEnv("MESSENGER_FILTER_REFETCH", "debounce")),
		FilterDebounce: getDurationEnv("MESSENGER_FILTER_DEBOUNCE", 300*time.Millisecond),
		DiscardStale:   getBoolEnv("MESSENGER_DISCARD_STALE", true),
		PollInterval:   getDurationEnv("MESSENGER_POLL_INTERVAL", 0),

		LogFile:  getEnv("MESSENGER_LOG_FILE", filepath.Join(stateDir, "messenger.log")),
		LogLevel: getEnv("MESSENGER_LOG_LEVEL", "info"),
	}

	switch cfg.FilterRefetch {
	case "every", "debounce", "never":
	default:
		return nil, fmt.Errorf("MESSENGER_FILTER_REFETCH must be every, debounce or never, got %q", cfg.FilterRefetch)
	}
	if cfg.APIURL == "" {
		return nil, fmt.Errorf("MESSENGER_API_URL must not be empty")
	}

	return cfg, nil
}

// LoadStore reads the MESSENGER_STORE_* env vars used by the store server.
func LoadStore() (*Store, error) {
	cfg := &Store{
		Port:    getEnv("MESSENGER_STORE_PORT", getEnv("PORT", "8080")),
		Backend: StoreBackend(strings.ToLower(getEnv("MESSENGER_STORE_BACKEND", string(BackendMemory)))),

		SQLitePath:   getEnv("MESSENGER_SQLITE_PATH", "messenger.db"),
		PostgresDSN:  getEnv("MESSENGER_POSTGRES_DSN", ""),
		GCPProjectID: getEnv("MESSENGER_GCP_PROJECT", ""),

		SeedFile: getEnv("MESSENGER_STORE_SEED", ""),

		RateRPS:   getIntEnv("MESSENGER_RATE_RPS", 20),
		RateBurst: getIntEnv("MESSENGER_RATE_BURST", 40),

		LogLevel: getEnv("MESSENGER_LOG_LEVEL", "info"),
	}

	switch cfg.Backend {
	case BackendMemory, BackendSQLite:
	case BackendPostgres:
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("MESSENGER_POSTGRES_DSN is required for the postgres backend")
		}
	case BackendFirestore:
		if cfg.GCPProjectID == "" {
			return nil, fmt.Errorf("MESSENGER_GCP_PROJECT is required for the firestore backend")
		}
	default:
		return nil, fmt.Errorf("unknown MESSENGER_STORE_BACKEND %q", cfg.Backend)
	}

	return cfg, nil
}
