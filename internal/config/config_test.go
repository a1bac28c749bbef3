package config_test

import (
	"testing"
	"time"

	"github.com/PabloGalante/messenger/internal/config"
)

func TestLoadClientDefaults(t *testing.T) {
	t.Setenv("MESSENGER_STATE_DIR", "/tmp/messenger-state")

	cfg, err := config.LoadClient()
	if err != nil {
		t.Fatalf("LoadClient failed: %v", err)
	}

	if cfg.APIURL != "https://insta-lvyt.onrender.com" {
		t.Errorf("unexpected api url %q", cfg.APIURL)
	}
	if cfg.FilterRefetch != "debounce" {
		t.Errorf("expected debounce policy, got %q", cfg.FilterRefetch)
	}
	if !cfg.DiscardStale {
		t.Errorf("expected stale discarding on by default")
	}
	if cfg.MediaDir != "/tmp/messenger-state/media" {
		t.Errorf("unexpected media dir %q", cfg.MediaDir)
	}
}

func TestLoadClientOverrides(t *testing.T) {
	t.Setenv("MESSENGER_API_URL", "http://localhost:9000/")
	t.Setenv("MESSENGER_FILTER_REFETCH", "EVERY")
	t.Setenv("MESSENGER_POLL_INTERVAL", "5s")
	t.Setenv("MESSENGER_DISCARD_STALE", "0")

	cfg, err := config.LoadClient()
	if err != nil {
		t.Fatalf("LoadClient failed: %v", err)
	}

	if cfg.APIURL != "http://localhost:9000" {
		t.Errorf("expected trailing slash trimmed, got %q", cfg.APIURL)
	}
	if cfg.FilterRefetch != "every" {
		t.Errorf("expected every policy, got %q", cfg.FilterRefetch)
	}
	if cfg.PollInterval != 5*time.Second {
		t.Errorf("expected 5s poll interval, got %s", cfg.PollInterval)
	}
	if cfg.DiscardStale {
		t.Errorf("expected stale discarding off")
	}
}

func TestLoadClientRejectsUnknownPolicy(t *testing.T) {
	t.Setenv("MESSENGER_FILTER_REFETCH", "sometimes")

	if _, err := config.LoadClient(); err == nil {
		t.Fatalf("expected error for unknown policy")
	}
}

func TestLoadStoreValidatesBackend(t *testing.T) {
	t.Setenv("MESSENGER_STORE_BACKEND", "postgres")
	if _, err := config.LoadStore(); err == nil {
		t.Fatalf("expected error without dsn")
	}

	t.Setenv("MESSENGER_POSTGRES_DSN", "postgres://localhost/messenger?sslmode=disable")
	cfg, err := config.LoadStore()
	if err != nil {
		t.Fatalf("LoadStore failed: %v", err)
	}
	if cfg.Backend != config.BackendPostgres {
		t.Errorf("expected postgres backend, got %q", cfg.Backend)
	}
}
