package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/PabloGalante/messenger/internal/adapters/localstate"
	"github.com/PabloGalante/messenger/internal/adapters/media"
	"github.com/PabloGalante/messenger/internal/adapters/restapi"
	"github.com/PabloGalante/messenger/internal/adapters/tui"
	"github.com/PabloGalante/messenger/internal/app/contacts"
	"github.com/PabloGalante/messenger/internal/app/session"
	"github.com/PabloGalante/messenger/internal/config"
	"github.com/PabloGalante/messenger/internal/observability"
)

func main() {
	cfg, err := config.LoadClient()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// stdout belongs to the terminal UI
	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
		log.Fatalf("error creating log directory: %v", err)
	}
	logFile, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer logFile.Close()
	observability.Init(logFile, cfg.LogLevel)
	logger := observability.Logger()

	state, err := localstate.NewFile(cfg.StateDir)
	if err != nil {
		log.Fatalf("error opening local state: %v", err)
	}
	mediaStore, err := media.NewFileStore(cfg.MediaDir)
	if err != nil {
		log.Fatalf("error opening media store: %v", err)
	}

	app := tui.New(tui.Options{
		Remote:       restapi.NewClient(cfg.APIURL, cfg.HTTPTimeout),
		Media:        mediaStore,
		Session:      session.NewStore(state),
		Refetch:      contacts.RefetchPolicy(cfg.FilterRefetch),
		Debounce:     cfg.FilterDebounce,
		DiscardStale: cfg.DiscardStale,
		PollInterval: cfg.PollInterval,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("messenger client starting", "api_url", cfg.APIURL, "state_dir", cfg.StateDir)
	if err := app.Run(ctx); err != nil {
		logger.Error("terminal client stopped", "error", err)
		log.Fatal(err)
	}
	logger.Info("messenger client stopped")
}
