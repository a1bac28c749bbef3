package main

import (
	"context"
	"io"
	"log"
	"net/http"
	"os"

	httpadapter "github.com/PabloGalante/messenger/internal/adapters/http"
	firestorestore "github.com/PabloGalante/messenger/internal/adapters/storage/firestore"
	memstore "github.com/PabloGalante/messenger/internal/adapters/storage/memory"
	"github.com/PabloGalante/messenger/internal/adapters/storage/sqldb"
	"github.com/PabloGalante/messenger/internal/app/store"
	"github.com/PabloGalante/messenger/internal/config"
	"github.com/PabloGalante/messenger/internal/domain"
	"github.com/PabloGalante/messenger/internal/observability"
)

func main() {
	ctx := context.Background()

	cfg, err := config.LoadStore()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	observability.Init(os.Stdout, cfg.LogLevel)
	logger := observability.Logger()

	var (
		userStore    domain.UserStore
		messageStore domain.MessageStore
		closer       io.Closer
	)

	switch cfg.Backend {
	case config.BackendFirestore:
		logger.Info("using firestore storage", "project", cfg.GCPProjectID)
		fsStore, err := firestorestore.NewStore(ctx, cfg.GCPProjectID)
		if err != nil {
			log.Fatalf("error initializing Firestore store: %v", err)
		}
		// 1 store, implements 2 interfaces
		userStore, messageStore, closer = fsStore, fsStore, fsStore

	case config.BackendSQLite:
		logger.Info("using sqlite storage", "path", cfg.SQLitePath)
		sqlStore, err := sqldb.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			log.Fatalf("error opening sqlite store: %v", err)
		}
		userStore, messageStore, closer = sqlStore, sqlStore, sqlStore

	case config.BackendPostgres:
		logger.Info("using postgres storage")
		sqlStore, err := sqldb.OpenPostgres(cfg.PostgresDSN)
		if err != nil {
			log.Fatalf("error opening postgres store: %v", err)
		}
		userStore, messageStore, closer = sqlStore, sqlStore, sqlStore

	default:
		logger.Info("using in-memory storage")
		userStore = memstore.NewUserStore()
		messageStore = memstore.NewMessageStore()
	}
	if closer != nil {
		defer closer.Close()
	}

	svc := store.NewService(userStore, messageStore)

	if cfg.SeedFile != "" {
		if err := loadSeed(ctx, svc, cfg.SeedFile); err != nil {
			log.Fatalf("error loading seed %s: %v", cfg.SeedFile, err)
		}
	}

	handler := httpadapter.NewServer(svc, httpadapter.Options{
		RateRPS:   cfg.RateRPS,
		RateBurst: cfg.RateBurst,
	})

	port := ":" + cfg.Port
	logger.Info("messenger store listening", "port", port, "backend", cfg.Backend)
	if err := http.ListenAndServe(port, handler); err != nil {
		log.Fatal(err)
	}
}

func loadSeed(ctx context.Context, svc *store.Service, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return svc.LoadSeed(ctx, f)
}
