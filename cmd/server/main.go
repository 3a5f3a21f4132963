package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/autopo-lab/internal/api"
	"github.com/andresuchdata/autopo-lab/internal/cache"
	"github.com/andresuchdata/autopo-lab/internal/config"
	"github.com/andresuchdata/autopo-lab/internal/migrations"
	"github.com/andresuchdata/autopo-lab/internal/pipeline"
	"github.com/andresuchdata/autopo-lab/internal/repository"
	"github.com/andresuchdata/autopo-lab/internal/repository/postgres"
	"github.com/andresuchdata/autopo-lab/internal/storage"
	"github.com/andresuchdata/autopo-lab/internal/syncer"
	"github.com/andresuchdata/autopo-lab/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	logger.SetLevel(cfg.LogLevel)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	listings, err := cache.NewListingCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Listing cache unavailable, continuing without it")
		listings = cache.NewNoopListingCache()
	}

	store, err := storage.Open(ctx, cfg.Storage, listings)
	if err != nil {
		logger.Log.Fatal().Err(err).Str("backend", cfg.Storage.Backend).Msg("Failed to open storage")
	}

	// Purchase-order history is optional
	var repo repository.PurchaseOrderRepository
	if cfg.Database.Enabled {
		db, err := postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer db.Close()

		if err := migrations.Up(db.DB.DB); err != nil {
			logger.Log.Fatal().Err(err).Msg("Failed to apply migrations")
		}
		repo = postgres.NewPORepository(db)
	}

	orchestrator, err := pipeline.NewFromConfig(cfg, store, repo)
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to initialize workflow orchestrator")
	}

	if cfg.Sync.IntervalSeconds > 0 {
		go watchFolders(ctx, store, cfg)
	}

	router := api.NewRouter(&api.Services{
		Runner:     orchestrator,
		Files:      store,
		Repository: repo,
		Paths:      cfg.Paths,
	}, cfg.Server.AllowedOrigins)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Str("storage", cfg.Storage.Backend).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	logger.Log.Info().Msg("Shutting down server...")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error().Err(err).Msg("Server forced to shutdown")
		os.Exit(1)
	}

	logger.Log.Info().Msg("Server exiting")
}

// watchFolders drops cached listings whenever a watched folder changes.
func watchFolders(ctx context.Context, store *storage.CachedStore, cfg *config.Config) {
	strategy := syncer.NewPollingStrategy(store.Backend(),
		cfg.Paths.MasterDataFolder,
		cfg.Paths.InventoryFolder,
		cfg.Paths.POFolder,
	)
	interval := time.Duration(cfg.Sync.IntervalSeconds) * time.Second

	for ev := range syncer.Watch(ctx, strategy, interval, syncer.Cursor{}) {
		folder := path.Dir(ev.Path)
		logger.Log.Info().Str("type", string(ev.Kind)).Str("path", ev.Path).Msg("Storage change detected")
		if err := store.Invalidate(ctx, folder); err != nil {
			logger.Log.Warn().Err(err).Str("folder", folder).Msg("Failed to invalidate listing cache")
		}
	}
}
