package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"

	"github.com/andresuchdata/autopo-lab/internal/cache"
	"github.com/andresuchdata/autopo-lab/internal/config"
	"github.com/andresuchdata/autopo-lab/internal/drive"
	"github.com/andresuchdata/autopo-lab/internal/storage"
	"github.com/andresuchdata/autopo-lab/pkg/logger"
)

// File browser for the configured storage backend.
func main() {
	// Load environment variables from .env file if it exists
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()
	logger.SetLevel(cfg.LogLevel)

	listings, err := cache.NewListingCache(cfg.Cache)
	if err != nil {
		log.Fatalf("Failed to initialize listing cache: %v", err)
	}

	store, err := storage.Open(context.Background(), cfg.Storage, listings)
	if err != nil {
		log.Fatalf("Failed to open %s storage: %v", cfg.Storage.Backend, err)
	}

	// Create router
	r := mux.NewRouter()

	// Register routes
	driveHandler := drive.NewHandler(store)
	driveHandler.RegisterRoutes(r)

	// Health check endpoint
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	log.Printf("Server starting on %s\n", addr)
	log.Fatal(http.ListenAndServe(addr, r))
}
