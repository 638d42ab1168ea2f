package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dom/hydration-tracker/internal/api"
	"github.com/dom/hydration-tracker/internal/config"
	"github.com/dom/hydration-tracker/internal/repository"
	"github.com/dom/hydration-tracker/internal/repository/memory"
	"github.com/dom/hydration-tracker/internal/repository/postgres"
	redisx "github.com/dom/hydration-tracker/internal/repository/redis"
	"github.com/dom/hydration-tracker/internal/repository/sqlite"
	"github.com/dom/hydration-tracker/internal/service"
	"github.com/dom/hydration-tracker/internal/websocket"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Initialize storage
	store, closeStore, err := openStore(cfg)
	if err != nil {
		log.Fatalf("failed to open %s store: %v", cfg.StorageDriver, err)
	}
	defer closeStore()

	// Initialize WebSocket hub
	hub := websocket.NewHub()
	go hub.Run()

	// Initialize services
	services := service.NewServices(store, hub, cfg, nil)
	services.OnSwitch(hub.UserSwitched)

	roster, err := services.Start(context.Background())
	if err != nil {
		log.Printf("Warning: starting services: %v", err)
	}
	if len(roster.Users) == 0 {
		log.Fatalf("no users could be loaded")
	}
	log.Printf("Loaded %d users, current: %s", len(roster.Users), roster.CurrentUserID)

	// Initialize router
	router := api.NewRouter(services, hub, cfg)

	// Create server
	srv := &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on port %s (%s storage)", cfg.Port, cfg.StorageDriver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server forced to shutdown: %v", err)
	}

	services.Stop()
	hub.Stop()

	log.Println("Server stopped")
}

// openStore opens the configured key-value backend. The returned func closes it.
func openStore(cfg *config.Config) (repository.KVStore, func(), error) {
	switch cfg.StorageDriver {
	case config.StorageMemory:
		log.Println("Warning: memory storage does not survive restarts")
		return memory.NewStore(), func() {}, nil

	case config.StorageSQLite:
		store, err := sqlite.Open(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		return store, closer(store), nil

	case config.StoragePostgres:
		db, err := postgres.NewConnection(cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		store := postgres.NewKVRepository(db)
		return store, closer(store), nil

	case config.StorageRedis:
		store := redisx.New(redisx.Config{
			Addr:     cfg.RedisAddr,
			DB:       cfg.RedisDB,
			Password: cfg.RedisPassword,
		}, log.New(os.Stderr, "[redis] ", log.LstdFlags))

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			store.Close()
			return nil, nil, err
		}
		return store, closer(store), nil

	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

func closer(c repository.Closer) func() {
	return func() {
		if err := c.Close(); err != nil {
			log.Printf("Warning: closing store: %v", err)
		}
	}
}
