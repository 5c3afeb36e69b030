/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the benefit ledger server. Handles
  configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Parse command-line flags and load TOML config
  2. Initialize SQLite store
  3. Pick cache backend (memory or Redis)
  4. Wire the ledger engines into the API handler
  5. Configure HTTP router and start the alert scheduler
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -config  TOML config file path (default: config.toml; missing file
           falls back to built-in defaults)
  -port    HTTP server port (overrides config when set)
  -db      SQLite database path (overrides config when set)
           Use ":memory:" for an in-memory database

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the alert scheduler
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection
  5. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/benefits.db"

  # Run with a Redis-backed alert cache
  ./server -config=config.toml   # cache.backend = "redis"

SEE ALSO:
  - config/config.go: TOML configuration
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/meridian/benefit-ledger/api"
	"github.com/meridian/benefit-ledger/benefit"
	"github.com/meridian/benefit-ledger/cache"
	"github.com/meridian/benefit-ledger/config"
	"github.com/meridian/benefit-ledger/metrics"
	"github.com/meridian/benefit-ledger/store/sqlite"
)

func main() {
	// Flags
	configPath := flag.String("config", "config.toml", "TOML config file path")
	port := flag.Int("port", 0, "HTTP server port (overrides config)")
	dbPath := flag.String("db", "", "SQLite database path (overrides config)")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if *port != 0 {
		cfg.Server.Addr = fmt.Sprintf(":%d", *port)
	}
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}

	metrics.Init()

	// Initialize store
	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer store.Close()

	// Cache backend
	var c cache.Cache
	switch cfg.Cache.Backend {
	case "redis":
		c = cache.NewRedis(cfg.Cache.RedisAddr, cfg.Cache.RedisDB)
		log.Printf("Using Redis cache at %s", cfg.Cache.RedisAddr)
	default:
		c = cache.NewMemory()
	}

	// Engines
	overdraft := cfg.OverdraftPolicy()
	ledger := benefit.NewLedger(store, overdraft, c)
	alerts := benefit.NewAlertEngine(store, overdraft, c)
	alerts.TTL = cfg.AlertTTL()
	handler := &api.Handler{
		Store:      store,
		Ledger:     ledger,
		Claims:     benefit.NewClaimProcessor(ledger),
		Init:       benefit.NewInitializer(store),
		Reconciler: benefit.NewReconciliationEngine(store, c),
		Alerts:     alerts,
		Summaries:  benefit.NewSummaryReader(store, c),
	}

	// Create router
	router := api.NewRouter(handler)

	// Background alert scans
	scheduler := api.NewAlertScheduler(handler.Alerts)
	scheduler.Enabled = cfg.Scheduler.Enabled
	scheduler.CheckInterval = cfg.SchedulerInterval()
	scheduler.ThresholdPercent = cfg.Scheduler.ThresholdPercent
	scheduler.Start()

	// Create server
	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server starting on %s", cfg.Server.Addr)
		log.Printf("API available at http://localhost%s/api", cfg.Server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server stopped")
}
