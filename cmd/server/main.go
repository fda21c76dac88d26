/*
main.go - Application entry point

PURPOSE:
  Starts the maintenance-plan HTTP server used by the planning UI.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load .env (if present) and parse command-line flags
  2. Load the persisted configuration (last-used plan database)
  3. Create API handler and the daily refresh scheduler
  4. Configure HTTP router
  5. Start server with graceful shutdown

COMMAND-LINE FLAGS (override environment):
  -addr      Listen address              (env LISTEN_ADDR, default :8080)
  -config    Configuration file          (env CONFIG_FILE, default config.env)
  -db        Plan database to select     (env PLAN_DB, default: remembered one)

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the scheduler
  2. Stop accepting new connections
  3. Wait for active requests (SHUTDOWN_TIMEOUT seconds, default 10)
  4. Exit

EXAMPLES:
  ./server -db="./data/Mantenimiento2026.db"
  LISTEN_ADDR=127.0.0.1:3000 ./server

SEE ALSO:
  - api/server.go: Router configuration
  - api/handlers.go: HTTP handlers
  - config/config.go: Settings and persisted configuration
*/
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/warp/maintenance-plan/api"
	"github.com/warp/maintenance-plan/config"
	"github.com/warp/maintenance-plan/store/sqlite"
)

func main() {
	settings := config.FromEnv()

	// Flags
	addr := flag.String("addr", settings.ListenAddr, "HTTP listen address")
	configPath := flag.String("config", settings.ConfigFile, "configuration file")
	dbPath := flag.String("db", settings.PlanDB, "plan database to select at startup")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("[Server] Failed to load configuration: %v", err)
	}

	if *dbPath != "" {
		store := sqlite.New(*dbPath)
		if err := store.EnsureSchema(context.Background()); err != nil {
			log.Fatalf("[Server] Failed to open plan database: %v", err)
		}
		if err := cfg.SetStoreLocation(*dbPath); err != nil {
			log.Printf("[Server] Warning: could not remember plan database: %v", err)
		}
	}

	handler := api.NewHandler(cfg, api.SQLiteStore)
	if loc := cfg.StoreLocation(); loc != "" {
		log.Printf("[Server] Using plan database %s", loc)
	} else {
		log.Printf("[Server] No plan database selected yet")
	}

	scheduler := api.NewRefreshScheduler(handler)
	scheduler.Start()

	server := &http.Server{
		Addr:         *addr,
		Handler:      api.NewRouter(handler),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("[Server] Listening on %s", *addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[Server] Failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[Server] Shutting down...")
	scheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(settings.ShutdownSeconds)*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("[Server] Forced to shutdown: %v", err)
	}

	log.Println("[Server] Stopped")
}
