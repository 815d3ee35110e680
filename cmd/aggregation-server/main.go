package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/stationfeed/stationfeed/internal/api/http"
	"github.com/stationfeed/stationfeed/internal/config"
	"github.com/stationfeed/stationfeed/internal/lamport"
	"github.com/stationfeed/stationfeed/internal/persist"
	"github.com/stationfeed/stationfeed/internal/scheduler"
	"github.com/stationfeed/stationfeed/internal/server"
	"github.com/stationfeed/stationfeed/internal/store"
)

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Optional port argument, default from config.
	port := cfg.DefaultPort
	if len(os.Args) > 1 {
		p, err := strconv.Atoi(os.Args[1])
		if err != nil || p < 1 || p > 65535 {
			fmt.Fprintf(os.Stderr, "Usage: %s [port]\n", os.Args[0])
			os.Exit(1)
		}
		port = p
	}

	// Crash-atomic snapshot persistence.
	snapshot := persist.NewSnapshot(cfg.SnapshotPath)

	// Reload whatever survived the last run, keeping original timestamps
	// so TTL countdown continues from true age.
	records, err := snapshot.Load()
	if err != nil {
		log.Fatalf("failed to load snapshot: %v", err)
	}

	clock := lamport.NewClock()
	memStore := store.New(snapshot)

	if len(records) == 0 {
		log.Printf("INFO: no existing snapshot found; starting with empty store")
	} else {
		memStore.Load(records)
		log.Printf("INFO: loaded %d weather stations from disk", len(records))
		// The logical clock restarts at zero even though older data
		// survived; clients may have observed higher clock values from
		// a previous run of this process.
		log.Printf("WARN: logical clock reset to 0 with %d persisted records present", len(records))
	}

	// Periodic eviction of expired records.
	evictor := scheduler.New(memStore, cfg.RecordTTL, cfg.EvictInterval)
	if err := evictor.Start(); err != nil {
		log.Fatalf("failed to start evictor: %v", err)
	}
	defer evictor.Stop()

	// Operational HTTP surface on its own port.
	app := fiber.New(fiber.Config{
		AppName:               "aggregation-server",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
	})
	app.Use(logger.New())
	app.Use(recover.New())
	httpapi.RegisterRoutes(app, memStore, clock, cfg.SnapshotPath)

	go func() {
		if err := app.Listen(":" + cfg.AdminPort); err != nil {
			log.Printf("admin server stopped: %v", err)
		}
	}()

	// Station protocol listener.
	srv := server.New(clock, memStore)
	go func() {
		if err := srv.ListenAndServe(fmt.Sprintf(":%d", port)); err != nil {
			log.Fatalf("server stopped: %v", err)
		}
	}()

	// Wait for termination signal.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	evictor.Stop()
	srv.Close()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
