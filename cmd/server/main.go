// Package main is the entry point for the sndctl server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pandeptwidyaop/sndctl/internal/config"
	"github.com/pandeptwidyaop/sndctl/internal/database"
	"github.com/pandeptwidyaop/sndctl/internal/router"
	"github.com/pandeptwidyaop/sndctl/internal/services"
	"github.com/pandeptwidyaop/sndctl/internal/sococli"
	"github.com/pandeptwidyaop/sndctl/internal/storage"
	"github.com/pandeptwidyaop/sndctl/internal/version"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	showVersion := flag.Bool("version", false, "show version information")
	flag.Parse()

	if *showVersion {
		fmt.Printf("sndctl %s\n", version.Version)
		fmt.Printf("Build Time: %s\n", version.BuildTime)
		fmt.Printf("Git Commit: %s\n", version.GitCommit)
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Printf("Warning: Could not load config from %s: %v", *configPath, err)
		log.Println("Using default configuration...")
	}

	db, err := database.New(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	if err := db.Migrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	store, err := storage.Open(cfg.Macros.Storage, cfg.Macros.Path, cfg.Macros.BoltPath)
	if err != nil {
		log.Fatalf("Failed to open macro storage: %v", err)
	}
	if closer, ok := store.(io.Closer); ok {
		defer func() { _ = closer.Close() }()
	}

	macroService, err := services.NewMacroService(store)
	if err != nil {
		log.Fatalf("Failed to load macros from %s: %v", store.Location(), err)
	}

	client := sococli.New(cfg.SocoCLI.URL, cfg.SocoCLI.GetTimeout())
	executorService := services.NewExecutorService(macroService, client, cfg)
	sonosService := services.NewSonosService(client, cfg)
	auditService := services.NewAuditService(db)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Macros.ShouldWatch() && store.Kind() == "file" {
		go func() {
			if err := macroService.Watch(ctx); err != nil {
				log.Printf("[Macro] Watch stopped: %v", err)
			}
		}()
	}

	r := router.New(cfg, macroService, executorService, sonosService, auditService)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Printf("sndctl %s starting on %s", version.Version, addr)
	log.Printf("Access at: http://%s%s", addr, cfg.Server.PathPrefix)
	log.Printf("Macros: %s (%s), soco-cli: %s", store.Location(), store.Kind(), client.BaseURL())

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
}
