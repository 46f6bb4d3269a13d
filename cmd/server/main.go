package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/2601-ai-team4/ContentShield/internal/analyzer"
	"github.com/2601-ai-team4/ContentShield/internal/api"
	"github.com/2601-ai-team4/ContentShield/internal/config"
	"github.com/2601-ai-team4/ContentShield/internal/crawler"
	"github.com/2601-ai-team4/ContentShield/internal/database"
	"github.com/2601-ai-team4/ContentShield/internal/repository"
	"github.com/2601-ai-team4/ContentShield/internal/service"
	"github.com/2601-ai-team4/ContentShield/pkg/logger"
)

func main() {
	migrateDown := flag.Bool("migrate-down", false, "roll back the last migration and exit")
	tokenFor := flag.Int64("token-for", 0, "print a bearer token for the given user id and exit")
	tokenTTL := flag.Duration("token-ttl", 24*time.Hour, "lifetime of a token printed by -token-for")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Format)

	if *tokenFor > 0 {
		token, err := api.GenerateToken(*tokenFor, []byte(cfg.Auth.JWTSecret), *tokenTTL)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to generate token")
		}
		fmt.Println(token)
		return
	}

	log.Info().Msg("Starting ContentShield ingestion server...")

	// Initialize database
	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if *migrateDown {
		if err := db.MigrateDown(cfg.Database.MigrationsPath); err != nil {
			log.Fatal().Err(err).Msg("Failed to roll back migrations")
		}
		log.Info().Msg("Migrations rolled back")
		return
	}

	// Run migrations
	if err := db.RunMigrations(cfg.Database.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("Failed to run database migrations")
	}

	// Initialize repositories, with the optional blocklist cache
	repos := repository.New(db)
	rdb := database.NewRedisClient(context.Background(), &cfg.Blocklist, log)
	if rdb != nil {
		defer rdb.Close()
	}
	repos.BlockedWord = repository.NewCachedBlockedWordRepo(repos.BlockedWord, rdb, cfg.Blocklist.CacheTTL, log)

	// External capabilities
	scorer, err := analyzer.New(cfg.Analyzer.Mode, cfg.Analyzer.BaseURL, cfg.Analyzer.Timeout, cfg.Analyzer.MaxRetries, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create analyzer")
	}
	clients := service.Clients{
		Crawler: crawler.NewHTTPClient(cfg.Crawler.Endpoint(), cfg.Crawler.Timeout, cfg.Crawler.MaxRetries, log),
		Scorer:  scorer,
		DB:      db,
	}

	// Initialize services
	services := service.NewServices(repos, clients, cfg, log)

	// Initialize router
	router := api.NewRouter(services, cfg, log)

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.ReadTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("port", cfg.Server.Port).
			Str("analyzer_mode", cfg.Analyzer.Mode).
			Bool("blocklist_cache", rdb != nil).
			Msg("Server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited gracefully")
}
