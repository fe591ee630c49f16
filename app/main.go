package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jessetrippe/clarify-rss/app/api"
	"github.com/jessetrippe/clarify-rss/app/cfg"
	"github.com/jessetrippe/clarify-rss/app/database"
	"github.com/jessetrippe/clarify-rss/app/ratelimit"
	"github.com/jessetrippe/clarify-rss/app/sync"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	appCfg, err := cfg.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if appCfg == nil {
		// Help was shown, exit gracefully
		return
	}

	if appCfg.Debug {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	log.Println("Starting Clarify RSS sync server...")

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		log.Fatal("Failed to open database:", err)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		log.Fatal("Failed to run migrations:", err)
	}
	log.Printf("Database ready (schema version %d, dirty: %v)", version, dirty)

	feedRepo := database.NewFeedRepository(db)
	articleRepo := database.NewArticleRepository(db)
	service := sync.NewService(feedRepo, articleRepo)

	auth, err := api.NewStaticAuthenticator(appCfg.AuthTokens)
	if err != nil {
		log.Fatal("Failed to parse auth tokens:", err)
	}
	if auth.TokenCount() == 0 {
		log.Println("Warning: no auth tokens configured (AUTH_TOKENS), all sync requests will be rejected")
	}

	limiter := ratelimit.NewLimiter(time.Duration(appCfg.RateLimitWindow)*time.Second, appCfg.RateLimitMax)

	handler := api.NewHandler(service, feedRepo, articleRepo)
	server := api.NewServer(handler, auth, limiter)

	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		log.Printf("Starting HTTP server on port %s", appCfg.Port)
		log.Printf("API endpoints available:")
		log.Printf("  Sync pull:     http://localhost:%s/api/sync/pull (POST)", appCfg.Port)
		log.Printf("  Sync push:     http://localhost:%s/api/sync/push (POST)", appCfg.Port)
		log.Printf("  Health check:  http://localhost:%s/health", appCfg.Port)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	log.Println("Clarify RSS sync server started successfully!")

	select {
	case sig := <-sigChan:
		log.Printf("Received signal: %v", sig)
	case err := <-serverErrChan:
		log.Printf("Server error: %v", err)
	}

	log.Println("Shutting down server gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	} else {
		log.Println("HTTP server stopped")
	}

	log.Println("Clarify RSS sync server shutdown complete")
}
