package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jessetrippe/clarify-rss/app/cfg"
	"github.com/jessetrippe/clarify-rss/app/database"
	"github.com/jessetrippe/clarify-rss/app/engine"
	"github.com/jessetrippe/clarify-rss/app/feed"
	"github.com/jessetrippe/clarify-rss/app/subs"
	"github.com/jessetrippe/clarify-rss/app/tasks"
)

// localUserID scopes every row in the replica database. The server-side
// identity comes from the bearer token, not from this value.
const localUserID = "local"

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

	log.Println("Starting Clarify RSS agent...")

	db, err := database.NewConnection(appCfg.ReplicaDBPath)
	if err != nil {
		log.Fatal("Failed to open replica database:", err)
	}
	defer db.Close()

	version, dirty, err := database.RunMigrations(db)
	if err != nil {
		log.Fatal("Failed to run migrations:", err)
	}
	log.Printf("Replica database ready (schema version %d, dirty: %v)", version, dirty)

	feedRepo := database.NewFeedRepository(db)
	articleRepo := database.NewArticleRepository(db)
	stateRepo := database.NewSyncStateRepository(db)

	subscriptions, err := subs.Load(appCfg.SubscriptionsFile)
	if err != nil {
		log.Fatal("Failed to load subscriptions:", err)
	}
	added, err := subs.Register(subscriptions, feedRepo, localUserID)
	if err != nil {
		log.Fatal("Failed to register subscriptions:", err)
	}
	log.Printf("Subscriptions loaded: %d listed, %d new", len(subscriptions), added)

	httpClient := &http.Client{Timeout: 30 * time.Second}
	parser := feed.NewParser()
	extractor := feed.NewContentExtractor()
	refresher := feed.NewRefresher(httpClient, parser, feedRepo, articleRepo, localUserID, appCfg.UserAgent)

	apiClient := engine.NewClient(appCfg.ServerURL, appCfg.AuthToken, appCfg.UserAgent)
	opts := engine.DefaultOptions()
	opts.Cooldown = time.Duration(appCfg.SyncInterval) * time.Second
	syncEngine := engine.NewEngine(apiClient, feedRepo, articleRepo, stateRepo, localUserID, opts)

	// First refresh runs before the startup sync so locally discovered
	// articles ride along on the initial push.
	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 5*time.Minute)
	if result, err := refresher.RefreshAll(startupCtx); err != nil {
		log.Printf("Initial feed refresh failed: %v", err)
	} else {
		log.Printf("Initial feed refresh complete: %d refreshed, %d skipped, %d errors",
			result.Refreshed, result.Skipped, len(result.Errors))
	}
	if err := syncEngine.Sync(startupCtx, engine.TriggerStartup); err != nil &&
		!errors.Is(err, engine.ErrSyncInProgress) {
		log.Printf("Startup sync failed: %v", err)
	}
	cancelStartup()

	scheduler := tasks.NewScheduler(refresher, extractor, syncEngine, feedRepo, articleRepo, httpClient, localUserID)
	scheduler.Start()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	log.Println("Clarify RSS agent started successfully!")

	sig := <-sigChan
	log.Printf("Received signal: %v", sig)

	log.Println("Shutting down agent gracefully...")
	scheduler.Stop()
	log.Println("Clarify RSS agent shutdown complete")
}
