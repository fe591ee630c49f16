package cfg

import (
	"cmp"
	"fmt"
	"time"

	"github.com/jessevdk/go-flags"
)

// Version is set at build time via -ldflags
var Version = "dev"

func GetVersion() string {
	return cmp.Or(Version, "unknown")
}

type rawCfg struct {
	// Server configuration
	Port            string `long:"port" env:"PORT" default:"8080" description:"HTTP server port"`
	DBPath          string `long:"db-path" env:"DB_PATH" default:"./clarify.db" description:"Path to the server sqlite database"`
	AuthTokens      string `long:"auth-tokens" env:"AUTH_TOKENS" description:"Comma-separated token:user pairs accepted as bearer tokens"`
	RateLimitMax    int    `long:"rate-limit-max" env:"RATE_LIMIT_MAX" default:"60" description:"Maximum sync requests per caller per window"`
	RateLimitWindow int    `long:"rate-limit-window" env:"RATE_LIMIT_WINDOW" default:"60" description:"Rate limit window in seconds"`

	// Agent configuration
	ServerURL         string `long:"server-url" env:"SERVER_URL" default:"http://localhost:8080" description:"Base URL of the sync server"`
	AuthToken         string `long:"auth-token" env:"AUTH_TOKEN" description:"Bearer token presented to the sync server"`
	ReplicaDBPath     string `long:"replica-db-path" env:"REPLICA_DB_PATH" default:"./replica.db" description:"Path to the device replica sqlite database"`
	SubscriptionsFile string `long:"subscriptions" env:"SUBSCRIPTIONS" default:"./subscriptions.yml" description:"YAML file listing feed subscriptions"`
	WorkerCount       int    `long:"worker-count" env:"WORKER_COUNT" default:"5" description:"Number of background workers for feed processing"`
	SchedulerInterval int    `long:"scheduler-interval" env:"SCHEDULER_INTERVAL" default:"30" description:"Scheduler interval in seconds"`
	SyncInterval      int    `long:"sync-interval" env:"SYNC_INTERVAL" default:"300" description:"Minimum interval between periodic syncs in seconds"`

	// Application metadata
	UserAgent string `long:"user-agent" env:"USER_AGENT" default:"Clarify RSS/1.0" description:"User agent string for HTTP requests"`
	Timezone  string `long:"timezone" env:"TZ" default:"UTC" description:"Timezone for timestamps (e.g., UTC, America/New_York)"`
	Debug     bool   `long:"debug" env:"DEBUG" description:"Enable debug logging"`
}

var globalCfg *Cfg

func Load() (*Cfg, error) {
	var raw rawCfg

	parser := flags.NewParser(&raw, flags.Default)

	if _, err := parser.Parse(); err != nil {
		if flagsErr, ok := err.(*flags.Error); ok {
			if flagsErr.Type == flags.ErrHelp {
				return nil, nil
			}
		}
		return nil, fmt.Errorf("failed to parse configuration: %w", err)
	}

	cfg := &Cfg{
		Port:              raw.Port,
		DBPath:            raw.DBPath,
		AuthTokens:        raw.AuthTokens,
		RateLimitMax:      raw.RateLimitMax,
		RateLimitWindow:   raw.RateLimitWindow,
		ServerURL:         raw.ServerURL,
		AuthToken:         raw.AuthToken,
		ReplicaDBPath:     raw.ReplicaDBPath,
		SubscriptionsFile: raw.SubscriptionsFile,
		WorkerCount:       raw.WorkerCount,
		SchedulerInterval: raw.SchedulerInterval,
		SyncInterval:      raw.SyncInterval,
		UserAgent:         raw.UserAgent,
		Timezone:          raw.Timezone,
		Debug:             raw.Debug,
		Version:           GetVersion(),
	}

	if err := applyTimezone(cfg.Timezone); err != nil {
		fmt.Printf("Warning: Invalid timezone '%s', using system default: %v\n", cfg.Timezone, err)
	}

	globalCfg = cfg

	return cfg, nil
}

func Get() *Cfg {
	if globalCfg == nil {
		panic("configuration not loaded - call cfg.Load() first")
	}
	return globalCfg
}

// Set replaces the global configuration. Used by tests and by entrypoints
// that assemble configuration programmatically.
func Set(c *Cfg) {
	globalCfg = c
}

func applyTimezone(timezone string) error {
	if timezone != "" {
		if loc, err := time.LoadLocation(timezone); err != nil {
			return err
		} else {
			time.Local = loc
		}
	}
	return nil
}
