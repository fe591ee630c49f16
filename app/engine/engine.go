package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jessetrippe/clarify-rss/app/database"
	syncwire "github.com/jessetrippe/clarify-rss/app/sync"
)

type Trigger int

const (
	TriggerStartup Trigger = iota
	TriggerFocus
	TriggerNetworkRegained
	TriggerPeriodic
)

func (t Trigger) String() string {
	switch t {
	case TriggerStartup:
		return "startup"
	case TriggerFocus:
		return "focus"
	case TriggerNetworkRegained:
		return "network_regained"
	case TriggerPeriodic:
		return "periodic"
	}
	return "unknown"
}

type State int32

const (
	StateIdle State = iota
	StatePushing
	StatePulling
	StateFailed
)

type Options struct {
	// Cooldown is the minimum interval between non-forced syncs.
	Cooldown time.Duration
	// StartupForceWindow suppresses the forced startup sync when a sync
	// completed this recently.
	StartupForceWindow time.Duration
	// MaxPullIterations caps the pull loop as a guard against a server or
	// cursor defect producing endless pagination.
	MaxPullIterations int
	// PullLimit is the page size requested per pull.
	PullLimit int
}

func DefaultOptions() Options {
	return Options{
		Cooldown:           5 * time.Minute,
		StartupForceWindow: 2 * time.Minute,
		MaxPullIterations:  100,
		PullLimit:          syncwire.DefaultPullLimit,
	}
}

// Engine drives one replica's synchronization: push local dirty records,
// then pull remote pages to exhaustion and merge them into the local
// replica. One sync runs at a time per engine; overlapping triggers are
// dropped. The engine is the single logical writer for its replica, so the
// in-flight guard is a boolean, not a lock around the store.
type Engine struct {
	api         API
	feedRepo    database.FeedRepository
	articleRepo database.ArticleRepository
	stateRepo   database.SyncStateRepository
	userID      string
	opts        Options

	inFlight atomic.Bool
	state    atomic.Int32
	// offline records that the last attempt failed on connectivity, so the
	// next trigger is treated as a reconnect and bypasses the cooldown.
	offline atomic.Bool
}

func NewEngine(api API, feedRepo database.FeedRepository, articleRepo database.ArticleRepository,
	stateRepo database.SyncStateRepository, userID string, opts Options) *Engine {
	if opts.Cooldown <= 0 {
		opts.Cooldown = DefaultOptions().Cooldown
	}
	if opts.StartupForceWindow <= 0 {
		opts.StartupForceWindow = DefaultOptions().StartupForceWindow
	}
	if opts.MaxPullIterations <= 0 {
		opts.MaxPullIterations = DefaultOptions().MaxPullIterations
	}
	if opts.PullLimit <= 0 {
		opts.PullLimit = DefaultOptions().PullLimit
	}

	return &Engine{
		api:         api,
		feedRepo:    feedRepo,
		articleRepo: articleRepo,
		stateRepo:   stateRepo,
		userID:      userID,
		opts:        opts,
	}
}

func (e *Engine) State() State {
	return State(e.state.Load())
}

// Sync runs one push-then-pull cycle. Overlapping invocations return
// ErrSyncInProgress; non-forced triggers inside the cooldown window are
// skipped silently. Push completes (or fails) before pull starts, and
// cursors are persisted only after the pull loop fully drains.
func (e *Engine) Sync(ctx context.Context, trigger Trigger) error {
	if !e.inFlight.CompareAndSwap(false, true) {
		return ErrSyncInProgress
	}
	defer e.inFlight.Store(false)

	state, err := e.stateRepo.GetSyncState()
	if err != nil {
		return e.fail("state", fmt.Errorf("failed to load sync state: %w", err))
	}
	if state == nil {
		state = &database.SyncState{ID: database.SyncStateID}
	}

	now := database.NowMillis()
	if !e.isForced(trigger, state.LastSyncAt, now) && now-state.LastSyncAt < e.opts.Cooldown.Milliseconds() {
		slog.Debug("Sync skipped, within cooldown", "trigger", trigger.String(),
			"last_sync_at", state.LastSyncAt)
		return nil
	}

	started := time.Now()

	e.state.Store(int32(StatePushing))
	if err := e.push(ctx, state.LastSyncAt); err != nil {
		return e.fail("push", err)
	}

	e.state.Store(int32(StatePulling))
	feedCursor, articleCursor, err := e.pullAll(ctx, state.FeedCursor, state.ArticleCursor)
	if err != nil {
		return e.fail("pull", err)
	}

	// The watermark is the time captured before the dirty scan, so a record
	// mutated by a concurrent worker mid-sync stays above it and is pushed
	// on the next cycle. Re-pushing an already-applied record resolves as a
	// harmless conflict.
	state.LastSyncAt = now
	state.FeedCursor = feedCursor
	state.ArticleCursor = articleCursor
	if err := e.stateRepo.UpdateSyncState(*state); err != nil {
		return e.fail("state", fmt.Errorf("failed to persist sync state: %w", err))
	}

	e.state.Store(int32(StateIdle))
	e.offline.Store(false)

	slog.Info("Sync completed", "trigger", trigger.String(), "duration", time.Since(started))

	return nil
}

// isForced reports whether the trigger bypasses the cooldown. Startup forces
// a sync unless one completed within the startup window; a trigger after a
// connectivity failure counts as reconnect-after-offline.
func (e *Engine) isForced(trigger Trigger, lastSyncAt, now int64) bool {
	if trigger == TriggerNetworkRegained || e.offline.Load() {
		return true
	}
	if trigger == TriggerStartup {
		return now-lastSyncAt >= e.opts.StartupForceWindow.Milliseconds()
	}
	return false
}

// push sends every record modified since the last sync high-water mark.
// Once the request is issued its outcome is always awaited; abandoning a
// possibly-applied push would desynchronize dirty tracking.
func (e *Engine) push(ctx context.Context, since int64) error {
	feeds, err := e.feedRepo.ListDirtySince(e.userID, since)
	if err != nil {
		return fmt.Errorf("failed to collect dirty feeds: %w", err)
	}

	articles, err := e.articleRepo.ListDirtySince(e.userID, since)
	if err != nil {
		return fmt.Errorf("failed to collect dirty articles: %w", err)
	}

	if len(feeds) == 0 && len(articles) == 0 {
		return nil
	}

	req := syncwire.PushRequest{
		Feeds:    make([]syncwire.FeedRecord, 0, len(feeds)),
		Articles: make([]syncwire.ArticleRecord, 0, len(articles)),
	}
	for _, feed := range feeds {
		req.Feeds = append(req.Feeds, syncwire.FeedToWire(feed))
	}
	for _, article := range articles {
		req.Articles = append(req.Articles, syncwire.ArticleToWire(article))
	}

	resp, err := e.api.Push(ctx, req)
	if err != nil {
		return err
	}

	// A rejected record is not an error; the next pull re-fetches the
	// winner and the merge rule overwrites the local loser.
	if resp.Conflicts > 0 {
		slog.Debug("Push conflicts resolved in server's favor", "conflicts", resp.Conflicts)
	}

	return nil
}

// pullAll drains remote pages, merging each into the local replica and
// advancing the in-memory cursors after each fully processed page. The
// returned cursors are only persisted by the caller on success.
func (e *Engine) pullAll(ctx context.Context, feedCursor, articleCursor string) (string, string, error) {
	for i := 0; i < e.opts.MaxPullIterations; i++ {
		resp, err := e.api.Pull(ctx, syncwire.PullRequest{
			FeedCursor:    feedCursor,
			ArticleCursor: articleCursor,
			Limit:         e.opts.PullLimit,
		})
		if err != nil {
			return "", "", err
		}

		for _, record := range resp.Feeds {
			if _, err := e.feedRepo.MergePulled(syncwire.FeedFromWire(record, e.userID)); err != nil {
				return "", "", err
			}
		}
		for _, record := range resp.Articles {
			if _, err := e.articleRepo.MergePulled(syncwire.ArticleFromWire(record, e.userID)); err != nil {
				return "", "", err
			}
		}

		feedCursor = resp.FeedCursor
		articleCursor = resp.ArticleCursor

		if !resp.HasMore {
			return feedCursor, articleCursor, nil
		}
	}

	return "", "", ErrSyncLoopDetected
}

func (e *Engine) fail(phase string, err error) error {
	e.state.Store(int32(StateFailed))

	// Only genuine unreachability marks the replica offline. A 429 or 5xx
	// came from a reachable server, so the next trigger waits out the
	// normal cooldown instead of being treated as a reconnect.
	if IsConnectivityError(err) {
		e.offline.Store(true)
	}

	if IsTransient(err) {
		slog.Debug("Sync interrupted, will retry on a later trigger", "phase", phase, "error", err)
	} else {
		slog.Error("Sync failed", "phase", phase, "error", err)
	}

	e.state.Store(int32(StateIdle))

	return err
}
