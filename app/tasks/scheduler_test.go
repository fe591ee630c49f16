package tasks

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jessetrippe/clarify-rss/app/cfg"
	"github.com/jessetrippe/clarify-rss/app/database"
	"github.com/jessetrippe/clarify-rss/app/engine"
	"github.com/jessetrippe/clarify-rss/app/feed"
)

// countingTask records executions for scheduler tests
type countingTask struct {
	Task
	executions *atomic.Int32
	err        error
}

func (t *countingTask) Execute(ctx context.Context) error {
	t.executions.Add(1)
	return t.err
}

func newTestScheduler(t *testing.T) TaskSchedulerInterface {
	t.Helper()

	cfg.Set(&cfg.Cfg{
		UserAgent:         "test-agent",
		SchedulerInterval: 3600,
		WorkerCount:       2,
	})

	db, err := database.NewConnection(filepath.Join(t.TempDir(), "replica.db"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := database.RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	feedRepo := database.NewFeedRepository(db)
	articleRepo := database.NewArticleRepository(db)
	stateRepo := database.NewSyncStateRepository(db)

	refresher := feed.NewRefresher(nil, feed.NewParser(), feedRepo, articleRepo, "local", "test-agent")
	client := engine.NewClient("http://localhost:0", "", "test-agent")
	syncEngine := engine.NewEngine(client, feedRepo, articleRepo, stateRepo, "local", engine.DefaultOptions())

	return NewScheduler(refresher, feed.NewContentExtractor(), syncEngine, feedRepo, articleRepo, nil, "local")
}

func TestScheduler_ExecutesEnqueuedTasks(t *testing.T) {
	scheduler := newTestScheduler(t)
	scheduler.Start()
	defer scheduler.Stop()

	var executions atomic.Int32
	task := &countingTask{Task: NewTask(TaskTypeSync), executions: &executions}

	if err := scheduler.EnqueueTask(task); err != nil {
		t.Fatalf("Failed to enqueue task: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for executions.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	if executions.Load() != 1 {
		t.Errorf("Expected task executed once, got %d", executions.Load())
	}
}

func TestScheduler_EnqueueAfterStopFails(t *testing.T) {
	scheduler := newTestScheduler(t)
	scheduler.Start()
	scheduler.Stop()

	var executions atomic.Int32
	task := &countingTask{Task: NewTask(TaskTypeSync), executions: &executions}

	if err := scheduler.EnqueueTask(task); err == nil {
		t.Error("Expected enqueue to fail after stop")
	}
}
