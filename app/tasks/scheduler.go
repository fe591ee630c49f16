package tasks

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/jessetrippe/clarify-rss/app/cfg"
	"github.com/jessetrippe/clarify-rss/app/database"
	"github.com/jessetrippe/clarify-rss/app/engine"
	"github.com/jessetrippe/clarify-rss/app/feed"
)

type TaskSchedulerInterface interface {
	Start()
	Stop()
	EnqueueTask(task TaskInterface) error
}

var _ TaskSchedulerInterface = (*Scheduler)(nil)

// Scheduler runs the agent's background work: periodic feed refreshes,
// content extraction, and periodic sync triggers. The engine enforces its
// own cooldown, so an eager tick here never causes an over-eager sync.
type Scheduler struct {
	feedRepo    database.FeedRepository
	articleRepo database.ArticleRepository
	refresher   *feed.Refresher
	extractor   *feed.ContentExtractor
	syncEngine  *engine.Engine
	httpClient  *http.Client
	userID      string
	userAgent   string
	interval    time.Duration
	workerCount int
	ctx         context.Context
	cancel      context.CancelFunc
	wg          sync.WaitGroup
	taskQueue   chan TaskInterface
}

func NewScheduler(refresher *feed.Refresher, extractor *feed.ContentExtractor,
	syncEngine *engine.Engine, feedRepo database.FeedRepository,
	articleRepo database.ArticleRepository, httpClient *http.Client, userID string) TaskSchedulerInterface {
	ctx, cancel := context.WithCancel(context.Background())
	c := cfg.Get()

	return &Scheduler{
		feedRepo:    feedRepo,
		articleRepo: articleRepo,
		refresher:   refresher,
		extractor:   extractor,
		syncEngine:  syncEngine,
		httpClient:  httpClient,
		userID:      userID,
		userAgent:   c.UserAgent,
		interval:    time.Duration(c.SchedulerInterval) * time.Second,
		workerCount: c.WorkerCount,
		ctx:         ctx,
		cancel:      cancel,
		taskQueue:   make(chan TaskInterface, 300),
	}
}

func (s *Scheduler) Start() {
	for i := 0; i < s.workerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.enqueueTasks()
			}
		}
	}()
}

func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}

func (s *Scheduler) EnqueueTask(task TaskInterface) error {
	if err := s.ctx.Err(); err != nil {
		return err
	}

	select {
	case s.taskQueue <- task:
		return nil
	default:
		return fmt.Errorf("task queue is full")
	}
}

func (s *Scheduler) enqueueTasks() {
	if err := s.EnqueueTask(NewRefreshFeedsTask(s.refresher)); err != nil {
		slog.Warn("Failed to enqueue RefreshFeedsTask", "error", err)
	}

	feeds, err := s.feedRepo.ListActiveFeeds(s.userID)
	if err != nil {
		slog.Warn("Failed to list feeds for extraction scheduling", "error", err)
	} else {
		for _, f := range feeds {
			task := NewExtractContentTask(f.ID, s.userID, s.userAgent, s.httpClient, s.extractor, s.articleRepo)
			if err := s.EnqueueTask(task); err != nil {
				slog.Warn("Failed to enqueue ExtractContentTask", "feed", f.ID, "error", err)
			}
		}
	}

	if err := s.EnqueueTask(NewSyncTask(s.syncEngine, engine.TriggerPeriodic)); err != nil {
		slog.Warn("Failed to enqueue SyncTask", "error", err)
	}
}

func (s *Scheduler) worker(id int) {
	defer s.wg.Done()

	for {
		select {
		case task, ok := <-s.taskQueue:
			if !ok {
				return
			}
			s.executeTask(id, task)

		case <-s.ctx.Done():
			return
		}
	}
}

func (s *Scheduler) executeTask(workerID int, task TaskInterface) {
	task.Start()

	taskCtx, cancel := context.WithTimeout(s.ctx, 5*time.Minute)
	defer cancel()

	err := task.Execute(taskCtx)

	if err != nil {
		slog.Error("Worker task execution failed", "worker_id", workerID, "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", err)

		if task.CanRetry() {
			task.IncrementRetryCount()
			retryDelay := time.Duration(1<<uint(task.GetRetryCount()-1)) * time.Second
			if retryDelay > 30*time.Second {
				retryDelay = 30 * time.Second
			}

			slog.Warn("Task retry scheduled", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "delay", retryDelay.String())

			go func() {
				time.Sleep(retryDelay)
				select {
				case <-s.ctx.Done():
					slog.Debug("Scheduler stopped, skipping task retry", "type", string(task.GetType()), "id", task.GetID())
					return
				default:
					if retryErr := s.EnqueueTask(task); retryErr != nil {
						slog.Error("Failed to re-enqueue task for retry", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "error", retryErr)
					}
				}
			}()
		} else {
			slog.Error("Task failed after maximum retries", "type", string(task.GetType()), "id", task.GetID(), "retry_count", task.GetRetryCount(), "max_retries", task.GetMaxRetries(), "last_error", err)
		}
	}
}
