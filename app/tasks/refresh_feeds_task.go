package tasks

import (
	"context"
	"log/slog"

	"github.com/jessetrippe/clarify-rss/app/feed"
)

type RefreshFeedsTask struct {
	Task
	refresher *feed.Refresher
}

func NewRefreshFeedsTask(refresher *feed.Refresher) *RefreshFeedsTask {
	return &RefreshFeedsTask{
		Task:      NewTask(TaskTypeRefreshFeeds),
		refresher: refresher,
	}
}

func (t *RefreshFeedsTask) Execute(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	result, err := t.refresher.RefreshAll(ctx)
	if err != nil {
		return err
	}

	slog.Info("Task completed",
		"type", "RefreshFeeds",
		"duration", t.GetDuration(),
		"total", result.Total,
		"refreshed", result.Refreshed,
		"skipped", result.Skipped,
		"errors", len(result.Errors))

	return nil
}
