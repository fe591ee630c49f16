package tasks

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jessetrippe/clarify-rss/app/engine"
)

type SyncTask struct {
	Task
	engine  *engine.Engine
	trigger engine.Trigger
}

func NewSyncTask(syncEngine *engine.Engine, trigger engine.Trigger) *SyncTask {
	return &SyncTask{
		Task:    NewTask(TaskTypeSync),
		engine:  syncEngine,
		trigger: trigger,
	}
}

func (t *SyncTask) Execute(ctx context.Context) error {
	err := t.engine.Sync(ctx, t.trigger)
	if errors.Is(err, engine.ErrSyncInProgress) {
		slog.Debug("Sync trigger dropped, already in flight", "trigger", t.trigger.String())
		return nil
	}
	if err != nil && engine.IsTransient(err) {
		// Expected under intermittent connectivity; the next trigger
		// retries from the persisted cursors.
		return nil
	}
	return err
}
