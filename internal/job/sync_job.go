package job

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	appErr "github.com/xxxsen/marksync/internal/pkg/errors"
	"github.com/xxxsen/marksync/internal/syncer"
)

// SyncJob adapts the reconciliation engine to the scheduler. A tick that
// lands while a manually triggered run is active is dropped, not queued.
type SyncJob struct {
	engine *syncer.Engine
}

func NewSyncJob(engine *syncer.Engine) *SyncJob {
	return &SyncJob{engine: engine}
}

func (j *SyncJob) Name() string {
	return "bookmark_sync"
}

func (j *SyncJob) Run(ctx context.Context) error {
	summary, err := j.engine.Run(ctx)
	if appErr.IsSyncRunning(err) {
		logutil.GetLogger(ctx).Info("periodic sync skipped: run already in progress")
		return nil
	}
	if err != nil {
		return err
	}
	logutil.GetLogger(ctx).Info("periodic sync finished", zap.String("summary", summary.Message))
	return nil
}
