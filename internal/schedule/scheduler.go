package schedule

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// IntervalScheduler fires jobs on a fixed period. A tick that arrives while
// the previous execution of the same job is still in flight is skipped, so a
// slow pass never stacks up behind itself.
type IntervalScheduler struct {
	cron *cron.Cron
	ctx  context.Context
}

func NewIntervalScheduler() *IntervalScheduler {
	return &IntervalScheduler{cron: cron.New()}
}

func (s *IntervalScheduler) Every(interval time.Duration, job Job) error {
	if interval <= 0 {
		return fmt.Errorf("invalid interval: %s", interval)
	}
	logger := logutil.GetLogger(context.Background()).With(
		zap.String("job", job.Name()), zap.Duration("interval", interval))
	if _, err := s.cron.AddFunc("@every "+interval.String(), s.wrap(job)); err != nil {
		logger.Error("schedule job failed", zap.Error(err))
		return err
	}
	logger.Info("job scheduled")
	return nil
}

func (s *IntervalScheduler) Start(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	s.ctx = ctx
	s.cron.Start()
}

// Stop blocks until any in-flight job returns.
func (s *IntervalScheduler) Stop() {
	<-s.cron.Stop().Done()
}

func (s *IntervalScheduler) wrap(job Job) func() {
	var busy atomic.Bool
	return func() {
		ctx := s.ctx
		if ctx == nil {
			ctx = context.Background()
		}
		logger := logutil.GetLogger(ctx).With(zap.String("job", job.Name()))
		if !busy.CompareAndSwap(false, true) {
			logger.Info("tick skipped: previous run still in flight")
			return
		}
		defer busy.Store(false)

		start := time.Now()
		logger.Info("job started")
		if err := job.Run(ctx); err != nil {
			logger.Error("job finished", zap.Error(err), zap.Duration("duration", time.Since(start)))
			return
		}
		logger.Info("job finished", zap.Duration("duration", time.Since(start)))
	}
}
