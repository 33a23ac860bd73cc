package reconcile

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// runTimeout 单次清理的上限
const runTimeout = 10 * time.Minute

// Schedule 按 cron 表达式定期执行清理，上一次未结束时跳过本次；调用方负责 Start/Stop
func Schedule(sweeper *Sweeper, spec string, logger *slog.Logger) (*cron.Cron, error) {
	if logger == nil {
		logger = slog.Default()
	}

	c := cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger), cron.SkipIfStillRunning(cron.DefaultLogger)))
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()
		if _, err := sweeper.Run(ctx); err != nil {
			logger.Error("定时清理失败", "error", err)
		}
	})
	if err != nil {
		return nil, err
	}
	logger.Info("孤儿对象清理已调度", "schedule", spec, "min_age", sweeper.opts.MinAge, "dry_run", sweeper.opts.DryRun)
	return c, nil
}
