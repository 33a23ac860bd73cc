// Package reconcile 定期清理对象存储中不再被任何作业或提交引用的孤儿对象
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"terminal-terrace/testmaker/internal/attachment"
	"terminal-terrace/testmaker/packages/storage"
)

// Options 清理参数
type Options struct {
	// MinAge 只处理早于该时长的对象
	MinAge time.Duration
	DryRun bool
}

// Report 一次清理的结果；DryRun 时 Orphans 只列出而不删除
type Report struct {
	Scanned int      `json:"scanned"`
	Orphans []string `json:"orphans"`
	DryRun  bool     `json:"dry_run"`
	attachment.CleanupReport
}

type Sweeper struct {
	store  storage.ObjectStore
	refs   ReferenceSource
	opts   Options
	logger *slog.Logger
	now    func() time.Time
}

func NewSweeper(store storage.ObjectStore, refs ReferenceSource, opts Options, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{store: store, refs: refs, opts: opts, logger: logger, now: time.Now}
}

// ErrMinAgeRequired 删除模式下 MinAge 必须为正
var ErrMinAgeRequired = errors.New("reconcile: min_age must be positive")

// Run 先读引用再列对象，列出之后才上传的对象不会早于 MinAge
func (s *Sweeper) Run(ctx context.Context) (Report, error) {
	report := Report{DryRun: s.opts.DryRun}
	if !s.opts.DryRun && s.opts.MinAge <= 0 {
		return report, ErrMinAgeRequired
	}

	urls, err := s.refs.ReferencedURLs(ctx)
	if err != nil {
		return report, fmt.Errorf("读取附件引用失败: %w", err)
	}
	referenced := make(map[string]struct{}, len(urls))
	for _, u := range urls {
		name, err := s.store.ObjectName(u)
		if err != nil {
			s.logger.Warn("附件地址无法解析，忽略", "url", u, "error", err)
			continue
		}
		referenced[name] = struct{}{}
	}

	cutoff := s.now().Add(-s.opts.MinAge)
	for _, kind := range []storage.Kind{storage.KindTask, storage.KindAnswer} {
		objects, err := s.store.List(ctx, kind.Prefix())
		if err != nil {
			return report, fmt.Errorf("列出 %s 对象失败: %w", kind, err)
		}
		for _, obj := range objects {
			report.Scanned++
			if _, ok := referenced[obj.Name]; ok {
				continue
			}
			if obj.LastModified.After(cutoff) {
				continue
			}
			report.Orphans = append(report.Orphans, obj.Name)
		}
	}

	if s.opts.DryRun {
		s.logger.Info("孤儿对象扫描完成（dry-run）", "scanned", report.Scanned, "orphans", len(report.Orphans))
		return report, nil
	}

	report.CleanupReport = s.delete(ctx, report.Orphans)
	s.logger.Info("孤儿对象清理完成",
		"scanned", report.Scanned,
		"deleted", len(report.Deleted),
		"failed", len(report.Failed),
	)
	return report, nil
}

func (s *Sweeper) delete(ctx context.Context, names []string) attachment.CleanupReport {
	var report attachment.CleanupReport
	for _, name := range names {
		err := s.store.Delete(ctx, name)
		if err != nil && !errors.Is(err, storage.ErrObjectNotFound) {
			if report.Failed == nil {
				report.Failed = make(map[string]string)
			}
			report.Failed[name] = err.Error()
			s.logger.Warn("删除孤儿对象失败", "object", name, "error", err)
			continue
		}
		report.Deleted = append(report.Deleted, name)
	}
	return report
}

// WithDryRun 返回只改 DryRun 的副本
func (s *Sweeper) WithDryRun(dryRun bool) *Sweeper {
	clone := *s
	clone.opts.DryRun = dryRun
	return &clone
}
