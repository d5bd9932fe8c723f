package clip

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ixugo/goddd/pkg/conc"
	"github.com/ixugo/goddd/pkg/orm"
	"github.com/ixugo/goddd/pkg/web"
	"github.com/shirou/gopsutil/v4/disk"
	"gorm.io/gorm"
)

// StartCleanupWorker 启动时执行一次清理，随后按配置间隔执行，ctx 结束后返回
// 只清理数据库记录与空目录，待上传的文件由上传任务负责删除
func (c Core) StartCleanupWorker(ctx context.Context) {
	if c.conf == nil || c.conf.Disabled {
		slog.Info("clip cleanup disabled")
		return
	}
	interval := c.conf.Interval.Duration()
	if interval <= 0 {
		interval = time.Hour
	}

	slog.Info("clip cleanup worker started",
		"retain_days", c.conf.RetainDays,
		"disk_threshold", c.conf.DiskUsageThreshold,
		"output_dir", c.root,
	)

	c.RunCleanup(ctx)
	conc.Timer(ctx, interval, interval, func() {
		c.RunCleanup(ctx)
	})
}

// RunCleanup 执行一轮清理
func (c Core) RunCleanup(ctx context.Context) {
	c.cleanupExpiredClips(ctx)
	cleanupEmptyDirs(c.root)
	c.checkDiskUsage()
}

// cleanupExpiredClips 分批删除超过保留天数的片段记录
func (c Core) cleanupExpiredClips(ctx context.Context) {
	if c.conf.RetainDays <= 0 {
		return
	}
	cutoff := orm.Time{Time: time.Now().AddDate(0, 0, -c.conf.RetainDays)}

	const batchSize = 100
	var total int
	for {
		var clips []*Clip
		pager := web.PagerFilter{Page: 1, Size: batchSize}
		_, err := c.store.Clip().Find(ctx, &clips, &pager, orm.Where("captured_at < ?", cutoff))
		if err != nil {
			slog.Error("failed to query expired clips", "err", err)
			break
		}
		if len(clips) == 0 {
			break
		}

		ids := make([]string, 0, len(clips))
		for _, v := range clips {
			ids = append(ids, v.ID)
		}
		err = c.store.Clip().Session(ctx, func(tx *gorm.DB) error {
			return tx.Where("id IN ?", ids).Delete(&Clip{}).Error
		})
		if err != nil {
			slog.Warn("failed to batch delete clips", "count", len(ids), "err", err)
			break
		}
		total += len(ids)
	}

	var tasks int64
	if c.purger != nil {
		n, err := c.purger.PurgeDone(ctx, cutoff)
		if err != nil {
			slog.Warn("failed to purge upload tasks", "err", err)
		}
		tasks = n
	}

	if total > 0 || tasks > 0 {
		slog.Info("expired clip cleanup completed",
			"retain_days", c.conf.RetainDays,
			"cutoff_time", cutoff.Format(time.DateTime),
			"clips_deleted", total,
			"tasks_deleted", tasks,
		)
	}
}

// checkDiskUsage 磁盘使用率超过阈值时告警
// 本地文件都在等待上传，删除会丢失事件，因此只告警不删除
func (c Core) checkDiskUsage() {
	if c.conf.DiskUsageThreshold <= 0 || c.conf.DiskUsageThreshold >= 100 {
		return
	}
	if _, err := os.Stat(c.root); err != nil {
		return
	}
	usage, err := DiskUsage(c.root)
	if err != nil {
		slog.Warn("failed to get disk usage", "err", err)
		return
	}
	if usage >= c.conf.DiskUsageThreshold {
		slog.Warn("disk usage exceeds threshold, pending uploads are filling the disk",
			"usage", usage,
			"threshold", c.conf.DiskUsageThreshold,
			"output_dir", c.root,
		)
	}
}

// DiskUsage 指定路径所在磁盘的使用率（百分比）
func DiskUsage(path string) (float64, error) {
	st, err := disk.Usage(path)
	if err != nil {
		return 0, err
	}
	return st.UsedPercent, nil
}

// cleanupEmptyDirs 递归删除 root 下空的日期目录，包括只剩空 calibration 子目录的
// 当天目录随时可能有新片段写入，跳过
func cleanupEmptyDirs(root string) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return
	}
	today := time.Now().Format(time.DateOnly)
	for _, entry := range entries {
		if !entry.IsDir() || entry.Name() == today {
			continue
		}
		removeEmptyDirs(filepath.Join(root, entry.Name()))
	}
}

// removeEmptyDirs 先清理子目录，自身为空时删除
func removeEmptyDirs(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			removeEmptyDirs(filepath.Join(dir, entry.Name()))
		}
	}
	if entries, err := os.ReadDir(dir); err == nil && len(entries) == 0 {
		if err := os.Remove(dir); err == nil {
			slog.Debug("removed empty directory", "path", dir)
		}
	}
}
