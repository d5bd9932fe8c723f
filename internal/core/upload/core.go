package upload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ixugo/goddd/pkg/conc"
	"github.com/ixugo/goddd/pkg/orm"
	"github.com/ixugo/goddd/pkg/reason"
	"gorm.io/gorm"
)

// DefaultBackoff 探测失败或上传失败后的等待时长
const DefaultBackoff = 120 * time.Second

// Storer data persistence
type Storer interface {
	Task() TaskStorer
}

// TaskStorer Instantiation interface
type TaskStorer interface {
	Find(context.Context, *[]*Task, orm.Pager, ...orm.QueryOption) (int64, error)
	Get(context.Context, *Task, ...orm.QueryOption) error
	Add(context.Context, *Task) error
	Edit(context.Context, *Task, func(*Task) error, ...orm.QueryOption) error
	Count(context.Context, ...orm.QueryOption) (int64, error)

	Session(context.Context, ...func(*gorm.DB) error) error
}

// ObjectStorer 远端对象存储
type ObjectStorer interface {
	Put(ctx context.Context, key, localPath string) error
}

// Prober 上传前的连通性探测
type Prober interface {
	Probe(ctx context.Context) error
}

// Core 上传任务调度，每个任务一个协程，失败后无限重试
type Core struct {
	store   Storer
	objects ObjectStorer
	prober  Prober
	backoff time.Duration
	log     *slog.Logger

	mu      sync.Mutex
	ctx     context.Context
	running conc.Map[string, struct{}]
	wg      sync.WaitGroup
}

type Option func(*Core)

// WithBackoff 设置重试间隔
func WithBackoff(d time.Duration) Option {
	return func(c *Core) {
		if d > 0 {
			c.backoff = d
		}
	}
}

// NewCore create business domain
func NewCore(store Storer, objects ObjectStorer, prober Prober, opts ...Option) *Core {
	c := Core{
		store:   store,
		objects: objects,
		prober:  prober,
		backoff: DefaultBackoff,
		log:     slog.With("component", "uploader"),
		ctx:     context.Background(),
	}
	for _, opt := range opts {
		opt(&c)
	}
	return &c
}

// Submit 保存任务并在后台上传，不等待网络
// 任务保存失败时仍在内存中上传，只是重启后无法恢复
func (c *Core) Submit(ctx context.Context, localPath, remoteKey, clipID string) {
	now := orm.Now()
	task := Task{
		ID:        uuid.NewString(),
		ClipID:    clipID,
		LocalPath: localPath,
		RemoteKey: remoteKey,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := c.store.Task().Add(context.WithoutCancel(ctx), &task); err != nil {
		c.log.Error("persist upload task", "key", remoteKey, "err", err)
	}
	c.start(&task)
}

// Resume 记录根 ctx 并恢复所有未完成的任务，返回恢复的任务数
// 此后提交的任务在根 ctx 结束时停止，状态保留为 pending 等待下次启动
func (c *Core) Resume(ctx context.Context) (int, error) {
	c.mu.Lock()
	c.ctx = ctx
	c.mu.Unlock()

	var tasks []*Task
	_, err := c.store.Task().Find(ctx, &tasks, nil,
		orm.Where("status IN ?", []string{StatusPending, StatusUploaded}),
		orm.OrderBy("created_at ASC"),
	)
	if err != nil {
		return 0, fmt.Errorf("find pending tasks: %w", err)
	}
	var n int
	for _, t := range tasks {
		if c.start(t) {
			n++
		}
	}
	if n > 0 {
		c.log.Info("resumed upload tasks", "count", n)
	}
	return n, nil
}

// Wait 等待所有上传协程退出
func (c *Core) Wait() {
	c.wg.Wait()
}

// start 同一任务同时只运行一个协程
func (c *Core) start(t *Task) bool {
	c.mu.Lock()
	if _, ok := c.running.Load(t.ID); ok {
		c.mu.Unlock()
		return false
	}
	c.running.Store(t.ID, struct{}{})
	ctx := c.ctx
	c.mu.Unlock()

	c.wg.Go(func() {
		defer c.running.Delete(t.ID)
		if err := c.Upload(ctx, t); err != nil && !errors.Is(err, context.Canceled) {
			c.log.Error("upload task stopped", "key", t.RemoteKey, "err", err)
		}
	})
	return true
}

// Upload 探测网络后上传，任一步失败都等待 backoff 后重试，直到成功或 ctx 结束
// 成功后删除本地文件，本地文件在上传前丢失则任务失败
func (c *Core) Upload(ctx context.Context, t *Task) error {
	log := c.log.With("key", t.RemoteKey, "path", t.LocalPath)

	// 以库中状态为准，Resume 读到的可能是已被 Submit 协程完成的旧快照
	var cur Task
	if err := c.store.Task().Get(ctx, &cur, orm.Where("id=?", t.ID)); err == nil {
		t.Status = cur.Status
	}
	if t.Finished() {
		return nil
	}

	if t.Status != StatusUploaded {
		for attempt := 1; ; attempt++ {
			if _, err := os.Stat(t.LocalPath); errors.Is(err, os.ErrNotExist) {
				c.finish(ctx, t, StatusFailed, ErrLocalMissing.Error())
				return fmt.Errorf("%w: %s", ErrLocalMissing, t.LocalPath)
			}

			err := c.try(ctx, t)
			if err == nil {
				break
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Warn("upload failed, retry later", "attempt", attempt, "backoff", c.backoff, "err", err)
			c.recordFailure(ctx, t, err)

			timer := time.NewTimer(c.backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}
		c.finish(ctx, t, StatusUploaded, "")
	}

	if err := os.Remove(t.LocalPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn("remove uploaded file", "err", err)
	}
	c.finish(ctx, t, StatusDone, "")
	log.Info("uploaded")
	return nil
}

func (c *Core) try(ctx context.Context, t *Task) error {
	if err := c.prober.Probe(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrConnectivity, err)
	}
	if err := c.objects.Put(ctx, t.RemoteKey, t.LocalPath); err != nil {
		return fmt.Errorf("%w: %w", ErrUpload, err)
	}
	return nil
}

func (c *Core) recordFailure(ctx context.Context, t *Task, cause error) {
	t.Attempts++
	t.LastError = cause.Error()
	attempts, lastErr := t.Attempts, t.LastError
	err := c.store.Task().Edit(context.WithoutCancel(ctx), &Task{}, func(b *Task) error {
		b.Attempts = attempts
		b.LastError = lastErr
		b.UpdatedAt = orm.Now()
		return nil
	}, orm.Where("id=?", t.ID))
	if err != nil {
		c.log.Debug("record upload failure", "id", t.ID, "err", err)
	}
}

func (c *Core) finish(ctx context.Context, t *Task, status, lastErr string) {
	t.Status = status
	if lastErr != "" {
		t.LastError = lastErr
	}
	err := c.store.Task().Edit(context.WithoutCancel(ctx), &Task{}, func(b *Task) error {
		b.Status = status
		if lastErr != "" {
			b.LastError = lastErr
		}
		b.UpdatedAt = orm.Now()
		return nil
	}, orm.Where("id=?", t.ID))
	if err != nil {
		c.log.Warn("update upload task", "id", t.ID, "status", status, "err", err)
	}
}

// FindTasks 分页查询上传任务
func (c *Core) FindTasks(ctx context.Context, in *FindTaskInput) ([]*Task, int64, error) {
	query := orm.NewQuery(3).OrderBy("created_at DESC")
	if in.Status != "" {
		query.Where("status = ?", in.Status)
	}
	if in.ClipID != "" {
		query.Where("clip_id = ?", in.ClipID)
	}

	items := make([]*Task, 0, in.Limit())
	total, err := c.store.Task().Find(ctx, &items, in, query.Encode()...)
	if err != nil {
		return nil, 0, reason.ErrDB.Withf(`Find in[%+v] err[%s]`, in, err.Error())
	}
	return items, total, nil
}

// CountPending 未完成的任务数
func (c *Core) CountPending(ctx context.Context) (int64, error) {
	n, err := c.store.Task().Count(ctx, orm.Where("status IN ?", []string{StatusPending, StatusUploaded}))
	if err != nil {
		return 0, reason.ErrDB.Withf(`Count err[%s]`, err.Error())
	}
	return n, nil
}

// PurgeDone 删除 before 之前完成的任务，失败的任务保留用于排查
func (c *Core) PurgeDone(ctx context.Context, before orm.Time) (int64, error) {
	var n int64
	err := c.store.Task().Session(ctx, func(tx *gorm.DB) error {
		res := tx.Where("status = ? AND updated_at < ?", StatusDone, before).Delete(&Task{})
		n = res.RowsAffected
		return res.Error
	})
	return n, err
}
