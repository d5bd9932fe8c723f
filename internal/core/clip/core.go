package clip

import (
	"context"

	"github.com/gowvp/pothole/internal/conf"
	"github.com/ixugo/goddd/pkg/orm"
	"github.com/ixugo/goddd/pkg/reason"
	"gorm.io/gorm"
)

// Storer data persistence
type Storer interface {
	Clip() ClipStorer
}

// ClipStorer Instantiation interface
type ClipStorer interface {
	Find(context.Context, *[]*Clip, orm.Pager, ...orm.QueryOption) (int64, error)
	Get(context.Context, *Clip, ...orm.QueryOption) error
	Add(context.Context, *Clip) error

	Session(context.Context, ...func(*gorm.DB) error) error
}

// TaskPurger 清理已完成的上传任务，由 upload 领域实现
type TaskPurger interface {
	PurgeDone(ctx context.Context, before orm.Time) (int64, error)
}

// Core business domain
type Core struct {
	store  Storer
	root   string
	conf   *conf.Cleanup
	purger TaskPurger
}

type Option func(*Core)

// WithCleanup 注入清理配置
func WithCleanup(cfg *conf.Cleanup) Option {
	return func(c *Core) {
		c.conf = cfg
	}
}

// WithTaskPurger 清理时一并删除过期的已完成上传任务
func WithTaskPurger(p TaskPurger) Option {
	return func(c *Core) {
		c.purger = p
	}
}

// NewCore create business domain
func NewCore(store Storer, root string, opts ...Option) Core {
	c := Core{store: store, root: root}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Root 片段输出根目录
func (c Core) Root() string {
	return c.root
}

// FindClips 分页查询片段，按时间倒序
func (c Core) FindClips(ctx context.Context, in *FindClipInput) ([]*Clip, int64, error) {
	query := orm.NewQuery(2).OrderBy("captured_at DESC")
	if in.Date != "" {
		query.Where("date = ?", in.Date)
	}

	items := make([]*Clip, 0, in.Limit())
	total, err := c.store.Clip().Find(ctx, &items, in, query.Encode()...)
	if err != nil {
		return nil, 0, reason.ErrDB.Withf(`Find in[%+v] err[%s]`, in, err.Error())
	}
	return items, total, nil
}

// GetClip Query a single object
func (c Core) GetClip(ctx context.Context, id string) (*Clip, error) {
	out := Clip{ID: id}
	if err := c.store.Clip().Get(ctx, &out, orm.Where("id=?", id)); err != nil {
		if orm.IsErrRecordNotFound(err) {
			return nil, reason.ErrNotFound.Withf(`Get id[%v] err[%s]`, id, err.Error())
		}
		return nil, reason.ErrDB.Withf(`Get id[%v] err[%s]`, id, err.Error())
	}
	return &out, nil
}
