package uploaddb

import (
	"context"

	"github.com/gowvp/pothole/internal/core/upload"
	"github.com/ixugo/goddd/pkg/orm"
	"gorm.io/gorm"
)

var _ upload.TaskStorer = Task{}

// Task Related business namespaces
type Task DB

// NewTask instance object
func NewTask(db *gorm.DB) Task {
	return Task{db: db}
}

// Find implements upload.TaskStorer.
func (d Task) Find(ctx context.Context, bs *[]*upload.Task, page orm.Pager, opts ...orm.QueryOption) (int64, error) {
	db := d.db.WithContext(ctx).Model(new(upload.Task))
	for _, fn := range opts {
		db = fn(db)
	}
	if page == nil {
		err := db.Find(bs).Error
		return int64(len(*bs)), err
	}
	var total int64
	if err := db.Count(&total).Error; err != nil || total <= 0 {
		return total, err
	}
	return total, db.Offset(page.Offset()).Limit(page.Limit()).Find(bs).Error
}

// Get implements upload.TaskStorer.
func (d Task) Get(ctx context.Context, b *upload.Task, opts ...orm.QueryOption) error {
	db := d.db.WithContext(ctx)
	for _, fn := range opts {
		db = fn(db)
	}
	return db.First(b).Error
}

// Add implements upload.TaskStorer.
func (d Task) Add(ctx context.Context, b *upload.Task) error {
	return d.db.WithContext(ctx).Create(b).Error
}

// Edit implements upload.TaskStorer.
func (d Task) Edit(ctx context.Context, b *upload.Task, changeFn func(*upload.Task) error, opts ...orm.QueryOption) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		db := tx
		for _, fn := range opts {
			db = fn(db)
		}
		if err := db.First(b).Error; err != nil {
			return err
		}
		if err := changeFn(b); err != nil {
			return err
		}
		return tx.Save(b).Error
	})
}

// Count implements upload.TaskStorer.
func (d Task) Count(ctx context.Context, opts ...orm.QueryOption) (int64, error) {
	db := d.db.WithContext(ctx).Model(new(upload.Task))
	for _, fn := range opts {
		db = fn(db)
	}
	var total int64
	err := db.Count(&total).Error
	return total, err
}

// Session implements upload.TaskStorer.
func (d Task) Session(ctx context.Context, changeFns ...func(*gorm.DB) error) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, fn := range changeFns {
			if err := fn(tx); err != nil {
				return err
			}
		}
		return nil
	})
}
