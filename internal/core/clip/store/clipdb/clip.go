package clipdb

import (
	"context"

	"github.com/gowvp/pothole/internal/core/clip"
	"github.com/ixugo/goddd/pkg/orm"
	"gorm.io/gorm"
)

var _ clip.ClipStorer = Clip{}

// Clip Related business namespaces
type Clip DB

// NewClip instance object
func NewClip(db *gorm.DB) Clip {
	return Clip{db: db}
}

// Find implements clip.ClipStorer.
func (d Clip) Find(ctx context.Context, bs *[]*clip.Clip, page orm.Pager, opts ...orm.QueryOption) (int64, error) {
	db := d.db.WithContext(ctx).Model(new(clip.Clip))
	for _, fn := range opts {
		db = fn(db)
	}
	var total int64
	if err := db.Count(&total).Error; err != nil || total <= 0 {
		return total, err
	}
	if page != nil {
		db = db.Offset(page.Offset()).Limit(page.Limit())
	}
	return total, db.Find(bs).Error
}

// Get implements clip.ClipStorer.
func (d Clip) Get(ctx context.Context, b *clip.Clip, opts ...orm.QueryOption) error {
	db := d.db.WithContext(ctx)
	for _, fn := range opts {
		db = fn(db)
	}
	return db.First(b).Error
}

// Add implements clip.ClipStorer.
func (d Clip) Add(ctx context.Context, b *clip.Clip) error {
	return d.db.WithContext(ctx).Create(b).Error
}

// Session implements clip.ClipStorer.
func (d Clip) Session(ctx context.Context, changeFns ...func(*gorm.DB) error) error {
	return d.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, fn := range changeFns {
			if err := fn(tx); err != nil {
				return err
			}
		}
		return nil
	})
}
