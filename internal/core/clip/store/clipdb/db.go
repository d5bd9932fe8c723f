package clipdb

import (
	"github.com/gowvp/pothole/internal/core/clip"
	"gorm.io/gorm"
)

var _ clip.Storer = DB{}

// DB Related business namespaces
type DB struct {
	db *gorm.DB
}

// NewDB instance object
func NewDB(db *gorm.DB) DB {
	return DB{db: db}
}

// Clip Get business instance
func (d DB) Clip() clip.ClipStorer {
	return Clip(d)
}

// AutoMigrate sync database
func (d DB) AutoMigrate(ok bool) DB {
	if !ok {
		return d
	}
	if err := d.db.AutoMigrate(
		new(clip.Clip),
	); err != nil {
		panic(err)
	}
	return d
}
