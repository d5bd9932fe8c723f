package uploaddb

import (
	"github.com/gowvp/pothole/internal/core/upload"
	"gorm.io/gorm"
)

var _ upload.Storer = DB{}

// DB Related business namespaces
type DB struct {
	db *gorm.DB
}

// NewDB instance object
func NewDB(db *gorm.DB) DB {
	return DB{db: db}
}

// Task Get business instance
func (d DB) Task() upload.TaskStorer {
	return Task(d)
}

// AutoMigrate sync database
func (d DB) AutoMigrate(ok bool) DB {
	if !ok {
		return d
	}
	if err := d.db.AutoMigrate(
		new(upload.Task),
	); err != nil {
		panic(err)
	}
	return d
}
