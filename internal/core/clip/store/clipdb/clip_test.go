package clipdb

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gowvp/pothole/internal/core/clip"
	"github.com/ixugo/goddd/pkg/orm"
	"github.com/ixugo/goddd/pkg/web"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func generateMockDB() (*gorm.DB, sqlmock.Sqlmock, error) {
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		return nil, nil, err
	}
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	return db, mock, err
}

func TestClipGet(t *testing.T) {
	db, mock, err := generateMockDB()
	if err != nil {
		t.Fatal(err)
	}
	store := NewClip(db)

	rows := sqlmock.NewRows([]string{"id", "base_name", "frame_count"}).AddRow("c1", "pothole_1700000000", 2)
	mock.ExpectQuery(`SELECT \* FROM "clips" WHERE id=\$1 (.+) LIMIT \$2`).WithArgs("c1", 1).WillReturnRows(rows)

	var out clip.Clip
	if err := store.Get(context.Background(), &out, orm.Where("id=?", "c1")); err != nil {
		t.Fatal(err)
	}
	if out.BaseName != "pothole_1700000000" || out.FrameCount != 2 {
		t.Fatalf("unexpected clip: %+v", out)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal("ExpectationsWereMet err:", err)
	}
}

func TestClipFindEmpty(t *testing.T) {
	db, mock, err := generateMockDB()
	if err != nil {
		t.Fatal(err)
	}
	store := NewClip(db)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "clips" WHERE date = \$1`).
		WithArgs("2024-05-01").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	var out []*clip.Clip
	pager := web.PagerFilter{Page: 1, Size: 10}
	total, err := store.Find(context.Background(), &out, &pager, orm.Where("date = ?", "2024-05-01"))
	if err != nil {
		t.Fatal(err)
	}
	if total != 0 || len(out) != 0 {
		t.Fatalf("total=%d len=%d", total, len(out))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal("ExpectationsWereMet err:", err)
	}
}

func TestClipSessionDelete(t *testing.T) {
	db, mock, err := generateMockDB()
	if err != nil {
		t.Fatal(err)
	}
	store := NewClip(db)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "clips" WHERE id IN \(\$1,\$2\)`).
		WithArgs("a", "b").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	err = store.Session(context.Background(), func(tx *gorm.DB) error {
		return tx.Where("id IN ?", []string{"a", "b"}).Delete(&clip.Clip{}).Error
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal("ExpectationsWereMet err:", err)
	}
}
