package uploaddb

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gowvp/pothole/internal/core/upload"
	"github.com/ixugo/goddd/pkg/orm"
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

func TestTaskGet(t *testing.T) {
	db, mock, err := generateMockDB()
	if err != nil {
		t.Fatal(err)
	}
	store := NewTask(db)

	rows := sqlmock.NewRows([]string{"id", "remote_key", "status"}).AddRow("t1", "2024-05-01/pothole_1.avi", upload.StatusPending)
	mock.ExpectQuery(`SELECT \* FROM "upload_tasks" WHERE id=\$1 (.+) LIMIT \$2`).WithArgs("t1", 1).WillReturnRows(rows)

	var out upload.Task
	if err := store.Get(context.Background(), &out, orm.Where("id=?", "t1")); err != nil {
		t.Fatal(err)
	}
	if out.Status != upload.StatusPending || out.RemoteKey != "2024-05-01/pothole_1.avi" {
		t.Fatalf("unexpected task: %+v", out)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal("ExpectationsWereMet err:", err)
	}
}

func TestTaskCount(t *testing.T) {
	db, mock, err := generateMockDB()
	if err != nil {
		t.Fatal(err)
	}
	store := NewTask(db)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "upload_tasks" WHERE status = \$1`).
		WithArgs(upload.StatusPending).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	n, err := store.Count(context.Background(), orm.Where("status = ?", upload.StatusPending))
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Fatalf("count = %d", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal("ExpectationsWereMet err:", err)
	}
}
