package data

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/glebarez/sqlite"
	"github.com/google/wire"
	"github.com/gowvp/pothole/internal/conf"
	"github.com/ixugo/goddd/pkg/orm"
	"github.com/ixugo/goddd/pkg/system"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// ProviderSet is data providers.
var ProviderSet = wire.NewSet(SetupDB)

// SetupDB 初始化数据存储
// 设备端默认使用 sqlite，片段与上传任务记录都在本地
func SetupDB(c *conf.Bootstrap) (*gorm.DB, error) {
	cfg := c.Data.Database
	dial, path := getDialector(cfg.Dsn)
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
		// sqlite 单写，多连接只会带来 database is locked
		cfg.MaxIdleConns = 1
		cfg.MaxOpenConns = 1
	}
	// 设备端首次启动即是空库，表结构随版本同步
	orm.SetEnabledAutoMigrate(true)
	return orm.New(dial, orm.Config{
		MaxIdleConns:    int(cfg.MaxIdleConns),
		MaxOpenConns:    int(cfg.MaxOpenConns),
		ConnMaxLifetime: cfg.ConnMaxLifetime.Duration(),
		SlowThreshold:   cfg.SlowThreshold.Duration(),
	})
}

// getDialector 返回 dial，sqlite 时同时返回数据库文件路径
func getDialector(dsn string) (gorm.Dialector, string) {
	switch {
	case strings.HasPrefix(dsn, "postgres"):
		return postgres.New(postgres.Config{
			DriverName: "pgx",
			DSN:        dsn,
		}), ""
	case strings.HasPrefix(dsn, "mysql"):
		return mysql.Open(strings.TrimPrefix(dsn, "mysql://")), ""
	default:
		path := dsn
		if !filepath.IsAbs(path) {
			path = filepath.Join(system.Getwd(), dsn)
		}
		return sqlite.Open(path), path
	}
}
