package api

import (
	"fmt"
	"image"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/wire"
	"github.com/gowvp/pothole/internal/adapter/cosadapter"
	"github.com/gowvp/pothole/internal/adapter/s3adapter"
	"github.com/gowvp/pothole/internal/conf"
	"github.com/gowvp/pothole/internal/core/clip"
	"github.com/gowvp/pothole/internal/core/clip/store/clipdb"
	"github.com/gowvp/pothole/internal/core/position"
	"github.com/gowvp/pothole/internal/core/upload"
	"github.com/gowvp/pothole/internal/core/upload/store/uploaddb"
	"github.com/gowvp/pothole/pkg/ffwork"
	"github.com/ixugo/goddd/pkg/orm"
	"gorm.io/gorm"
)

var ProviderSet = wire.NewSet(
	wire.Struct(new(Usecase), "*"),
	NewHTTPHandler,
	NewClipStore, NewClipCore, NewClipAPI,
	NewUploadStore, NewObjectStorer, NewProber, NewUploadCore, NewUploadAPI,
	position.NewFeed, wire.Bind(new(position.Reader), new(*position.Feed)), NewPositionAPI,
)

// Monitor 运行中的采集流水线状态
type Monitor interface {
	LatestFrame() image.Image
	PendingClips() int64
	FrameCount() uint64
	CaptureStats() ffwork.Stats
}

type Usecase struct {
	Conf        *conf.Bootstrap
	DB          *gorm.DB
	Monitor     Monitor
	ClipAPI     ClipAPI
	UploadAPI   UploadAPI
	PositionAPI PositionAPI
}

// NewHTTPHandler 生成Gin框架路由内容
func NewHTTPHandler(uc *Usecase) http.Handler {
	if !uc.Conf.Debug {
		gin.SetMode(gin.ReleaseMode)
	}
	g := gin.New()
	setupRouter(g, uc)
	return g
}

func NewClipStore(db *gorm.DB) clip.Storer {
	return clipdb.NewDB(db).AutoMigrate(orm.GetEnabledAutoMigrate())
}

// NewClipCore 过期记录清理一并删除已完成的上传任务
func NewClipCore(store clip.Storer, bc *conf.Bootstrap, uploads *upload.Core) clip.Core {
	return clip.NewCore(store, bc.Clip.OutputDir,
		clip.WithCleanup(&bc.Cleanup),
		clip.WithTaskPurger(uploads),
	)
}

func NewUploadStore(db *gorm.DB) upload.Storer {
	return uploaddb.NewDB(db).AutoMigrate(orm.GetEnabledAutoMigrate())
}

// NewObjectStorer 按 driver 选择对象存储实现
func NewObjectStorer(bc *conf.Bootstrap) (upload.ObjectStorer, error) {
	switch bc.Upload.Driver {
	case "cos":
		s, err := cosadapter.NewStorage(&bc.Upload)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "s3", "":
		s, err := s3adapter.NewStorage(&bc.Upload)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown upload driver %q", bc.Upload.Driver)
	}
}

func NewProber(bc *conf.Bootstrap) upload.Prober {
	return upload.NewHTTPProber(bc.Upload.ProbeURL, bc.Upload.ProbeTimeout.Duration())
}

func NewUploadCore(store upload.Storer, objects upload.ObjectStorer, prober upload.Prober, bc *conf.Bootstrap) *upload.Core {
	return upload.NewCore(store, objects, prober, upload.WithBackoff(bc.Upload.Backoff.Duration()))
}
