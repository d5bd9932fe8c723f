package clip

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ixugo/goddd/pkg/conc"
)

// ErrNoFrame 还没有收到任何画面
var ErrNoFrame = errors.New("clip: no frame captured yet")

// FrameSource 提供最近一帧画面
type FrameSource interface {
	LatestFrame() image.Image
}

// Calibrator 定时上传最新画面，安装时据此调整摄像头角度
type Calibrator struct {
	root     string
	source   FrameSource
	uploader Uploader
	quality  int
	now      func() time.Time
	log      *slog.Logger
}

func NewCalibrator(root string, source FrameSource, uploader Uploader) *Calibrator {
	return &Calibrator{
		root:     root,
		source:   source,
		uploader: uploader,
		quality:  jpeg.DefaultQuality,
		now:      time.Now,
		log:      slog.With("component", "calibrator"),
	}
}

// Start 按 interval 周期上传，interval 为 0 时直接返回
func (c *Calibrator) Start(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		c.log.Info("calibration upload disabled")
		return
	}
	conc.Timer(ctx, interval, interval, func() {
		if _, err := c.Capture(ctx); err != nil && !errors.Is(err, ErrNoFrame) {
			c.log.Warn("calibration capture", "err", err)
		}
	})
}

// Capture 保存最新画面到 <root>/<date>/calibration 并提交上传，返回本地路径
func (c *Calibrator) Capture(ctx context.Context) (string, error) {
	img := c.source.LatestFrame()
	if img == nil {
		return "", ErrNoFrame
	}
	now := c.now()
	date := now.Format(time.DateOnly)
	dir := filepath.Join(c.root, date, "calibration")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("%w: mkdir %s: %w", ErrLocalWrite, dir, err)
	}
	name := "calib_" + strconv.FormatInt(now.Unix(), 10) + ".jpg"
	path := filepath.Join(dir, name)
	if err := writeJPEG(path, img, c.quality); err != nil {
		return "", err
	}
	if c.uploader != nil {
		c.uploader.Submit(ctx, path, date+"/calibration/"+name, "")
	}
	return path, nil
}
