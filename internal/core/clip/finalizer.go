package clip

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gowvp/pothole/internal/conf"
	"github.com/gowvp/pothole/internal/core/event"
	"github.com/gowvp/pothole/internal/core/position"
	"github.com/ixugo/goddd/pkg/orm"
	"github.com/jinzhu/copier"
)

// VideoEncoder 按顺序将帧编码为视频文件
type VideoEncoder interface {
	Encode(ctx context.Context, path string, fps int, frames []image.Image) error
}

// Uploader 接收待上传文件，调用方不等待上传结果
type Uploader interface {
	Submit(ctx context.Context, localPath, remoteKey, clipID string)
}

// Finalizer 将结束的事件落盘并提交上传
type Finalizer struct {
	root     string
	prefix   string
	fps      int
	videoExt string
	quality  int

	encoder  VideoEncoder
	uploader Uploader
	position position.Reader
	store    Storer
	now      func() time.Time
	log      *slog.Logger

	mu  sync.Mutex
	sec int64
	seq int
}

type FinalizerOption func(*Finalizer)

func WithEncoder(enc VideoEncoder) FinalizerOption {
	return func(f *Finalizer) { f.encoder = enc }
}

func WithUploader(up Uploader) FinalizerOption {
	return func(f *Finalizer) { f.uploader = up }
}

func WithPosition(r position.Reader) FinalizerOption {
	return func(f *Finalizer) { f.position = r }
}

// WithStore 保存片段记录，不设置时只落盘
func WithStore(store Storer) FinalizerOption {
	return func(f *Finalizer) { f.store = store }
}

func WithClock(now func() time.Time) FinalizerOption {
	return func(f *Finalizer) { f.now = now }
}

// NewFinalizer 未设置的选项使用配置中的值
func NewFinalizer(cfg *conf.Clip, opts ...FinalizerOption) *Finalizer {
	f := Finalizer{
		root:     cfg.OutputDir,
		prefix:   cfg.Prefix,
		fps:      cfg.FPS,
		videoExt: cfg.VideoExt,
		quality:  cfg.JPEGQuality,
		now:      time.Now,
		log:      slog.With("component", "finalizer"),
	}
	if f.prefix == "" {
		f.prefix = "pothole"
	}
	if f.fps <= 0 {
		f.fps = 30
	}
	if f.videoExt == "" {
		f.videoExt = "avi"
	}
	if f.quality <= 0 || f.quality > 100 {
		f.quality = jpeg.DefaultQuality
	}
	for _, opt := range opts {
		opt(&f)
	}
	return &f
}

// Finalize 编码视频，写入最佳帧与元数据，并按 视频、元数据、原图、标注图 的顺序提交上传
// 视频失败时删除残留文件并放弃整个片段，其余产物相互独立
func (f *Finalizer) Finalize(ctx context.Context, buf event.Buffer) (*Clip, error) {
	if len(buf) == 0 {
		return nil, ErrEmptyEvent
	}

	now, base := f.reserve()
	date := now.Format(time.DateOnly)
	dir := filepath.Join(f.root, date)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%w: mkdir %s: %w", ErrLocalWrite, dir, err)
	}
	log := f.log.With("clip", base, "frames", len(buf))

	videoName := base + "." + f.videoExt
	videoPath := filepath.Join(dir, videoName)
	frames := make([]image.Image, len(buf))
	for i := range buf {
		frames[i] = buf[i].Annotated
	}
	if f.encoder == nil {
		return nil, fmt.Errorf("%w: no encoder", ErrEncode)
	}
	if err := f.encoder.Encode(ctx, videoPath, f.fps, frames); err != nil {
		_ = os.Remove(videoPath)
		log.Error("encode video failed, clip dropped", "err", err)
		return nil, fmt.Errorf("%w: %w", ErrEncode, err)
	}
	log.Info("saved video", "name", videoName)

	var cleanName, annotatedName string
	bestIdx, ok := SelectBest(buf)
	if ok {
		best := buf[bestIdx]
		name := base + "_best_clean.jpg"
		if err := writeJPEG(filepath.Join(dir, name), best.Clean, f.quality); err != nil {
			log.Error("save clean best frame", "err", err)
		} else {
			cleanName = name
		}
		name = base + "_best.jpg"
		if err := writeJPEG(filepath.Join(dir, name), best.Annotated, f.quality); err != nil {
			log.Error("save annotated best frame", "err", err)
		} else {
			annotatedName = name
		}
	} else {
		bestIdx = -1
		log.Info("no detection in event, best frame skipped")
	}

	meta := f.metadata(buf, now, date, videoName)
	metaName := base + ".json"
	if err := writeJSON(filepath.Join(dir, metaName), meta); err != nil {
		log.Error("save metadata", "err", err)
		metaName = ""
	}

	var out Clip
	if err := copier.Copy(&out, &meta); err != nil {
		log.Error("Copy", "err", err)
	}
	out.ID = uuid.NewString()
	out.BaseName = base
	out.Date = date
	out.Dir = dir
	out.Key = meta.S3Key
	out.Duration = meta.DurationS
	out.BestIndex = bestIdx
	out.Lat, out.Lon = meta.GPS.Lat, meta.GPS.Lon
	out.CapturedAt = orm.Time{Time: now}
	out.CreatedAt = orm.Now()
	for _, name := range []string{videoName, metaName, cleanName, annotatedName} {
		if name != "" {
			out.Files = append(out.Files, name)
		}
	}

	if f.store != nil {
		if err := f.store.Clip().Add(context.WithoutCancel(ctx), &out); err != nil {
			log.Warn("save clip record", "err", err)
		}
	}

	if f.uploader != nil {
		for _, name := range out.Files {
			f.uploader.Submit(ctx, filepath.Join(dir, name), date+"/"+name, out.ID)
		}
	}
	return &out, nil
}

// reserve 生成基于秒级时间戳的文件名，同一秒内的多个片段追加序号
func (f *Finalizer) reserve() (time.Time, string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.now()
	sec := now.Unix()
	if sec == f.sec {
		f.seq++
	} else {
		f.sec, f.seq = sec, 0
	}
	for {
		base := fmt.Sprintf("%s_%d", f.prefix, sec)
		if f.seq > 0 {
			base = fmt.Sprintf("%s_%d", base, f.seq)
		}
		// 时钟回拨或重启后可能与已有文件重名
		video := filepath.Join(f.root, now.Format(time.DateOnly), base+"."+f.videoExt)
		if _, err := os.Stat(video); errors.Is(err, os.ErrNotExist) {
			return now, base
		}
		f.seq++
	}
}

func (f *Finalizer) metadata(buf event.Buffer, now time.Time, date, videoName string) Metadata {
	var pos position.Snapshot
	if f.position != nil {
		pos = f.position.Snapshot()
	}
	// 置信度与检测框只取首帧
	first := buf[0]
	maxConf, _ := first.MaxConfidence()
	boxes := first.Boxes
	if boxes == nil {
		boxes = []event.DetectionBox{}
	}
	return Metadata{
		Timestamp:  now.Unix(),
		CapturedAt: now.Format(time.RFC3339),
		GPS:        GPS{Lat: pos.Lat, Lon: pos.Lon},
		NMEARaw:    pos.Raw,
		Confidence: maxConf,
		BBoxes:     boxes,
		VideoName:  videoName,
		S3Key:      date + "/" + videoName,
		FrameCount: len(buf),
		DurationS:  Duration(len(buf), f.fps),
	}
}

func writeJPEG(path string, img image.Image, quality int) error {
	if img == nil {
		return fmt.Errorf("%w: %s: nil image", ErrLocalWrite, path)
	}
	return writeFile(path, func(w *os.File) error {
		return jpeg.Encode(w, img, &jpeg.Options{Quality: quality})
	})
}

func writeJSON(path string, v any) error {
	return writeFile(path, func(w *os.File) error {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	})
}

// writeFile 写入失败时删除不完整的文件
func writeFile(path string, fn func(*os.File) error) error {
	w, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLocalWrite, err)
	}
	err = fn(w)
	if cerr := w.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return fmt.Errorf("%w: %s: %w", ErrLocalWrite, path, err)
	}
	return nil
}
