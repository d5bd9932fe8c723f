package app

import (
	"net/http"

	"github.com/google/wire"
	"github.com/gowvp/pothole/internal/adapter/inferadapter"
	"github.com/gowvp/pothole/internal/conf"
	"github.com/gowvp/pothole/internal/core/clip"
	"github.com/gowvp/pothole/internal/core/event"
	"github.com/gowvp/pothole/internal/core/position"
	"github.com/gowvp/pothole/internal/core/upload"
	"github.com/gowvp/pothole/internal/web/api"
	"github.com/gowvp/pothole/pkg/ffwork"
)

var ProviderSet = wire.NewSet(
	wire.Struct(new(App), "*"),
	NewDetector, wire.Bind(new(Detector), new(*inferadapter.Client)),
	NewFinalizer, wire.Bind(new(clip.ClipFinalizer), new(*clip.Finalizer)),
	NewDispatcher, NewRecorder,
	NewPipeline, wire.Bind(new(api.Monitor), new(*Pipeline)),
	NewCalibrator,
)

// App 进程内的长期组件
type App struct {
	Conf       *conf.Bootstrap
	Handler    http.Handler
	Pipeline   *Pipeline
	Uploads    *upload.Core
	Clips      clip.Core
	Calibrator *clip.Calibrator
}

func NewDetector(bc *conf.Bootstrap) *inferadapter.Client {
	return inferadapter.NewClient(&bc.Detector)
}

// NewFinalizer 使用 ffmpeg 编码视频，产物交给上传任务
func NewFinalizer(bc *conf.Bootstrap, uploads *upload.Core, pos position.Reader, store clip.Storer) *clip.Finalizer {
	enc := ffwork.NewVideoWriter(ffwork.WriterConfig{
		FFmpeg: bc.Clip.FFmpeg,
		Codec:  bc.Clip.VideoCodec,
		Tag:    bc.Clip.VideoTag,
	})
	return clip.NewFinalizer(&bc.Clip,
		clip.WithEncoder(enc),
		clip.WithUploader(uploads),
		clip.WithPosition(pos),
		clip.WithStore(store),
	)
}

func NewDispatcher(bc *conf.Bootstrap, fin clip.ClipFinalizer) *clip.Dispatcher {
	return clip.NewDispatcher(fin, bc.Clip.MaxConcurrent)
}

func NewRecorder(bc *conf.Bootstrap, d *clip.Dispatcher) *event.Recorder {
	return event.NewRecorder(d,
		event.WithTimeout(bc.Recorder.DetectionTimeout.Duration()),
		event.WithMaxFrames(bc.Recorder.MaxEventFrames),
		event.WithTargetClass(bc.Recorder.TargetClass),
	)
}

func NewCalibrator(bc *conf.Bootstrap, rec *event.Recorder, uploads *upload.Core) *clip.Calibrator {
	return clip.NewCalibrator(bc.Clip.OutputDir, rec, uploads)
}
