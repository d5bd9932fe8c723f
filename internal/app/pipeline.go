package app

import (
	"context"
	"image"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/gowvp/pothole/internal/conf"
	"github.com/gowvp/pothole/internal/core/clip"
	"github.com/gowvp/pothole/internal/core/event"
	"github.com/gowvp/pothole/pkg/ffwork"
)

const (
	captureRestartDelay = 5 * time.Second
	detectErrLogEvery   = 10 * time.Second
)

// Detector 单帧推理
type Detector interface {
	Detect(ctx context.Context, img image.Image) ([]event.Detection, error)
}

// Pipeline 采集 -> 推理 -> 录制，全部在 Run 所在协程顺序执行
type Pipeline struct {
	capture    ffwork.Config
	detector   Detector
	recorder   *event.Recorder
	dispatcher *clip.Dispatcher
	drain      time.Duration
	restart    time.Duration
	log        *slog.Logger

	current       atomic.Pointer[ffwork.FrameCapture]
	frames        atomic.Uint64
	lastDetectErr time.Time
}

func NewPipeline(bc *conf.Bootstrap, detector Detector, rec *event.Recorder, d *clip.Dispatcher) (*Pipeline, error) {
	cfg := ffwork.Config{
		Input:     bc.Capture.Input,
		Width:     bc.Capture.Width,
		Height:    bc.Capture.Height,
		FPS:       bc.Capture.FPS,
		Transport: bc.Capture.Transport,
		HWAccel:   bc.Capture.HWAccel,
		FFmpeg:    bc.Clip.FFmpeg,
		Name:      "camera",
	}
	// 提前校验采集参数，配置错误时启动即失败
	if _, err := ffwork.NewFrameCapture(cfg); err != nil {
		return nil, err
	}
	return &Pipeline{
		capture:    cfg,
		detector:   detector,
		recorder:   rec,
		dispatcher: d,
		drain:      bc.Clip.DrainTimeout.Duration(),
		restart:    captureRestartDelay,
		log:        slog.With("component", "pipeline"),
	}, nil
}

// Run 阻塞到 ctx 结束，采集中断后自动重启 ffmpeg
// 返回前交付进行中的事件，并等待片段落盘
func (p *Pipeline) Run(ctx context.Context) error {
	defer p.shutdown()
	for {
		fc, err := ffwork.NewFrameCapture(p.capture)
		if err != nil {
			return err
		}
		p.current.Store(fc)
		if err := fc.Start(); err != nil {
			p.log.Error("start capture", "err", err)
		} else {
			p.log.Info("capture started", "input", p.capture.Input)
			err := p.consume(ctx, fc.Frames(), fc.Error())
			_ = fc.Stop()
			if ctx.Err() != nil {
				return nil
			}
			p.log.Error("capture stopped, restart later", "err", err, "ffmpeg", fc.Log())
			// 画面中断期间的检测结果不可信，结束当前事件
			p.recorder.Flush()
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(p.restart):
		}
	}
}

func (p *Pipeline) consume(ctx context.Context, frames <-chan *ffwork.Frame, errs <-chan error) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errs:
			return err
		case f, ok := <-frames:
			if !ok {
				return ffwork.ErrStreamEnded
			}
			p.process(ctx, f)
		}
	}
}

// process 推理失败时按无检测处理，不中断采集
func (p *Pipeline) process(ctx context.Context, f *ffwork.Frame) {
	p.frames.Add(1)
	dets, err := p.detector.Detect(ctx, f.Image)
	if err != nil {
		if ctx.Err() == nil && time.Since(p.lastDetectErr) > detectErrLogEvery {
			p.lastDetectErr = time.Now()
			p.log.Warn("detect frame", "frame", f.Num, "err", err)
		}
		dets = nil
	}
	p.recorder.OnFrame(f.Image, dets)
}

func (p *Pipeline) shutdown() {
	p.recorder.Close()
	if !p.dispatcher.Wait(p.drain) {
		p.log.Warn("clips not finalized before drain timeout", "timeout", p.drain)
		return
	}
	p.log.Info("pipeline stopped", "frames", p.frames.Load())
}

func (p *Pipeline) LatestFrame() image.Image {
	return p.recorder.LatestFrame()
}

func (p *Pipeline) PendingClips() int64 {
	return p.dispatcher.Pending()
}

func (p *Pipeline) FrameCount() uint64 {
	return p.frames.Load()
}

// CaptureStats 当前 ffmpeg 进程的采集计数，重启后从零开始
func (p *Pipeline) CaptureStats() ffwork.Stats {
	fc := p.current.Load()
	if fc == nil {
		return ffwork.Stats{Name: p.capture.Name}
	}
	return fc.GetStats()
}
