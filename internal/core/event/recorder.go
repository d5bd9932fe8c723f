package event

import (
	"image"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"
)

// DefaultDetectionTimeout 最后一次检测后持续多久无检测即结束事件
const DefaultDetectionTimeout = 3 * time.Second

// Recorder 事件录制状态机，Idle 与 Recording 两种状态
//
// OnFrame 必须由单一调用方顺序调用，recording、lastDetection、buffer
// 只在该调用路径上读写，因此无需加锁
type Recorder struct {
	sink        Sink
	timeout     time.Duration
	maxFrames   int
	targetClass string
	now         func() time.Time
	log         *slog.Logger

	recording     bool
	lastDetection time.Time
	buffer        Buffer

	latest atomic.Pointer[image.Image]
	closed atomic.Bool
}

type Option func(*Recorder)

// WithTimeout 设置检测超时
func WithTimeout(d time.Duration) Option {
	return func(r *Recorder) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithMaxFrames 单个事件最大帧数，达到后切分，0 表示不限制
func WithMaxFrames(n int) Option {
	return func(r *Recorder) {
		r.maxFrames = max(n, 0)
	}
}

// WithTargetClass 触发录制的类别
func WithTargetClass(class string) Option {
	return func(r *Recorder) {
		if class != "" {
			r.targetClass = class
		}
	}
}

// WithClock 注入时钟，便于测试
func WithClock(now func() time.Time) Option {
	return func(r *Recorder) {
		r.now = now
	}
}

// NewRecorder 创建状态机，初始状态为 Idle
func NewRecorder(sink Sink, opts ...Option) *Recorder {
	r := Recorder{
		sink:        sink,
		timeout:     DefaultDetectionTimeout,
		targetClass: "pothole",
		now:         time.Now,
		log:         slog.With("component", "recorder"),
	}
	for _, opt := range opts {
		opt(&r)
	}
	return &r
}

// OnFrame 处理一帧，返回是否继续接收
func (r *Recorder) OnFrame(frame image.Image, dets []Detection) bool {
	if r.closed.Load() {
		return false
	}
	if emptyFrame(frame) {
		return true
	}
	r.latest.Store(&frame)

	now := r.now()
	detected := r.isDetected(dets)

	switch {
	case detected && !r.recording:
		r.recording = true
		r.lastDetection = now
		r.buffer = make(Buffer, 0, 64)
		r.log.Info("recording started")
		r.append(frame, dets, now)
	case detected:
		r.lastDetection = now
		r.append(frame, dets, now)
	case r.recording && now.Sub(r.lastDetection) > r.timeout:
		r.recording = false
		r.log.Info("detection ended, saving clip", "frames", len(r.buffer))
		r.handoff()
	case r.recording:
		r.append(frame, dets, now)
	}
	return true
}

// Recording 当前是否处于录制状态，只能在 OnFrame 的调用路径上使用
func (r *Recorder) Recording() bool {
	return r.recording
}

// LatestFrame 最近一帧原始画面，可被其它协程读取
func (r *Recorder) LatestFrame() image.Image {
	v := r.latest.Load()
	if v == nil {
		return nil
	}
	return *v
}

// Flush 立即结束正在录制的事件并交付
func (r *Recorder) Flush() {
	if !r.recording {
		return
	}
	r.recording = false
	r.log.Info("flush active event", "frames", len(r.buffer))
	r.handoff()
}

// Close 交付未结束的事件，此后 OnFrame 返回 false
// 与 OnFrame 一样只能在帧处理路径上调用
func (r *Recorder) Close() {
	if r.closed.Swap(true) {
		return
	}
	r.Flush()
}

// emptyFrame 空接口、带类型的 nil 指针与空尺寸的帧都直接忽略
func emptyFrame(img image.Image) bool {
	switch v := img.(type) {
	case nil:
		return true
	case *image.RGBA:
		return v == nil || v.Rect.Empty()
	case *image.NRGBA:
		return v == nil || v.Rect.Empty()
	case *image.YCbCr:
		return v == nil || v.Rect.Empty()
	case *image.Gray:
		return v == nil || v.Rect.Empty()
	default:
		return img.Bounds().Empty()
	}
}

func (r *Recorder) isDetected(dets []Detection) bool {
	for _, d := range dets {
		if strings.EqualFold(d.Label, r.targetClass) {
			return true
		}
	}
	return false
}

func (r *Recorder) append(frame image.Image, dets []Detection, now time.Time) {
	r.buffer = append(r.buffer, NewFrameRecord(frame, Annotate(frame, dets), dets, now))
	if r.maxFrames > 0 && len(r.buffer) >= r.maxFrames {
		r.log.Warn("event reached max frames, splitting clip", "frames", len(r.buffer))
		r.handoff()
		r.buffer = make(Buffer, 0, 64)
	}
}

// handoff 转移缓冲区所有权，交付后本地引用置空
func (r *Recorder) handoff() {
	buf := r.buffer
	r.buffer = nil
	if len(buf) == 0 || r.sink == nil {
		return
	}
	r.sink.Handoff(buf)
}
