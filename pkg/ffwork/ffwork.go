// Package ffwork 通过 ffmpeg 子进程读写原始视频帧
package ffwork

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ixugo/goddd/pkg/queue"
)

type (
	Config struct {
		Input        string // rtsp 地址、本地设备或文件
		Width        int
		Height       int
		FPS          int
		Transport    string
		HWAccel      string
		FFmpeg       string
		UseWallClock bool
		Name         string
	}
	// Frame 一帧 RGBA 图像
	Frame struct {
		Num       uint64
		Timestamp time.Time
		Image     *image.RGBA
	}
	FrameCapture struct {
		config    Config
		frameSize int
		frameCh   chan *Frame
		errCh     chan error
		ctx       context.Context
		cancel    context.CancelFunc
		m         sync.Mutex
		started   bool
		cmd       *exec.Cmd
		lastFrame time.Time
		wg        sync.WaitGroup
		ffmpegLog *queue.CirQueue[string]

		frameCount, skipCount atomic.Uint64
	}
	Stats struct {
		Name                  string
		FrameCount, SkipCount uint64
		LastFrame             time.Time
		FrameSize             int
		IsRunning             bool
	}
)

// ErrStreamEnded ffmpeg 输出结束
var ErrStreamEnded = errors.New("ffmpeg stream ended")

func NewFrameCapture(cfg Config) (*FrameCapture, error) {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("invalid resolution: %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.FPS <= 0 {
		return nil, fmt.Errorf("invalid fps: %d", cfg.FPS)
	}
	if cfg.Input == "" {
		return nil, fmt.Errorf("capture input is required")
	}
	if cfg.Transport == "" {
		cfg.Transport = "tcp"
	}
	if cfg.FFmpeg == "" {
		cfg.FFmpeg = "ffmpeg"
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &FrameCapture{
		config:    cfg,
		frameSize: cfg.Width * cfg.Height * 3,
		frameCh:   make(chan *Frame, 10),
		errCh:     make(chan error, 1),
		ctx:       ctx,
		cancel:    cancel,
		ffmpegLog: queue.NewCirQueue[string](100),
	}, nil
}

func (fc *FrameCapture) buildFFmpegArgs() []string {
	args := []string{
		"-hide_banner",
		"-loglevel", "warning",
		"-threads", "2",
	}
	input := fc.config.Input
	switch {
	case strings.HasPrefix(input, "rtsp://"), strings.HasPrefix(input, "rtsps://"):
		args = append(args,
			"-avoid_negative_ts", "make_zero",
			"-fflags", "+genpts+discardcorrupt",
			"-rtsp_transport", fc.config.Transport,
			"-timeout", "10000000",
		)
	case strings.HasPrefix(input, "/dev/video"):
		args = append(args, "-f", "v4l2")
	}
	if fc.config.UseWallClock {
		args = append(args, "-use_wallclock_as_timestamps", "1")
	}
	if fc.config.HWAccel != "" {
		args = append(args, "-hwaccel", fc.config.HWAccel)
	}
	args = append(args, "-i", input)

	args = append(args,
		"-f", "rawvideo",
		"-pix_fmt", "rgb24",
		"-r", strconv.Itoa(fc.config.FPS),
		"-vf", fmt.Sprintf("fps=%d,scale=%d:%d", fc.config.FPS, fc.config.Width, fc.config.Height),
		"pipe:1",
	)
	return args
}

func (fc *FrameCapture) Start() error {
	fc.m.Lock()
	defer fc.m.Unlock()
	if fc.started {
		return fmt.Errorf("frame capture already started")
	}

	fc.cmd = exec.CommandContext(fc.ctx, fc.config.FFmpeg, fc.buildFFmpegArgs()...)
	stdout, err := fc.cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to get stdout pipe: %w", err)
	}
	stderr, err := fc.cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to get stderr pipe: %w", err)
	}
	if err := fc.cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}
	fc.started = true
	fc.lastFrame = time.Now()

	fc.wg.Go(func() { fc.captureLoop(stdout) })
	fc.wg.Go(func() { fc.readStderr(stderr) })
	return nil
}

// captureLoop 按固定帧大小读取 rgb24 数据
// 消费方处理不过来时丢弃新帧，避免管道阻塞导致 ffmpeg 断流
func (fc *FrameCapture) captureLoop(stdout io.Reader) {
	defer close(fc.frameCh)

	reader := bufio.NewReaderSize(stdout, fc.frameSize*2)
	buf := make([]byte, fc.frameSize)
	for {
		if fc.ctx.Err() != nil {
			return
		}
		if _, err := io.ReadFull(reader, buf); err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
				err = fmt.Errorf("%w: %w", ErrStreamEnded, err)
			} else {
				err = fmt.Errorf("failed to read frame: %w", err)
			}
			select {
			case fc.errCh <- err:
			default:
			}
			return
		}

		now := time.Now()
		fc.m.Lock()
		fc.lastFrame = now
		fc.m.Unlock()

		frame := Frame{
			Num:       fc.frameCount.Add(1),
			Timestamp: now,
			Image:     RGB24ToRGBA(buf, fc.config.Width, fc.config.Height),
		}
		select {
		case fc.frameCh <- &frame:
		case <-fc.ctx.Done():
			return
		default:
			fc.skipCount.Add(1)
		}
	}
}

// RGB24ToRGBA 将紧凑排列的 rgb24 数据转换为 RGBA 图像
func RGB24ToRGBA(data []byte, width, height int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	n := min(len(data)/3, width*height)
	for i := range n {
		img.Pix[i*4] = data[i*3]
		img.Pix[i*4+1] = data[i*3+1]
		img.Pix[i*4+2] = data[i*3+2]
		img.Pix[i*4+3] = 0xff
	}
	return img
}

func (fc *FrameCapture) readStderr(stderr io.Reader) {
	scan := bufio.NewScanner(stderr)
	for scan.Scan() {
		fc.ffmpegLog.Push(scan.Text())
	}
}

func (fc *FrameCapture) Frames() <-chan *Frame {
	return fc.frameCh
}

func (fc *FrameCapture) Error() <-chan error {
	return fc.errCh
}

// Log 最近的 ffmpeg 输出
func (fc *FrameCapture) Log() []string {
	return fc.ffmpegLog.Range()
}

func (fc *FrameCapture) Stop() error {
	fc.m.Lock()
	if !fc.started {
		fc.m.Unlock()
		return nil
	}
	fc.started = false
	fc.m.Unlock()

	fc.cancel()
	fc.wg.Wait()

	if fc.cmd != nil && fc.cmd.Process != nil {
		done := make(chan error, 1)
		go func() {
			done <- fc.cmd.Wait()
		}()

		select {
		case <-time.After(5 * time.Second):
			if err := fc.cmd.Process.Kill(); err != nil {
				return fmt.Errorf("failed to kill ffmpeg: %w", err)
			}
			<-done
		case <-done:
		}
	}
	return nil
}

// GetStats 采集计数，SkipCount 为消费方处理不过来时丢弃的帧
func (fc *FrameCapture) GetStats() Stats {
	fc.m.Lock()
	defer fc.m.Unlock()
	return Stats{
		Name:       fc.config.Name,
		FrameCount: fc.frameCount.Load(),
		SkipCount:  fc.skipCount.Load(),
		LastFrame:  fc.lastFrame,
		FrameSize:  fc.frameSize,
		IsRunning:  fc.started,
	}
}
