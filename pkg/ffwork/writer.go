package ffwork

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"io"
	"os/exec"
	"strconv"
	"strings"

	"github.com/ixugo/goddd/pkg/queue"
)

// WriterConfig 编码参数
type WriterConfig struct {
	FFmpeg string
	Codec  string // 如 mpeg4
	Tag    string // fourcc，如 XVID
}

// VideoWriter 将一组图像通过 ffmpeg 编码为视频文件
type VideoWriter struct {
	cfg WriterConfig
}

func NewVideoWriter(cfg WriterConfig) *VideoWriter {
	if cfg.FFmpeg == "" {
		cfg.FFmpeg = "ffmpeg"
	}
	if cfg.Codec == "" {
		cfg.Codec = "mpeg4"
	}
	return &VideoWriter{cfg: cfg}
}

func (w *VideoWriter) buildArgs(path string, width, height, fps int) []string {
	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-y",
		"-f", "rawvideo",
		"-pix_fmt", "rgba",
		"-s", fmt.Sprintf("%dx%d", width, height),
		"-r", strconv.Itoa(fps),
		"-i", "pipe:0",
		"-c:v", w.cfg.Codec,
	}
	if w.cfg.Tag != "" {
		args = append(args, "-vtag", w.cfg.Tag)
	}
	args = append(args, "-pix_fmt", "yuv420p", path)
	return args
}

// Encode 按首帧尺寸编码，尺寸不同的帧会被裁剪或补黑
func (w *VideoWriter) Encode(ctx context.Context, path string, fps int, frames []image.Image) error {
	if len(frames) == 0 {
		return errors.New("no frames to encode")
	}
	if fps <= 0 {
		return fmt.Errorf("invalid fps: %d", fps)
	}
	b := frames[0].Bounds()
	width, height := b.Dx(), b.Dy()
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid resolution: %dx%d", width, height)
	}

	cmd := exec.CommandContext(ctx, w.cfg.FFmpeg, w.buildArgs(path, width, height, fps)...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("failed to get stdin pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("failed to get stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	logs := queue.NewCirQueue[string](20)
	done := make(chan struct{})
	go func() {
		defer close(done)
		scan := bufio.NewScanner(stderr)
		for scan.Scan() {
			logs.Push(scan.Text())
		}
	}()

	writeErr := writeFrames(stdin, frames, width, height)
	_ = stdin.Close()
	<-done
	waitErr := cmd.Wait()

	if err := errors.Join(writeErr, waitErr); err != nil {
		return fmt.Errorf("ffmpeg encode %s: %w: %s", path, err, strings.Join(logs.Range(), "; "))
	}
	return nil
}

func writeFrames(dst io.Writer, frames []image.Image, width, height int) error {
	bw := bufio.NewWriterSize(dst, width*height*4)
	for _, f := range frames {
		if _, err := bw.Write(ToRGBA(f, width, height).Pix); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ToRGBA 返回 width x height 的 RGBA 图像，尺寸与类型一致时不复制
func ToRGBA(src image.Image, width, height int) *image.RGBA {
	if rgba, ok := src.(*image.RGBA); ok {
		b := rgba.Bounds()
		if b.Min == (image.Point{}) && b.Dx() == width && b.Dy() == height && rgba.Stride == width*4 {
			return rgba
		}
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
	return dst
}
