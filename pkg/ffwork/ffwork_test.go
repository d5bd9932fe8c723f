package ffwork

import (
	"context"
	"image"
	"image/color"
	"path/filepath"
	"slices"
	"testing"
)

func TestCaptureArgs(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  []string
		not   []string
	}{
		{name: "rtsp", input: "rtsp://cam/stream", want: []string{"-rtsp_transport", "tcp"}, not: []string{"v4l2"}},
		{name: "v4l2", input: "/dev/video0", want: []string{"-f", "v4l2"}, not: []string{"-rtsp_transport"}},
		{name: "file", input: "road.mp4", not: []string{"-rtsp_transport", "v4l2"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			fc, err := NewFrameCapture(Config{Input: tc.input, Width: 640, Height: 480, FPS: 30})
			if err != nil {
				t.Fatal(err)
			}
			args := fc.buildFFmpegArgs()
			for _, w := range tc.want {
				if !slices.Contains(args, w) {
					t.Errorf("missing %q in %v", w, args)
				}
			}
			for _, n := range tc.not {
				if slices.Contains(args, n) {
					t.Errorf("unexpected %q in %v", n, args)
				}
			}
			i := slices.Index(args, "-i")
			if i < 0 || args[i+1] != tc.input {
				t.Errorf("input not passed: %v", args)
			}
			if args[len(args)-1] != "pipe:1" || !slices.Contains(args, "rgb24") {
				t.Errorf("output = %v", args)
			}
			if st := fc.GetStats(); st.FrameSize != 640*480*3 || st.IsRunning {
				t.Errorf("stats = %+v", st)
			}
		})
	}
}

func TestNewFrameCaptureValidation(t *testing.T) {
	bad := []Config{
		{Input: "x", Width: 0, Height: 480, FPS: 30},
		{Input: "x", Width: 640, Height: 480, FPS: 0},
		{Width: 640, Height: 480, FPS: 30},
	}
	for _, cfg := range bad {
		if _, err := NewFrameCapture(cfg); err == nil {
			t.Errorf("expected error for %+v", cfg)
		}
	}
}

func TestRGB24ToRGBA(t *testing.T) {
	data := []byte{255, 0, 0, 0, 255, 0, 0, 0, 255, 10, 20, 30}
	img := RGB24ToRGBA(data, 2, 2)
	want := []color.RGBA{{255, 0, 0, 255}, {0, 255, 0, 255}, {0, 0, 255, 255}, {10, 20, 30, 255}}
	for i, c := range want {
		if got := img.RGBAAt(i%2, i/2); got != c {
			t.Errorf("pixel %d = %v, want %v", i, got, c)
		}
	}
}

func TestWriterArgs(t *testing.T) {
	w := NewVideoWriter(WriterConfig{Tag: "XVID"})
	args := w.buildArgs("/tmp/a.avi", 1280, 720, 30)
	expect := []struct{ flag, value string }{
		{"-s", "1280x720"},
		{"-r", "30"},
		{"-c:v", "mpeg4"},
		{"-vtag", "XVID"},
		{"-i", "pipe:0"},
	}
	for _, e := range expect {
		i := slices.Index(args, e.flag)
		if i < 0 || args[i+1] != e.value {
			t.Errorf("%s = %v", e.flag, args)
		}
	}
	if args[len(args)-1] != "/tmp/a.avi" {
		t.Errorf("output = %s", args[len(args)-1])
	}

	noTag := NewVideoWriter(WriterConfig{Codec: "libx264"}).buildArgs("a.mp4", 2, 2, 1)
	if slices.Contains(noTag, "-vtag") {
		t.Errorf("unexpected vtag: %v", noTag)
	}
}

func TestToRGBA(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	if ToRGBA(src, 4, 4) != src {
		t.Fatal("same size rgba should not be copied")
	}

	gray := image.NewGray(image.Rect(0, 0, 2, 2))
	gray.SetGray(1, 1, color.Gray{Y: 200})
	out := ToRGBA(gray, 4, 4)
	if out.Bounds().Dx() != 4 || out.RGBAAt(1, 1) != (color.RGBA{200, 200, 200, 255}) {
		t.Fatalf("converted = %v", out.RGBAAt(1, 1))
	}
	if out.RGBAAt(3, 3).A != 0 {
		t.Fatal("padding should stay empty")
	}
}

func TestEncodeErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a.avi")
	w := NewVideoWriter(WriterConfig{FFmpeg: filepath.Join(t.TempDir(), "no-ffmpeg")})
	if err := w.Encode(context.Background(), path, 30, nil); err == nil {
		t.Fatal("expected error for empty frames")
	}
	frames := []image.Image{image.NewRGBA(image.Rect(0, 0, 2, 2))}
	if err := w.Encode(context.Background(), path, 0, frames); err == nil {
		t.Fatal("expected error for fps 0")
	}
	if err := w.Encode(context.Background(), path, 30, frames); err == nil {
		t.Fatal("expected error when ffmpeg is missing")
	}
}
