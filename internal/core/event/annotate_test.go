package event

import (
	"image"
	"image/color"
	"testing"
	"time"
)

func TestAnnotateLeavesSourceUntouched(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 100, 100))
	dets := []Detection{{Label: "pothole", Box: DetectionBox{XMin: 0.1, YMin: 0.1, XMax: 0.5, YMax: 0.5, Confidence: 0.42}}}

	dst := Annotate(src, dets)
	for _, v := range src.Pix {
		if v != 0 {
			t.Fatal("source image modified")
		}
	}
	if got := dst.RGBAAt(10, 45); got != boxColor {
		t.Fatalf("left edge pixel = %v, want %v", got, boxColor)
	}
	if got := dst.RGBAAt(30, 45); got != (color.RGBA{}) {
		t.Fatalf("box interior should stay empty, got %v", got)
	}
}

func TestAnnotateWithoutDetections(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 16, 16))
	src.Pix[0] = 200
	dst := Annotate(src, nil)
	if dst == src {
		t.Fatal("annotate must return a copy")
	}
	if dst.Pix[0] != 200 {
		t.Fatal("copy lost pixel data")
	}
}

func TestAnnotateClipsOutOfBoundsBox(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 20, 20))
	dets := []Detection{{Label: "pothole", Box: DetectionBox{XMin: -0.5, YMin: 0.5, XMax: 1.5, YMax: 2, Confidence: 1}}}
	// 越界坐标不应 panic
	_ = Annotate(src, dets)
}

func TestMaxConfidence(t *testing.T) {
	r := NewFrameRecord(nil, nil, []Detection{
		{Box: DetectionBox{Confidence: 0.3}},
		{Box: DetectionBox{Confidence: 0.8}},
	}, time.Time{})
	if v, ok := r.MaxConfidence(); !ok || v != 0.8 {
		t.Fatalf("got %v %v", v, ok)
	}
	if _, ok := (FrameRecord{}).MaxConfidence(); ok {
		t.Fatal("empty record should report no confidence")
	}
}
