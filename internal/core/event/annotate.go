package event

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var (
	boxColor  = color.RGBA{0, 255, 0, 255}
	textColor = color.RGBA{255, 0, 0, 255}
)

const boxThickness = 2

// Annotate 复制 src 并绘制检测框与最大置信度，不修改 src
func Annotate(src image.Image, dets []Detection) *image.RGBA {
	dst := cloneRGBA(src)
	if len(dets) == 0 {
		return dst
	}

	b := dst.Bounds()
	w, h := float64(b.Dx()), float64(b.Dy())
	best := 0.0
	for _, d := range dets {
		rect := image.Rect(
			b.Min.X+int(d.Box.XMin*w), b.Min.Y+int(d.Box.YMin*h),
			b.Min.X+int(d.Box.XMax*w), b.Min.Y+int(d.Box.YMax*h),
		)
		strokeRect(dst, rect, boxColor, boxThickness)
		best = max(best, d.Box.Confidence)
	}

	drawer := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(textColor),
		Face: basicfont.Face7x13,
		Dot:  fixed.P(b.Min.X+10, b.Min.Y+30),
	}
	drawer.DrawString(fmt.Sprintf("Conf: %.2f", best))
	return dst
}

// cloneRGBA 深拷贝为 RGBA，保证标注图与原图互不影响
func cloneRGBA(src image.Image) *image.RGBA {
	dst := image.NewRGBA(src.Bounds())
	draw.Draw(dst, dst.Bounds(), src, src.Bounds().Min, draw.Src)
	return dst
}

// strokeRect 绘制空心矩形，超出画布的部分被裁剪
func strokeRect(dst *image.RGBA, r image.Rectangle, c color.Color, thickness int) {
	r = r.Canon()
	u := image.NewUniform(c)
	edges := []image.Rectangle{
		image.Rect(r.Min.X, r.Min.Y, r.Max.X, r.Min.Y+thickness),
		image.Rect(r.Min.X, r.Max.Y-thickness, r.Max.X, r.Max.Y),
		image.Rect(r.Min.X, r.Min.Y, r.Min.X+thickness, r.Max.Y),
		image.Rect(r.Max.X-thickness, r.Min.Y, r.Max.X, r.Max.Y),
	}
	for _, e := range edges {
		draw.Draw(dst, e.Intersect(dst.Bounds()), u, image.Point{}, draw.Src)
	}
}
