// Package inferadapter 调用外部推理服务获取单帧检测结果
package inferadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/jpeg"
	"io"
	"net/http"
	"time"

	"github.com/gowvp/pothole/internal/conf"
	"github.com/gowvp/pothole/internal/core/event"
)

// Detection 推理服务返回的检测对象
type Detection struct {
	Label      string      `json:"label"`      // 物体类别
	Confidence float64     `json:"confidence"` // 置信度 (0.0 - 1.0)
	Box        BoundingBox `json:"box"`        // 像素坐标边界框
	NormBox    *NormBox    `json:"norm_box"`   // 归一化边界框，优先使用
}

// BoundingBox 像素坐标边界框
type BoundingBox struct {
	XMin int `json:"x_min"`
	YMin int `json:"y_min"`
	XMax int `json:"x_max"`
	YMax int `json:"y_max"`
}

// NormBox 归一化边界框
type NormBox struct {
	X float64 `json:"x"` // 中心点 X 坐标
	Y float64 `json:"y"` // 中心点 Y 坐标
	W float64 `json:"w"` // 宽度
	H float64 `json:"h"` // 高度
}

type detectOutput struct {
	Detections []Detection `json:"detections"`
}

// Client 推理服务客户端
type Client struct {
	url    string
	client *http.Client
}

func NewClient(cfg *conf.Detector) *Client {
	timeout := cfg.Timeout.Duration()
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &Client{url: cfg.URL, client: &http.Client{Timeout: timeout}}
}

// Detect 以 jpeg 上传一帧，返回归一化后的检测结果
func (c *Client) Detect(ctx context.Context, img image.Image) ([]event.Detection, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 80}); err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "image/jpeg")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("detect: status %d: %s", resp.StatusCode, body)
	}

	var out detectOutput
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode detections: %w", err)
	}
	b := img.Bounds()
	dets := make([]event.Detection, 0, len(out.Detections))
	for _, d := range out.Detections {
		dets = append(dets, d.toEvent(b.Dx(), b.Dy()))
	}
	return dets, nil
}

func (d Detection) toEvent(w, h int) event.Detection {
	box := event.DetectionBox{Confidence: clamp(d.Confidence)}
	switch {
	case d.NormBox != nil:
		box.XMin = clamp(d.NormBox.X - d.NormBox.W/2)
		box.YMin = clamp(d.NormBox.Y - d.NormBox.H/2)
		box.XMax = clamp(d.NormBox.X + d.NormBox.W/2)
		box.YMax = clamp(d.NormBox.Y + d.NormBox.H/2)
	case w > 0 && h > 0:
		box.XMin = clamp(float64(d.Box.XMin) / float64(w))
		box.YMin = clamp(float64(d.Box.YMin) / float64(h))
		box.XMax = clamp(float64(d.Box.XMax) / float64(w))
		box.YMax = clamp(float64(d.Box.YMax) / float64(h))
	}
	return event.Detection{Label: d.Label, Box: box}
}

func clamp(v float64) float64 {
	return min(max(v, 0), 1)
}
