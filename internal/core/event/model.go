package event

import (
	"image"
	"time"
)

// DetectionBox 归一化边界框，坐标与置信度均在 [0,1]
type DetectionBox struct {
	XMin       float64 `json:"xmin"`
	YMin       float64 `json:"ymin"`
	XMax       float64 `json:"xmax"`
	YMax       float64 `json:"ymax"`
	Confidence float64 `json:"confidence"`
}

// VerticalCenter 边界框的垂直中点
func (b DetectionBox) VerticalCenter() float64 {
	return (b.YMin + b.YMax) / 2
}

// Detection 推理服务对单个目标的输出
type Detection struct {
	Label string       `json:"label"`
	Box   DetectionBox `json:"box"`
}

// FrameRecord 属于某个事件的一帧
// 进入缓冲区后 Clean 与 Annotated 归该记录独占，帧来源不得再持有或修改
type FrameRecord struct {
	Clean           image.Image
	Annotated       image.Image
	VerticalCenters []float64
	Confidences     []float64
	Boxes           []DetectionBox
	CapturedAt      time.Time
}

// NewFrameRecord 由检测列表构造帧记录，三个切片长度一致、顺序与 dets 相同
func NewFrameRecord(clean, annotated image.Image, dets []Detection, capturedAt time.Time) FrameRecord {
	r := FrameRecord{
		Clean:           clean,
		Annotated:       annotated,
		VerticalCenters: make([]float64, 0, len(dets)),
		Confidences:     make([]float64, 0, len(dets)),
		Boxes:           make([]DetectionBox, 0, len(dets)),
		CapturedAt:      capturedAt,
	}
	for _, d := range dets {
		r.VerticalCenters = append(r.VerticalCenters, d.Box.VerticalCenter())
		r.Confidences = append(r.Confidences, d.Box.Confidence)
		r.Boxes = append(r.Boxes, d.Box)
	}
	return r
}

// MaxConfidence 本帧所有检测中的最大置信度，无检测时返回 false
func (r FrameRecord) MaxConfidence() (float64, bool) {
	if len(r.Confidences) == 0 {
		return 0, false
	}
	v := r.Confidences[0]
	for _, c := range r.Confidences[1:] {
		v = max(v, c)
	}
	return v, true
}

// Buffer 一个连续事件的全部帧，按到达顺序排列
type Buffer []FrameRecord

// Sink 接收结束的事件，实现方不得阻塞调用方
type Sink interface {
	Handoff(Buffer)
}

// SinkFunc 函数适配 Sink
type SinkFunc func(Buffer)

func (f SinkFunc) Handoff(b Buffer) { f(b) }
