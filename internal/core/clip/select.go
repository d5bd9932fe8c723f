package clip

import (
	"math"

	"github.com/gowvp/pothole/internal/core/event"
)

// SelectBest 返回检测框垂直中点最接近画面中线的帧
// 比较所有帧的所有检测，距离相同时取最先出现的帧，没有任何检测时返回 false
func SelectBest(buf event.Buffer) (int, bool) {
	best, dist := -1, math.Inf(1)
	for i, rec := range buf {
		for _, yc := range rec.VerticalCenters {
			if d := math.Abs(yc - 0.5); d < dist {
				best, dist = i, d
			}
		}
	}
	return best, best >= 0
}

// Duration 按固定帧率计算片段时长，保留两位小数
func Duration(frames, fps int) float64 {
	if fps <= 0 {
		return 0
	}
	return math.Round(float64(frames)/float64(fps)*100) / 100
}
