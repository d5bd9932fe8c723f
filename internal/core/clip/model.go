package clip

import (
	"github.com/gowvp/pothole/internal/core/event"
	"github.com/ixugo/goddd/pkg/orm"
)

// Clip 已落盘的片段
type Clip struct {
	ID         string   `gorm:"primaryKey" json:"id"`
	BaseName   string   `gorm:"column:base_name;index" json:"base_name"`
	Date       string   `gorm:"column:date;index" json:"date"`               // YYYY-MM-DD，同时是本地子目录与对象 key 前缀
	Dir        string   `gorm:"column:dir" json:"dir"`                       // 本地目录
	VideoName  string   `gorm:"column:video_name" json:"video_name"`         // 视频文件名
	Key        string   `gorm:"column:key" json:"key"`                       // 视频对象 key
	FrameCount int      `gorm:"column:frame_count" json:"frame_count"`       // 帧数
	Duration   float64  `gorm:"column:duration" json:"duration"`             // 时长（秒）
	Confidence float64  `gorm:"column:confidence" json:"confidence"`         // 首帧最大置信度
	BestIndex  int      `gorm:"column:best_index" json:"best_index"`         // 最佳帧序号，-1 表示无
	Lat        *float64 `gorm:"column:lat" json:"lat"`                       // 纬度
	Lon        *float64 `gorm:"column:lon" json:"lon"`                       // 经度
	Files      []string `gorm:"column:files;serializer:json" json:"files"`   // 成功写入的文件
	CapturedAt orm.Time `gorm:"column:captured_at;index" json:"captured_at"` // 事件结束时间
	CreatedAt  orm.Time `gorm:"column:created_at" json:"created_at"`
}

// TableName database table name
func (*Clip) TableName() string {
	return "clips"
}

// GPS 元数据中的坐标，无定位时为 null
type GPS struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

// Metadata 与视频一同上传的 json 描述文件，写入后不再修改
type Metadata struct {
	Timestamp  int64                `json:"timestamp"`
	CapturedAt string               `json:"captured_at" copier:"-"`
	GPS        GPS                  `json:"gps"`
	NMEARaw    string               `json:"nmea_raw"`
	Confidence float64              `json:"confidence"`
	BBoxes     []event.DetectionBox `json:"bboxes"`
	Severity   *string              `json:"severity"`
	VideoName  string               `json:"video_name"`
	S3Key      string               `json:"s3_key"`
	FrameCount int                  `json:"frame_count"`
	DurationS  float64              `json:"duration_s"`
}
