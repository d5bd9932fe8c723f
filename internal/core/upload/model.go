package upload

import "github.com/ixugo/goddd/pkg/orm"

// 任务状态
const (
	StatusPending  = "pending"  // 等待上传或重试中
	StatusUploaded = "uploaded" // 已上传，本地文件待删除
	StatusDone     = "done"     // 已完成
	StatusFailed   = "failed"   // 本地文件丢失，无法完成
)

// Task 单个文件的上传任务，进程重启后继续执行未完成的任务
type Task struct {
	ID        string   `gorm:"primaryKey" json:"id"`
	ClipID    string   `gorm:"column:clip_id;index" json:"clip_id"` // 所属片段
	LocalPath string   `gorm:"column:local_path" json:"local_path"` // 本地文件
	RemoteKey string   `gorm:"column:remote_key" json:"remote_key"` // 对象 key
	Status    string   `gorm:"column:status;index" json:"status"`   // 任务状态
	Attempts  int      `gorm:"column:attempts" json:"attempts"`     // 失败次数
	LastError string   `gorm:"column:last_error" json:"last_error"` // 最近一次失败原因
	CreatedAt orm.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt orm.Time `gorm:"column:updated_at" json:"updated_at"`
}

// TableName database table name
func (*Task) TableName() string {
	return "upload_tasks"
}

// Finished 任务不再需要执行
func (t *Task) Finished() bool {
	return t.Status == StatusDone || t.Status == StatusFailed
}
