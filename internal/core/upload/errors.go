package upload

import "errors"

var (
	// ErrConnectivity 连通性探测失败
	ErrConnectivity = errors.New("upload: network unreachable")
	// ErrUpload 对象存储拒绝或未完成传输
	ErrUpload = errors.New("upload: transfer failed")
	// ErrLocalMissing 上传成功前本地文件已不存在，重试无意义
	ErrLocalMissing = errors.New("upload: local file missing")
)
