package clip

import "errors"

var (
	// ErrEncode 视频无法打开或写入，整个片段放弃
	ErrEncode = errors.New("clip: encode video")
	// ErrEmptyEvent 缓冲区为空
	ErrEmptyEvent = errors.New("clip: empty event")
	// ErrLocalWrite 单个产物写入失败，不影响其它产物
	ErrLocalWrite = errors.New("clip: local write")
)
