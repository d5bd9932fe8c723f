package upload

import (
	"mime"
	"path/filepath"
	"strings"
)

// ContentType 按扩展名推断，未知类型按二进制处理
func ContentType(path string) string {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".avi":
		return "video/x-msvideo"
	default:
		if v := mime.TypeByExtension(ext); v != "" {
			return v
		}
	}
	return "application/octet-stream"
}
