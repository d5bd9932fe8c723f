package upload

import "github.com/ixugo/goddd/pkg/web"

type FindTaskInput struct {
	web.PagerFilter
	Status string `form:"status"` // pending/uploaded/done/failed
	ClipID string `form:"clip_id"`
}
