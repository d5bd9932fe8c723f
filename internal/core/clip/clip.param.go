package clip

import "github.com/ixugo/goddd/pkg/web"

type FindClipInput struct {
	web.PagerFilter
	Date string `form:"date"` // YYYY-MM-DD
}
