package api

import (
	"github.com/gin-gonic/gin"
	"github.com/gowvp/pothole/internal/core/clip"
	"github.com/ixugo/goddd/pkg/web"
)

// ClipAPI 为 http 提供业务方法
type ClipAPI struct {
	core clip.Core
}

func NewClipAPI(core clip.Core) ClipAPI {
	return ClipAPI{core: core}
}

func registerClip(g gin.IRouter, api ClipAPI, handler ...gin.HandlerFunc) {
	group := g.Group("/clips", handler...)
	group.GET("", web.WrapH(api.findClips))
	group.GET("/:id", web.WrapH(api.getClip))
}

// findClips 分页查询片段，按采集时间倒序
func (a ClipAPI) findClips(c *gin.Context, in *clip.FindClipInput) (any, error) {
	items, total, err := a.core.FindClips(c.Request.Context(), in)
	return gin.H{"items": items, "total": total}, err
}

func (a ClipAPI) getClip(c *gin.Context, _ *struct{}) (*clip.Clip, error) {
	return a.core.GetClip(c.Request.Context(), c.Param("id"))
}
