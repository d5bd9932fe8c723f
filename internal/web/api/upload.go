package api

import (
	"github.com/gin-gonic/gin"
	"github.com/gowvp/pothole/internal/core/upload"
	"github.com/ixugo/goddd/pkg/web"
)

type UploadAPI struct {
	core *upload.Core
}

func NewUploadAPI(core *upload.Core) UploadAPI {
	return UploadAPI{core: core}
}

func registerUpload(g gin.IRouter, api UploadAPI, handler ...gin.HandlerFunc) {
	group := g.Group("/uploads", handler...)
	group.GET("", web.WrapH(api.findTasks))
}

func (a UploadAPI) findTasks(c *gin.Context, in *upload.FindTaskInput) (any, error) {
	items, total, err := a.core.FindTasks(c.Request.Context(), in)
	return gin.H{"items": items, "total": total}, err
}
