package api

import (
	"github.com/gin-gonic/gin"
	"github.com/gowvp/pothole/internal/core/position"
	"github.com/ixugo/goddd/pkg/reason"
	"github.com/ixugo/goddd/pkg/web"
)

// PositionAPI 外部 GPS 进程通过 POST 写入当前位置
type PositionAPI struct {
	feed *position.Feed
}

func NewPositionAPI(feed *position.Feed) PositionAPI {
	return PositionAPI{feed: feed}
}

type updatePositionInput struct {
	Raw string   `json:"raw"`
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

func registerPosition(g gin.IRouter, api PositionAPI, handler ...gin.HandlerFunc) {
	group := g.Group("/position", handler...)
	group.GET("", web.WrapH(api.getPosition))
	group.POST("", web.WrapH(api.updatePosition))
}

func (a PositionAPI) getPosition(_ *gin.Context, _ *struct{}) (position.Snapshot, error) {
	return a.feed.Snapshot(), nil
}

func (a PositionAPI) updatePosition(_ *gin.Context, in *updatePositionInput) (position.Snapshot, error) {
	if in.Lat != nil && (*in.Lat < -90 || *in.Lat > 90) {
		return position.Snapshot{}, reason.ErrBadRequest.SetMsg("纬度超出范围")
	}
	if in.Lon != nil && (*in.Lon < -180 || *in.Lon > 180) {
		return position.Snapshot{}, reason.ErrBadRequest.SetMsg("经度超出范围")
	}
	a.feed.Update(position.Snapshot{Raw: in.Raw, Lat: in.Lat, Lon: in.Lon})
	return a.feed.Snapshot(), nil
}
