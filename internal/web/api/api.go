package api

import (
	"bytes"
	"image/jpeg"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/gowvp/pothole/internal/core/clip"
	"github.com/ixugo/goddd/pkg/web"
)

var startRuntime = time.Now()

func setupRouter(r *gin.Engine, uc *Usecase) {
	r.Use(
		// 此处不做 recover，底层 http.server 也会 recover，但不会输出方便查看的格式
		gin.CustomRecovery(func(c *gin.Context, err any) {
			slog.ErrorContext(c.Request.Context(), "panic", "err", err, "stack", string(debug.Stack()))
			c.AbortWithStatus(http.StatusInternalServerError)
		}),
		web.Logger(web.IgnoreMethod(http.MethodOptions), web.IgnorePrefix("/snapshot")),
	)
	r.Use(cors.New(cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Accept", "Content-Length", "Content-Type", "Origin", "Authorization", "User-Agent"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
		AllowOriginFunc: func(_ string) bool {
			return true
		},
	}))
	r.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{"msg": "来到了无人的荒漠"})
	})

	r.GET("/health", web.WrapH(uc.getHealth))
	r.GET("/snapshot", uc.getSnapshot)

	// 列表接口数据量较大，启用压缩
	gz := r.Group("", gzip.Gzip(gzip.DefaultCompression))
	registerClip(gz, uc.ClipAPI)
	registerUpload(gz, uc.UploadAPI)
	registerPosition(r, uc.PositionAPI)
}

type getHealthOutput struct {
	StartAt        time.Time `json:"start_at"`
	UptimeS        int64     `json:"uptime_s"`
	DiskUsage      float64   `json:"disk_usage"`      // 输出目录所在磁盘使用率
	PendingUploads int64     `json:"pending_uploads"` // 未完成的上传任务
	PendingClips   int64     `json:"pending_clips"`   // 等待落盘的片段
	Frames         uint64    `json:"frames"`          // 已推理帧数
	Capturing      bool      `json:"capturing"`       // ffmpeg 是否在运行
	Captured       uint64    `json:"captured"`        // 当前 ffmpeg 进程读到的帧
	Skipped        uint64    `json:"skipped"`         // 推理跟不上而丢弃的帧
	LastFrameAt    time.Time `json:"last_frame_at"`
}

func (uc *Usecase) getHealth(c *gin.Context, _ *struct{}) (getHealthOutput, error) {
	out := getHealthOutput{
		StartAt: startRuntime,
		UptimeS: int64(time.Since(startRuntime).Seconds()),
	}
	if usage, err := clip.DiskUsage(uc.ClipAPI.core.Root()); err == nil {
		out.DiskUsage = usage
	}
	n, err := uc.UploadAPI.core.CountPending(c.Request.Context())
	if err != nil {
		return out, err
	}
	out.PendingUploads = n
	if uc.Monitor != nil {
		out.PendingClips = uc.Monitor.PendingClips()
		out.Frames = uc.Monitor.FrameCount()
		st := uc.Monitor.CaptureStats()
		out.Capturing = st.IsRunning
		out.Captured = st.FrameCount
		out.Skipped = st.SkipCount
		out.LastFrameAt = st.LastFrame
	}
	return out, nil
}

// getSnapshot 最新一帧原始画面
func (uc *Usecase) getSnapshot(c *gin.Context) {
	if uc.Monitor == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"msg": "采集未启动"})
		return
	}
	img := uc.Monitor.LatestFrame()
	if img == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"msg": "尚未收到画面"})
		return
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 85}); err != nil {
		web.Fail(c, err)
		return
	}
	c.Header("Cache-Control", "no-cache")
	c.Data(http.StatusOK, "image/jpeg", buf.Bytes())
}
