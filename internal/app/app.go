package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gowvp/pothole/internal/conf"
	"golang.org/x/sync/errgroup"
)

// Run 启动全部组件，收到 SIGINT/SIGTERM 后按顺序退出
//
// 退出顺序: 停止采集并交付进行中的事件，等待片段落盘（受 drain_timeout 限制），
// 最后放弃仍在重试的上传，任务保留为 pending，下次启动时恢复
func Run(bc *conf.Bootstrap) error {
	log, closeLog, err := SetupLog(bc)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, cleanup, err := wireApp(bc)
	if err != nil {
		return fmt.Errorf("wire app: %w", err)
	}
	defer cleanup()

	g, gctx := errgroup.WithContext(ctx)

	if _, err := app.Uploads.Resume(gctx); err != nil {
		log.Error("resume upload tasks", "err", err)
	}

	g.Go(func() error {
		return app.Pipeline.Run(gctx)
	})
	g.Go(func() error {
		app.Clips.StartCleanupWorker(gctx)
		return nil
	})
	g.Go(func() error {
		app.Calibrator.Start(gctx, bc.Calibrate.Interval.Duration())
		return nil
	})

	timeout := bc.Server.HTTP.Timeout.Duration()
	srv := http.Server{
		Addr:              fmt.Sprintf(":%d", bc.Server.HTTP.Port),
		Handler:           app.Handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       timeout,
		WriteTimeout:      timeout,
	}
	g.Go(func() error {
		log.Info("http server started", "port", bc.Server.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(sctx)
	})

	err = g.Wait()
	app.Uploads.Wait()
	log.Info("bye", "err", err)
	return err
}
