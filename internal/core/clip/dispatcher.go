package clip

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gowvp/pothole/internal/core/event"
	"golang.org/x/sync/semaphore"
)

// ClipFinalizer 由 Finalizer 实现
type ClipFinalizer interface {
	Finalize(ctx context.Context, buf event.Buffer) (*Clip, error)
}

// Dispatcher 将结束的事件交给后台协程落盘，Handoff 立即返回
// 同时编码的片段数受信号量限制，其余片段排队等待
type Dispatcher struct {
	fin ClipFinalizer
	sem *semaphore.Weighted
	wg  sync.WaitGroup
	log *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc

	pending atomic.Int64
}

var _ event.Sink = (*Dispatcher)(nil)

// NewDispatcher maxConcurrent 小于 1 时按 1 处理
func NewDispatcher(fin ClipFinalizer, maxConcurrent int) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		fin:    fin,
		sem:    semaphore.NewWeighted(int64(max(maxConcurrent, 1))),
		log:    slog.With("component", "dispatcher"),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Handoff implements event.Sink.
func (d *Dispatcher) Handoff(buf event.Buffer) {
	if len(buf) == 0 {
		return
	}
	d.pending.Add(1)
	d.wg.Go(func() {
		defer d.pending.Add(-1)
		if err := d.sem.Acquire(d.ctx, 1); err != nil {
			d.log.Error("finalize aborted before start", "frames", len(buf), "err", err)
			return
		}
		defer d.sem.Release(1)

		c, err := d.fin.Finalize(d.ctx, buf)
		switch {
		case errors.Is(err, ErrEmptyEvent):
			d.log.Warn("empty event ignored")
		case err != nil:
			d.log.Error("finalize clip", "frames", len(buf), "err", err)
		default:
			d.log.Info("clip finalized", "id", c.ID, "name", c.BaseName, "files", len(c.Files))
		}
	})
}

// Pending 排队与正在落盘的片段数
func (d *Dispatcher) Pending() int64 {
	return d.pending.Load()
}

// Wait 等待所有片段落盘，超时后取消仍在进行的编码并返回 false
func (d *Dispatcher) Wait(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return true
	case <-time.After(timeout):
		d.log.Warn("drain timeout, abort in-flight clips", "pending", d.Pending())
		d.cancel()
		<-done
		return false
	}
}
