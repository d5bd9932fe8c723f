package app

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gowvp/pothole/internal/conf"
	"github.com/ixugo/goddd/pkg/system"
	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
)

// SetupLog 输出 json 日志到控制台，配置了目录时同时按天切割写入文件
func SetupLog(bc *conf.Bootstrap) (*slog.Logger, func(), error) {
	level := parseLevel(bc.Log.Level)
	if bc.Debug {
		level = slog.LevelDebug
	}

	var w io.Writer = os.Stdout
	closeFn := func() {}
	if dir := bc.Log.Dir; dir != "" {
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(system.Getwd(), dir)
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log dir: %w", err)
		}
		maxAge := bc.Log.MaxAge.Duration()
		if maxAge <= 0 {
			maxAge = 7 * 24 * time.Hour
		}
		r, err := rotatelogs.New(
			filepath.Join(dir, "%Y%m%d.log"),
			rotatelogs.WithLinkName(filepath.Join(dir, "current.log")),
			rotatelogs.WithRotationTime(24*time.Hour),
			rotatelogs.WithMaxAge(maxAge),
		)
		if err != nil {
			return nil, nil, fmt.Errorf("rotate logs: %w", err)
		}
		w = io.MultiWriter(os.Stdout, r)
		closeFn = func() { _ = r.Close() }
	}

	log := slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
		AddSource: bc.Debug,
		Level:     level,
	}))
	slog.SetDefault(log)
	return log, closeFn, nil
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
