package app

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/gowvp/pothole/internal/conf"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestSetupLogWritesFile(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	bc := conf.DefaultConfig()
	bc.Log.Dir = t.TempDir()
	log, closeFn, err := SetupLog(&bc)
	if err != nil {
		t.Fatal(err)
	}
	log.Info("hello", "component", "test")
	closeFn()

	entries, err := os.ReadDir(bc.Log.Dir)
	if err != nil {
		t.Fatal(err)
	}
	var size int64
	for _, e := range entries {
		if filepath.Ext(e.Name()) != ".log" || e.Type()&os.ModeSymlink != 0 {
			continue
		}
		info, err := e.Info()
		if err != nil {
			t.Fatal(err)
		}
		size += info.Size()
	}
	if size == 0 {
		t.Fatalf("no log written in %v", entries)
	}
}
