package main

import (
	"flag"
	"log/slog"
	"os"

	"github.com/gowvp/pothole/internal/app"
	"github.com/gowvp/pothole/internal/conf"
	_ "go.uber.org/automaxprocs"
)

var configDir = flag.String("conf", "./configs", "config directory, eg: -conf ./configs/")

func main() {
	flag.Parse()

	bc, err := conf.SetupConfig(*configDir)
	if err != nil {
		slog.Error("load config", "dir", *configDir, "err", err)
		os.Exit(1)
	}
	if err := app.Run(bc); err != nil {
		slog.Error("app exited", "err", err)
		os.Exit(1)
	}
}
