package main

import (
	"embed"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
	"gopkg.in/natefinch/lumberjack.v2"
)

//go:embed all:frontend/dist
var assets embed.FS

func main() {
	setupLogging()

	app := NewApp()

	err := wails.Run(&options.App{
		Title:  "Kitty",
		Width:  960,
		Height: 720,
		AssetServer: &assetserver.Options{
			Assets: assets,
		},
		OnStartup:  app.startup,
		OnShutdown: app.shutdown,
		Bind: []interface{}{
			app,
		},
	})
	if err != nil {
		slog.Error("application failed", "error", err)
		os.Exit(1)
	}
}

// setupLogging writes to stderr, teeing to a rotating file when
// KITTYDESK_LOG_DIR is set.
func setupLogging() {
	var writer io.Writer = os.Stderr
	if dir := strings.TrimSpace(os.Getenv("KITTYDESK_LOG_DIR")); dir != "" {
		writer = io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   filepath.Join(dir, "kittydesk.log"),
			MaxSize:    20,
			MaxBackups: 3,
			MaxAge:     28,
			Compress:   true,
		})
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(writer, &slog.HandlerOptions{Level: slog.LevelInfo})))
}
