package main

import (
	"context"
	"flag"
	"os"
	"os/exec"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"xqbridge/internal/config"
	"xqbridge/internal/server"
)

func openBrowser(url string) {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "darwin":
		cmd = exec.Command("open", url)
	default: // linux / bsd
		cmd = exec.Command("xdg-open", url)
	}

	_ = cmd.Start() // 不阻塞，不关心错误（某些服务器环境可能无图形界面）
}

func main() {
	cfgPath := flag.String("config", "", "config file (default: search XDG config dirs for xqbridge/config.json)")
	addr := flag.String("addr", "", "listen address, overrides config")
	webDir := flag.String("web", "", "directory with index.html / js / svg, overrides config")
	enginePath := flag.String("engine", "", "path to the UCCI/UCI engine binary, overrides config")
	noBrowser := flag.Bool("no-browser", false, "do not open the default browser")
	writeCfg := flag.Bool("write-config", false, "write the effective config to the XDG config dir and exit")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).With().Timestamp().Logger()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *webDir != "" {
		cfg.Server.WebDir = *webDir
	}
	if *enginePath != "" {
		cfg.Engine.Path = *enginePath
	}
	log = log.Level(cfg.Level())

	if *writeCfg {
		path, err := cfg.Save()
		if err != nil {
			log.Fatal().Err(err).Msg("failed to save config")
		}
		log.Info().Str("path", path).Msg("config written")
		return
	}

	app, err := server.New(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start")
	}
	defer app.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info().Str("addr", cfg.Server.Addr).Str("web", cfg.Server.WebDir).Str("engine", cfg.Engine.Path).Msg("starting")

	if !*noBrowser && cfg.Server.WebDir != "" {
		// 延迟 100ms 打开默认浏览器，否则可能服务器未启动完成
		go func() {
			time.Sleep(100 * time.Millisecond)
			host := cfg.Server.Addr
			if strings.HasPrefix(host, ":") {
				host = "127.0.0.1" + host
			}
			openBrowser("http://" + host)
		}()
	}

	if err := app.Run(ctx); err != nil {
		log.Error().Err(err).Msg("server stopped")
	}
}
