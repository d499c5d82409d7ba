package mobile

import (
	"context"
	"os"

	"github.com/rs/zerolog"

	"xqbridge/internal/config"
	"xqbridge/internal/server"
)

// StartServer 启动本地 HTTP 服务。
// webDir: 解压后的网页资源目录
// enginePath: 解压后的引擎可执行文件
// dataDir: 对局存放目录，为空则只存内存
// port: 监听端口，例如 "2888"
func StartServer(webDir string, enginePath string, dataDir string, port string) {
	log := zerolog.New(os.Stderr).With().Timestamp().Str("app", "mobile").Logger()

	cfg := config.Default()
	cfg.Server.Addr = "127.0.0.1:" + port
	cfg.Server.WebDir = webDir
	cfg.Server.DataDir = dataDir
	if enginePath != "" {
		cfg.Engine.Path = enginePath
	}
	cfg.Engine.PreloadAtBoot = true

	app, err := server.New(&cfg, log)
	if err != nil {
		log.Error().Err(err).Msg("failed to start server")
		return
	}

	// 放到后台跑，不阻塞 Android UI 线程
	go func() {
		defer app.Close()
		if err := app.Run(context.Background()); err != nil {
			log.Error().Err(err).Msg("server error")
		}
	}()
}
