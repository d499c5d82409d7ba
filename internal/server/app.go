package server

import (
	"context"

	"github.com/rs/zerolog"

	"xqbridge/internal/config"
	"xqbridge/internal/engine"
	"xqbridge/internal/server/game"
	httpserver "xqbridge/internal/server/http"
	"xqbridge/internal/storage"
	"xqbridge/internal/ucci"
)

// App 把引擎进程、对局存储和 HTTP 服务组装在一起。
type App struct {
	Engine *engine.Adapter
	Server *httpserver.Server

	driver *ucci.Driver
	store  *storage.Storage
	log    zerolog.Logger
}

func New(cfg *config.Config, log zerolog.Logger) (*App, error) {
	app := &App{log: log}

	app.driver = ucci.New(cfg.UCCIConfig(), log)
	opts := []engine.Option{
		engine.WithSearchConfig(cfg.SearchConfig()),
		engine.WithLogger(log),
	}
	if cfg.Engine.Reentrant {
		opts = append(opts, engine.WithReentrantEngine())
	}
	app.Engine = engine.NewAdapter(app.driver, opts...)

	var store game.Store
	if cfg.Server.DataDir != "" {
		s, err := storage.Open(cfg.Server.DataDir)
		if err != nil {
			return nil, err
		}
		app.store = s
		store = s
	}

	h := httpserver.NewHandler(game.NewManager(store), app.Engine, log)
	app.Server = httpserver.NewServer(cfg.Server.Addr, h, cfg.Server.WebDir, log)

	if cfg.Engine.PreloadAtBoot {
		// 后台预热，失败只记日志，第一次 ai_move 会再试
		go func() {
			if err := app.Engine.EnsureLoaded(context.Background()); err != nil {
				log.Warn().Err(err).Msg("engine preload failed")
			}
		}()
	}
	return app, nil
}

// Run 阻塞直到 ctx 取消。
func (a *App) Run(ctx context.Context) error {
	return a.Server.Run(ctx)
}

func (a *App) Close() error {
	if err := a.driver.Close(); err != nil {
		a.log.Warn().Err(err).Msg("engine close")
	}
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}
