package httpserver

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Server 把 /api/* 和静态页面挂在同一个 mux 上。
type Server struct {
	Addr string

	mux *http.ServeMux
	log zerolog.Logger
}

// NewServer 的 webDir 为空时只提供 /api/*。
func NewServer(addr string, h *Handler, webDir string, log zerolog.Logger) *Server {
	mux := http.NewServeMux()
	mux.Handle("/api/", h)
	if webDir != "" {
		RegisterStaticRoutes(mux, webDir)
	}
	return &Server{
		Addr: addr,
		mux:  mux,
		log:  log.With().Str("component", "server").Logger(),
	}
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// Run 监听直到 ctx 取消，然后在 5 秒内优雅关闭。
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.Addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info().Str("addr", s.Addr).Msg("listening")
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
