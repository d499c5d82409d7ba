package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"xqbridge/internal/engine"
	"xqbridge/internal/server/game"
	"xqbridge/internal/xiangqi"
)

// Handler 实现 http.Handler，用于 /api/* 路由
type Handler struct {
	games *game.Manager
	eng   *engine.Adapter
	log   zerolog.Logger
}

func NewHandler(games *game.Manager, eng *engine.Adapter, log zerolog.Logger) *Handler {
	return &Handler{
		games: games,
		eng:   eng,
		log:   log.With().Str("component", "http").Logger(),
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path == "/api/engine" {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.handleEngine(w, r)
		return
	}

	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	switch r.URL.Path {
	case "/api/new_game":
		h.handleNewGame(w, r)
	case "/api/play":
		h.handlePlay(w, r)
	case "/api/state":
		h.handleState(w, r)
	case "/api/ai_move":
		h.handleAiMove(w, r)
	case "/api/init_engine":
		h.handleInitEngine(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *Handler) handleNewGame(w http.ResponseWriter, r *http.Request) {
	g, err := h.games.NewGame()
	if err != nil {
		h.gameError(w, err)
		return
	}
	h.writeJSON(w, NewGameResponse{
		GameID:   g.ID,
		Position: g.Position(),
		ToMove:   g.SideToMove.String(),
		Board:    g.Board,
	})
}

func (h *Handler) handlePlay(w http.ResponseWriter, r *http.Request) {
	var req PlayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	g, err := h.games.Play(req.GameID, dtoToMove(req.Move))
	if err != nil {
		h.gameError(w, err)
		return
	}
	h.writeJSON(w, stateResponse(g))
}

func (h *Handler) handleState(w http.ResponseWriter, r *http.Request) {
	var req StateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}
	g, err := h.games.Get(req.GameID)
	if err != nil {
		h.gameError(w, err)
		return
	}
	h.writeJSON(w, stateResponse(g))
}

func (h *Handler) handleAiMove(w http.ResponseWriter, r *http.Request) {
	var req AiMoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	var (
		board xiangqi.Board
		side  xiangqi.Side
	)
	switch {
	case req.GameID != "":
		g, err := h.games.Get(req.GameID)
		if err != nil {
			h.gameError(w, err)
			return
		}
		board, side = g.Board, g.SideToMove
	case req.Position != "":
		b, s, err := xiangqi.DecodePosition(req.Position)
		if err != nil {
			http.Error(w, "invalid position", http.StatusBadRequest)
			return
		}
		board, side = b, s
	default:
		http.Error(w, "missing game_id or position", http.StatusBadRequest)
		return
	}
	if req.ToMove != "" {
		s, ok := xiangqi.ParseSide(req.ToMove)
		if !ok {
			http.Error(w, "invalid to_move", http.StatusBadRequest)
			return
		}
		side = s
	}

	start := time.Now()
	mv, err := h.eng.BestMove(board, side)
	resp := AiMoveResponse{
		Position: xiangqi.Encode(&board, side),
		ToMove:   side.String(),
		Status:   "ok",
		TimeMs:   time.Since(start).Milliseconds(),
	}
	if err != nil {
		// 对前端来说只有"有招"和"没招"两种结果
		h.log.Warn().Err(err).Str("kind", engine.Kind(err)).Str("position", resp.Position).Msg("ai move failed")
		resp.Status = "no_move"
		resp.Reason = engine.Kind(err)
	} else {
		dto := moveToDTO(mv)
		resp.BestMove = &dto
	}
	h.writeJSON(w, resp)
}

func (h *Handler) handleInitEngine(w http.ResponseWriter, r *http.Request) {
	h.eng.InitEngine()
	h.handleEngine(w, r)
}

func (h *Handler) handleEngine(w http.ResponseWriter, r *http.Request) {
	l := h.eng.Loader()
	state := l.State()
	available := h.eng.Available()
	resp := EngineResponse{
		Ready:     state == engine.StateReady && available,
		Available: available,
		State:     state.String(),
		Attempts:  l.Attempts(),
	}
	if err := l.Err(); err != nil {
		resp.LastError = err.Error()
	}
	h.writeJSON(w, resp)
}

func (h *Handler) gameError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, game.ErrNotFound):
		http.Error(w, "game not found", http.StatusNotFound)
	case errors.Is(err, game.ErrBadMove):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		h.log.Error().Err(err).Msg("game operation failed")
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error().Err(err).Msg("writeJSON error")
	}
}
