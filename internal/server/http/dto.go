package httpserver

import (
	"xqbridge/internal/server/game"
	"xqbridge/internal/xiangqi"
)

// AiMoveRequest 请求让引擎为一个局面给出一步。
// 有 game_id 时用对局的当前局面；否则用 position（FEN），to_move 可覆盖 FEN 里的行棋方。
type AiMoveRequest struct {
	GameID   string `json:"game_id"`
	Position string `json:"position"`
	ToMove   string `json:"to_move"` // "r" / "b"
}

// 前端用的招法结构
type MoveDTO struct {
	From int `json:"from"`
	To   int `json:"to"`
}

func dtoToMove(m MoveDTO) xiangqi.Move {
	return xiangqi.Move{From: m.From, To: m.To}
}

func moveToDTO(m xiangqi.Move) MoveDTO {
	return MoveDTO{From: m.From, To: m.To}
}

func movesToDTO(ms []xiangqi.Move) []MoveDTO {
	out := make([]MoveDTO, len(ms))
	for i, m := range ms {
		out[i] = moveToDTO(m)
	}
	return out
}

type AiMoveResponse struct {
	BestMove *MoveDTO `json:"best_move"`        // 没有招法时为 null
	Position string   `json:"position"`         // 原局面，只思考不落子
	ToMove   string   `json:"to_move"`
	Status   string   `json:"status"`           // "ok" / "no_move"
	Reason   string   `json:"reason,omitempty"` // 失败类别，见 engine.Kind
	TimeMs   int64    `json:"time_ms"`
}

// NewGame 返回
type NewGameResponse struct {
	GameID   string        `json:"game_id"`
	Position string        `json:"position"` // FEN 字符串
	ToMove   string        `json:"to_move"`
	Board    xiangqi.Board `json:"board"`
}

// Play 请求
type PlayRequest struct {
	GameID string  `json:"game_id"`
	Move   MoveDTO `json:"move"`
}

// State 请求：前端刷新时用 game_id 来要当前盘面
type StateRequest struct {
	GameID string `json:"game_id"`
}

// State / Play 返回
type StateResponse struct {
	GameID   string          `json:"game_id"`
	Position string          `json:"position"`
	ToMove   string          `json:"to_move"`
	Board    xiangqi.Board   `json:"board"`
	Moves    []MoveDTO       `json:"moves"`
	Captured []xiangqi.Piece `json:"captured"`
}

func stateResponse(g *game.GameState) StateResponse {
	return StateResponse{
		GameID:   g.ID,
		Position: g.Position(),
		ToMove:   g.SideToMove.String(),
		Board:    g.Board,
		Moves:    movesToDTO(g.Moves),
		Captured: g.Captured,
	}
}

// EngineResponse 中 ready = 加载完成且能力齐全；state 只反映加载器。
type EngineResponse struct {
	Ready     bool   `json:"ready"`
	Available bool   `json:"available"`
	State     string `json:"state"`
	Attempts  int    `json:"attempts"`
	LastError string `json:"last_error,omitempty"`
}
