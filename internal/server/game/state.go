package game

import (
	"time"

	"xqbridge/internal/xiangqi"
)

type GameState struct {
	ID         string          `json:"id"`
	Board      xiangqi.Board   `json:"board"`
	SideToMove xiangqi.Side    `json:"side_to_move"`
	Moves      []xiangqi.Move  `json:"moves"`
	Captured   []xiangqi.Piece `json:"captured"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Position 当前局面的 FEN（含行棋方）。
func (g *GameState) Position() string {
	return xiangqi.Encode(&g.Board, g.SideToMove)
}

func (g *GameState) clone() *GameState {
	c := *g
	c.Moves = append([]xiangqi.Move(nil), g.Moves...)
	c.Captured = append([]xiangqi.Piece(nil), g.Captured...)
	return &c
}
