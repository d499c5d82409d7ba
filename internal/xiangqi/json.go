package xiangqi

import (
	"encoding/json"
	"fmt"
	"strings"
)

// 前端的棋子格式：{"type":"K","side":"r"}，空位为 null。
type cellDTO struct {
	Type string `json:"type"`
	Side string `json:"side"`
}

func (s Side) MarshalJSON() ([]byte, error) {
	if s == NoSide {
		return []byte("null"), nil
	}
	return json.Marshal(s.String())
}

func (s *Side) UnmarshalJSON(data []byte) error {
	var v string
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	side, ok := ParseSide(v)
	if !ok {
		return fmt.Errorf("unknown side %q", v)
	}
	*s = side
	return nil
}

func (p Piece) MarshalJSON() ([]byte, error) {
	if p == 0 {
		return []byte("null"), nil
	}
	if !p.Valid() {
		return nil, fmt.Errorf("invalid piece value %d", p)
	}
	return json.Marshal(cellDTO{
		Type: strings.ToUpper(string(pieceTypeToLetter[p.Type()])),
		Side: p.Side().String(),
	})
}

func (p *Piece) UnmarshalJSON(data []byte) error {
	var cell *cellDTO
	if err := json.Unmarshal(data, &cell); err != nil {
		return err
	}
	if cell == nil {
		*p = 0
		return nil
	}
	if len(cell.Type) != 1 {
		return fmt.Errorf("unknown piece type %q", cell.Type)
	}
	pt, ok := letterToPieceType[rune(strings.ToLower(cell.Type)[0])]
	if !ok {
		return fmt.Errorf("unknown piece type %q", cell.Type)
	}
	side, ok := ParseSide(cell.Side)
	if !ok {
		return fmt.Errorf("unknown side %q", cell.Side)
	}
	*p = MakePiece(side, pt)
	return nil
}

func (b Board) MarshalJSON() ([]byte, error) {
	return json.Marshal(b.Squares[:])
}

// UnmarshalJSON 要求恰好 90 格。
func (b *Board) UnmarshalJSON(data []byte) error {
	var cells []Piece
	if err := json.Unmarshal(data, &cells); err != nil {
		return err
	}
	if len(cells) != NumSquares {
		return fmt.Errorf("board must have %d cells, got %d", NumSquares, len(cells))
	}
	copy(b.Squares[:], cells)
	return nil
}
