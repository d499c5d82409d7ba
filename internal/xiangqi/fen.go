package xiangqi

import (
	"errors"
	"fmt"
	"strings"
)

// Placement 把棋盘压成 FEN 的摆子部分：10 行用 "/" 隔开，空位用数字压缩。
// 不带行棋方。
func Placement(b *Board) string {
	var sb strings.Builder
	sb.Grow(NumSquares + Rows)
	for r := 0; r < Rows; r++ {
		if r > 0 {
			sb.WriteByte('/')
		}
		empty := 0
		for c := 0; c < Cols; c++ {
			pc := b.Squares[IndexOf(r, c)]
			if pc == 0 {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteByte(byte('0' + empty))
				empty = 0
			}
			sb.WriteRune(pieceToChar(pc))
		}
		if empty > 0 {
			sb.WriteByte(byte('0' + empty))
		}
	}
	return sb.String()
}

// sideMarker 红走对应引擎的 "w"，黑走对应 "b"，固定映射。
func sideMarker(side Side) string {
	if side == Red {
		return "w"
	}
	return "b"
}

// WithSide 给 fen 加上行棋方；若已带空格后缀，从第一个空格起覆盖而不是追加。
func WithSide(fen string, side Side) string {
	suffix := " " + sideMarker(side)
	if sp := strings.IndexByte(fen, ' '); sp >= 0 {
		return fen[:sp] + suffix
	}
	return fen + suffix
}

// Encode = Placement + 行棋方。每次调用都重新计算，不缓存。
func Encode(b *Board, side Side) string {
	return WithSide(Placement(b), side)
}

var ErrInvalidFEN = errors.New("invalid FEN")

// DecodePosition 解析 Encode 的输出。行棋方缺省为红。
func DecodePosition(fen string) (Board, Side, error) {
	var b Board
	fields := strings.Fields(fen)
	if len(fields) == 0 {
		return b, NoSide, ErrInvalidFEN
	}
	rows := strings.Split(fields[0], "/")
	if len(rows) != Rows {
		return b, NoSide, fmt.Errorf("%w: expected %d rows, got %d", ErrInvalidFEN, Rows, len(rows))
	}
	for r, row := range rows {
		c := 0
		for _, ch := range row {
			if c >= Cols {
				return b, NoSide, fmt.Errorf("%w: row %d overflows", ErrInvalidFEN, r)
			}
			if ch >= '1' && ch <= '9' {
				c += int(ch - '0')
				continue
			}
			pc, ok := charToPiece(ch)
			if !ok {
				return b, NoSide, fmt.Errorf("%w: unknown piece %q", ErrInvalidFEN, ch)
			}
			b.Squares[IndexOf(r, c)] = pc
			c++
		}
		if c != Cols {
			return b, NoSide, fmt.Errorf("%w: row %d has %d columns", ErrInvalidFEN, r, c)
		}
	}

	side := Red
	if len(fields) > 1 {
		switch fields[1] {
		case "w", "r":
			side = Red
		case "b":
			side = Black
		default:
			return b, NoSide, fmt.Errorf("%w: side %q", ErrInvalidFEN, fields[1])
		}
	}
	return b, side, nil
}
