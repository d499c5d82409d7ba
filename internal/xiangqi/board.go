package xiangqi

import (
	"strings"
	"unicode"
)

const (
	Rows       = 10
	Cols       = 9
	NumSquares = Rows * Cols
)

func IndexOf(row, col int) int { return row*Cols + col }
func RowOf(sq int) int          { return sq / Cols }
func ColOf(sq int) int          { return sq % Cols }

func OnBoard(row, col int) bool {
	return row >= 0 && row < Rows && col >= 0 && col < Cols
}

var letterToPieceType = map[rune]PieceType{
	'k': PieceKing,
	'a': PieceAdvisor,
	'e': PieceElephant,
	'h': PieceHorse,
	'r': PieceRook,
	'c': PieceCannon,
	'p': PiecePawn,
}

var pieceTypeToLetter = [numPieceTypes]rune{
	PieceKing:     'k',
	PieceAdvisor:  'a',
	PieceElephant: 'e',
	PieceHorse:    'h',
	PieceRook:     'r',
	PieceCannon:   'c',
	PiecePawn:     'p',
}

// pieceToChar 大写=红，小写=黑；非法值写成 'x'。
func pieceToChar(p Piece) rune {
	if p == 0 {
		return '.'
	}
	if !p.Valid() {
		return 'x'
	}
	base := pieceTypeToLetter[p.Type()]
	if p.Side() == Red {
		return unicode.ToUpper(base)
	}
	return base
}

func charToPiece(ch rune) (Piece, bool) {
	pt, ok := letterToPieceType[unicode.ToLower(ch)]
	if !ok {
		return 0, false
	}
	side := Black
	if unicode.IsUpper(ch) {
		side = Red
	}
	return MakePiece(side, pt), true
}

// 标准开局，黑上红下
const initialBoardString = `rheakaehr
.........
.c.....c.
p.p.p.p.p
.........
.........
P.P.P.P.P
.C.....C.
.........
RHEAKAEHR`

func parseInitialBoard() Board {
	var b Board
	lines := make([]string, 0, Rows)
	for _, line := range strings.Split(initialBoardString, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if len(lines) != Rows {
		panic("initialBoardString: expected 10 rows")
	}
	for r := 0; r < Rows; r++ {
		if len(lines[r]) != Cols {
			panic("initialBoardString: expected 9 columns")
		}
		for c, ch := range lines[r] {
			if ch == '.' {
				continue
			}
			pc, ok := charToPiece(ch)
			if !ok {
				panic("unknown piece letter: " + string(ch))
			}
			b.Squares[IndexOf(r, c)] = pc
		}
	}
	return b
}

func NewInitialBoard() Board {
	return parseInitialBoard()
}

// Apply 只搬动棋子，不检查规则；返回被吃掉的子。
func (b *Board) Apply(m Move) Piece {
	captured := b.Squares[m.To]
	b.Squares[m.To] = b.Squares[m.From]
	b.Squares[m.From] = 0
	return captured
}

func (b *Board) Count() int {
	n := 0
	for _, pc := range b.Squares {
		if pc != 0 {
			n++
		}
	}
	return n
}
