package xiangqi

type Side int8

const (
	NoSide Side = -1
	Red    Side = 0
	Black  Side = 1
)

func (s Side) String() string {
	switch s {
	case Red:
		return "r"
	case Black:
		return "b"
	default:
		return "-"
	}
}

// Opposite 返回对方；NoSide 保持不变。
func (s Side) Opposite() Side {
	switch s {
	case Red:
		return Black
	case Black:
		return Red
	default:
		return NoSide
	}
}

// ParseSide 接受前端的 "r"/"b"，也接受 "red"/"black"。
func ParseSide(v string) (Side, bool) {
	switch v {
	case "r", "red", "w":
		return Red, true
	case "b", "black":
		return Black, true
	default:
		return NoSide, false
	}
}

type PieceType int8

const (
	PieceNone     PieceType = iota
	PieceKing               // 帅 / 将
	PieceAdvisor            // 仕 / 士
	PieceElephant           // 相 / 象
	PieceHorse              // 马
	PieceRook               // 车
	PieceCannon             // 炮
	PiecePawn               // 兵 / 卒

	numPieceTypes = iota
)

type Piece int8 // 0=空；>0 红；<0 黑；abs=PieceType

func MakePiece(side Side, pt PieceType) Piece {
	if pt <= PieceNone || pt >= numPieceTypes || side == NoSide {
		return 0
	}
	if side == Red {
		return Piece(pt)
	}
	return -Piece(pt)
}

func (p Piece) Type() PieceType {
	if p < 0 {
		return PieceType(-p)
	}
	return PieceType(p)
}

func (p Piece) Side() Side {
	if p == 0 {
		return NoSide
	}
	if p > 0 {
		return Red
	}
	return Black
}

// Valid 报告 p 是否为空位或合法棋子。
func (p Piece) Valid() bool {
	t := p.Type()
	return t >= PieceNone && t < numPieceTypes
}

// Board 固定 90 格，行优先：index = row*9 + col。
type Board struct {
	Squares [NumSquares]Piece
}

// Move 是适配层对外唯一的招法类型，From/To 均在 [0,90)。
type Move struct {
	From int `json:"from"`
	To   int `json:"to"`
}

func (m Move) Valid() bool {
	return m.From >= 0 && m.From < NumSquares && m.To >= 0 && m.To < NumSquares
}
