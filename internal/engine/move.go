package engine

import (
	"fmt"

	"xqbridge/internal/xiangqi"
)

// 引擎原生坐标：16 列宽的 256 格棋盘，四周留边。
// 可走区域 x ∈ [FileLeft, FileRight]，y ∈ [RankTop, RankBottom]。
const (
	FileLeft   = 3
	FileRight  = FileLeft + xiangqi.Cols - 1 // 11
	RankTop    = 3
	RankBottom = RankTop + xiangqi.Rows - 1 // 12

	boardStride = 16
)

func FileX(sq int) int     { return sq & 15 }
func RankY(sq int) int     { return sq >> 4 }
func SquareXY(x, y int) int { return x + y<<4 }

func inBoard(sq int) bool {
	x, y := FileX(sq), RankY(sq)
	return sq >= 0 && sq < boardStride*boardStride &&
		x >= FileLeft && x <= FileRight && y >= RankTop && y <= RankBottom
}

// Move 引擎原生招法：低 8 位起点，高 8 位终点。
type Move uint32

// NullMove 表示引擎没有给出招法。
const NullMove Move = 0

func MakeMove(src, dst int) Move { return Move(src + dst<<8) }

func (m Move) Src() int { return int(m & 255) }
func (m Move) Dst() int { return int(m >> 8) }

func (m Move) String() string {
	return fmt.Sprintf("%d->%d", m.Src(), m.Dst())
}

// SquareToIndex 去掉边距后线性化为 row*9+col；落在边距上返回 false。
func SquareToIndex(sq int) (int, bool) {
	if !inBoard(sq) {
		return -1, false
	}
	return xiangqi.IndexOf(RankY(sq)-RankTop, FileX(sq)-FileLeft), true
}

func IndexToSquare(idx int) int {
	return SquareXY(xiangqi.ColOf(idx)+FileLeft, xiangqi.RowOf(idx)+RankTop)
}

// DecodeSquares 把原生起止格转成宿主招法，任一端越界则整步作废。
func DecodeSquares(src, dst int) (xiangqi.Move, error) {
	from, ok := SquareToIndex(src)
	if !ok {
		return xiangqi.Move{}, fmt.Errorf("%w: source square %d off board", ErrInvalidResult, src)
	}
	to, ok := SquareToIndex(dst)
	if !ok {
		return xiangqi.Move{}, fmt.Errorf("%w: destination square %d off board", ErrInvalidResult, dst)
	}
	return xiangqi.Move{From: from, To: to}, nil
}

// DecodeMove 使用默认的打包格式解码。
func DecodeMove(mv Move) (xiangqi.Move, error) {
	if mv == NullMove {
		return xiangqi.Move{}, ErrNoMove
	}
	return DecodeSquares(mv.Src(), mv.Dst())
}
