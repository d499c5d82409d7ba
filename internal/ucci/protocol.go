// Package ucci 通过 UCCI / UCI 驱动外部象棋引擎进程（ElephantEye、Pikafish 等），
// 并把它包装成 engine.Runtime。
package ucci

import (
	"fmt"
	"strings"

	"xqbridge/internal/engine"
	"xqbridge/internal/xiangqi"
)

type Protocol string

const (
	ProtocolUCCI Protocol = "ucci"
	ProtocolUCI  Protocol = "uci"
)

func (p Protocol) handshake() (cmd, ok string) {
	if p == ProtocolUCI {
		return "uci", "uciok"
	}
	return "ucci", "ucciok"
}

func (p Protocol) setHash(mb int) string {
	if p == ProtocolUCI {
		return fmt.Sprintf("setoption name Hash value %d", mb)
	}
	return fmt.Sprintf("setoption hashsize %d", mb)
}

// ICCS 坐标：
// - 列：a-i（从左到右，红方在下）
// - 行：0-9（从下往上）
// - 例：h2e2（炮二平五）
//
// 宿主坐标：第 0 行在上（黑方），第 0 列在左。

// iccsToSquare 把单个 ICCS 格（"h2"）转成引擎原生格。
func iccsToSquare(s string) (int, error) {
	if len(s) != 2 {
		return 0, fmt.Errorf("invalid ICCS square %q", s)
	}
	file := int(s[0] - 'a')
	rank := int(s[1] - '0')
	if file < 0 || file >= xiangqi.Cols || rank < 0 || rank >= xiangqi.Rows {
		return 0, fmt.Errorf("ICCS square out of range: %q", s)
	}
	return engine.SquareXY(engine.FileLeft+file, engine.RankTop+xiangqi.Rows-1-rank), nil
}

// squareToICCS 是 iccsToSquare 的逆。
func squareToICCS(sq int) string {
	file := engine.FileX(sq) - engine.FileLeft
	rank := xiangqi.Rows - 1 - (engine.RankY(sq) - engine.RankTop)
	return fmt.Sprintf("%c%d", 'a'+rune(file), rank)
}

// parseICCSMove 把 "h2e2" 转成打包的原生招法。
func parseICCSMove(s string) (engine.Move, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != 4 {
		return engine.NullMove, fmt.Errorf("%w: bad move %q", engine.ErrInvalidResult, s)
	}
	src, err := iccsToSquare(s[:2])
	if err != nil {
		return engine.NullMove, fmt.Errorf("%w: %w", engine.ErrInvalidResult, err)
	}
	dst, err := iccsToSquare(s[2:])
	if err != nil {
		return engine.NullMove, fmt.Errorf("%w: %w", engine.ErrInvalidResult, err)
	}
	return engine.MakeMove(src, dst), nil
}

func moveToICCS(mv engine.Move) string {
	return squareToICCS(mv.Src()) + squareToICCS(mv.Dst())
}

// 宿主用 h/e 表示马/相，引擎一侧用 n/b。
var toEngineLetters = strings.NewReplacer("h", "n", "H", "N", "e", "b", "E", "B")

// positionCommand 把宿主 FEN 转成 "fen <placement> <w|b> - - 0 1"。
func positionCommand(fen string) (string, error) {
	b, side, err := xiangqi.DecodePosition(fen)
	if err != nil {
		return "", err
	}
	placement := toEngineLetters.Replace(xiangqi.Placement(&b))
	marker := "w"
	if side == xiangqi.Black {
		marker = "b"
	}
	return fmt.Sprintf("fen %s %s - - 0 1", placement, marker), nil
}

// parseBestMove 识别搜索结束行。done=false 表示这行不是结果（info 等）。
func parseBestMove(line string) (mv engine.Move, done bool, err error) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return engine.NullMove, false, nil
	}
	switch fields[0] {
	case "nobestmove":
		return engine.NullMove, true, nil
	case "bestmove":
		if len(fields) < 2 || fields[1] == "(none)" || fields[1] == "0000" {
			return engine.NullMove, true, nil
		}
		mv, err := parseICCSMove(fields[1])
		return mv, true, err
	default:
		return engine.NullMove, false, nil
	}
}

// hashSizeMB 2^level 项，每项按 16 字节估算，至少 1MB。
func hashSizeMB(level int) int {
	if level <= 0 {
		return 1
	}
	if level > 40 {
		level = 40
	}
	mb := (int64(16) << uint(level)) >> 20
	if mb < 1 {
		return 1
	}
	return int(mb)
}
