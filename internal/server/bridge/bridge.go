package main

/*
#include <stdbool.h>
#include <stdint.h>
*/
import "C"
import (
	"os"
	"sync"
	"time"
	"unsafe"

	"github.com/rs/zerolog"

	"xqbridge/internal/engine"
	"xqbridge/internal/ucci"
	"xqbridge/internal/xiangqi"
)

// C 侧棋盘布局：每格一个 int8，四周各留一圈墙，stride = xSize+1。
// 格值 0=空，3=墙，其余高 4 位是玩家（1=红，2=黑），低 4 位是子力类型。
const (
	cEmpty = 0
	cWall  = 3
)

var (
	mu      sync.Mutex
	adapter *engine.Adapter
	driver  *ucci.Driver
	log     = zerolog.New(os.Stderr).With().Timestamp().Str("component", "bridge").Logger()
)

//export XQ_Init
func XQ_Init(path *C.char, timeMs C.int) C.bool {
	mu.Lock()
	if adapter == nil {
		cfg := ucci.Config{Path: C.GoString(path)}
		driver = ucci.New(cfg, log)
		sc := engine.SearchConfig{TimeLimit: time.Duration(timeMs) * time.Millisecond}
		adapter = engine.NewAdapter(driver, engine.WithSearchConfig(sc), engine.WithLogger(log))
	}
	a := adapter
	mu.Unlock()
	return C.bool(a.InitEngine())
}

//export XQ_BestMove
func XQ_BestMove(boardPtr *C.int8_t, xSize, ySize C.int, pla C.int8_t, fromOut, toOut *C.short) C.bool {
	mu.Lock()
	a := adapter
	mu.Unlock()
	if a == nil || !validBoardArgs(unsafe.Pointer(boardPtr), unsafe.Pointer(fromOut), unsafe.Pointer(toOut), int(xSize), int(ySize)) {
		return C.bool(false)
	}

	start := time.Now()
	b := cToGoBoard(boardPtr, xSize, ySize)
	mv := a.GetBestMove(b, cToGoSide(pla))
	if mv == nil {
		return C.bool(false)
	}
	*fromOut = C.short(hostToCLoc(mv.From, int(xSize)))
	*toOut = C.short(hostToCLoc(mv.To, int(xSize)))

	if elapsed := time.Since(start); elapsed > 5*time.Second {
		log.Warn().Dur("took", elapsed).Msg("slow XQ_BestMove")
	}
	return C.bool(true)
}

//export XQ_Close
func XQ_Close() {
	mu.Lock()
	defer mu.Unlock()
	if driver != nil {
		_ = driver.Close()
	}
	driver, adapter = nil, nil
}

func cToGoBoard(ptr *C.int8_t, xSize, ySize C.int) xiangqi.Board {
	var b xiangqi.Board
	stride := int(xSize) + 1
	cells := unsafe.Slice(ptr, (int(ySize)+2)*stride)
	for y := 0; y < xiangqi.Rows; y++ {
		for x := 0; x < xiangqi.Cols; x++ {
			val := cells[(x+1)+(y+1)*stride]
			if val == cEmpty || val == cWall {
				continue
			}
			side := xiangqi.Red
			if val>>4 == 2 {
				side = xiangqi.Black
			}
			b.Squares[xiangqi.IndexOf(y, x)] = xiangqi.MakePiece(side, xiangqi.PieceType(val&0xF))
		}
	}
	return b
}

func cToGoSide(pla C.int8_t) xiangqi.Side {
	if pla == 1 {
		return xiangqi.Red
	}
	return xiangqi.Black
}

// validBoardArgs 指针都不能为空，棋盘必须是 9x10。
func validBoardArgs(board, fromOut, toOut unsafe.Pointer, xSize, ySize int) bool {
	if board == nil || fromOut == nil || toOut == nil {
		return false
	}
	return xSize == xiangqi.Cols && ySize == xiangqi.Rows
}

func hostToCLoc(idx, xSize int) int {
	stride := xSize + 1
	return (xiangqi.ColOf(idx) + 1) + (xiangqi.RowOf(idx)+1)*stride
}

func main() {}
