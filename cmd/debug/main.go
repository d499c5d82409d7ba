package main

import (
	"fmt"
	"os"

	"xqbridge/internal/engine"
	"xqbridge/internal/xiangqi"
)

// 打印初始局面的 FEN，并把几个原生招法译回 0..89 的格子编号，便于对照引擎日志。
func main() {
	b := xiangqi.NewInitialBoard()
	fmt.Println("FEN:", xiangqi.Encode(&b, xiangqi.Red))
	fmt.Println("Pieces:", b.Count())

	samples := []engine.Move{
		engine.MakeMove(engine.SquareXY(engine.FileLeft+7, engine.RankTop+7), engine.SquareXY(engine.FileLeft+4, engine.RankTop+7)),
		engine.MakeMove(engine.SquareXY(engine.FileLeft, engine.RankTop), engine.SquareXY(engine.FileLeft+8, engine.RankBottom)),
		engine.NullMove,
		engine.MakeMove(0, 1),
	}
	for _, mv := range samples {
		host, err := engine.DecodeMove(mv)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%v (%d): %v\n", mv, uint32(mv), err)
			continue
		}
		fmt.Printf("%v (%d) -> %d->%d\n", mv, uint32(mv), host.From, host.To)
	}
}
