package storage

import (
	"errors"
	"testing"

	"xqbridge/internal/server/game"
	"xqbridge/internal/xiangqi"
)

func openTest(t *testing.T) *Storage {
	t.Helper()
	s, err := OpenInMemory()
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestGamePersistsThroughManager(t *testing.T) {
	s := openTest(t)
	m := game.NewManager(s)
	g, err := m.NewGame()
	if err != nil {
		t.Fatal(err)
	}
	mv := xiangqi.Move{From: xiangqi.IndexOf(9, 1), To: xiangqi.IndexOf(7, 2)}
	if _, err := m.Play(g.ID, mv); err != nil {
		t.Fatalf("Play: %v", err)
	}

	got, err := s.LoadGame(g.ID)
	if err != nil {
		t.Fatalf("LoadGame: %v", err)
	}
	if got.SideToMove != xiangqi.Black || len(got.Moves) != 1 || got.Moves[0] != mv {
		t.Fatalf("loaded: side=%v moves=%v", got.SideToMove, got.Moves)
	}
	if got.Board.Squares[mv.To] != xiangqi.MakePiece(xiangqi.Red, xiangqi.PieceHorse) {
		t.Fatalf("horse not persisted on %d", mv.To)
	}
	if got.Position() != "rheakaehr/9/1c5c1/p1p1p1p1p/9/9/P1P1P1P1P/1CH4C1/9/R1EAKAEHR b" {
		t.Fatalf("position: %q", got.Position())
	}

	// 重新构造 Manager 也能读回
	again, err := game.NewManager(s).Get(g.ID)
	if err != nil || again.UpdatedAt.IsZero() {
		t.Fatalf("reload: %v", err)
	}
}

func TestLoadMissingGame(t *testing.T) {
	s := openTest(t)
	if _, err := s.LoadGame("nope"); !errors.Is(err, game.ErrNotFound) {
		t.Fatalf("got err=%v want ErrNotFound", err)
	}
}

func TestListAndDelete(t *testing.T) {
	s := openTest(t)
	m := game.NewManager(s)
	first, _ := m.NewGame()
	second, _ := m.NewGame()
	if _, err := m.Play(first.ID, xiangqi.Move{From: xiangqi.IndexOf(6, 0), To: xiangqi.IndexOf(5, 0)}); err != nil {
		t.Fatal(err)
	}

	ids, err := s.ListGames()
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 2 || ids[0] != first.ID || ids[1] != second.ID {
		t.Fatalf("ids: %v (first=%s second=%s)", ids, first.ID, second.ID)
	}

	if err := s.DeleteGame(second.ID); err != nil {
		t.Fatal(err)
	}
	ids, _ = s.ListGames()
	if len(ids) != 1 || ids[0] != first.ID {
		t.Fatalf("after delete: %v", ids)
	}
}
