package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"xqbridge/internal/engine"
	"xqbridge/internal/server/game"
	"xqbridge/internal/xiangqi"
)

type stubRuntime struct {
	mv      engine.Move
	loadErr error
	gone    atomic.Bool // 模拟引擎进程在就绪后退出
}

func (s *stubRuntime) Modules() []engine.Module {
	return []engine.Module{{Name: "stub", Load: func(context.Context) error { return s.loadErr }}}
}

func (s *stubRuntime) Capabilities() *engine.Capabilities {
	if s.loadErr != nil || s.gone.Load() {
		return nil
	}
	return (&engine.Capabilities{
		NewPosition: func(fen string) (engine.Position, error) { return fen, nil },
		Search: func(engine.Position, int, int, time.Duration) (engine.Move, error) {
			return s.mv, nil
		},
	}).DefaultAccessors()
}

func newTestServer(t *testing.T, rt engine.Runtime) *httptest.Server {
	t.Helper()
	h := NewHandler(game.NewManager(nil), engine.NewAdapter(rt), zerolog.Nop())
	srv := httptest.NewServer(NewServer("", h, "", zerolog.Nop()))
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, srv *httptest.Server, path string, body, out any) int {
	t.Helper()
	data, _ := json.Marshal(body)
	resp, err := http.Post(srv.URL+path, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode == http.StatusOK {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
	}
	return resp.StatusCode
}

func TestGameFlow(t *testing.T) {
	// 黑方 炮8平5：(2,7)->(2,4)
	from, to := xiangqi.IndexOf(2, 7), xiangqi.IndexOf(2, 4)
	srv := newTestServer(t, &stubRuntime{mv: engine.MakeMove(engine.IndexToSquare(from), engine.IndexToSquare(to))})

	var ng NewGameResponse
	if code := post(t, srv, "/api/new_game", struct{}{}, &ng); code != http.StatusOK {
		t.Fatalf("new_game: %d", code)
	}
	if ng.GameID == "" || ng.ToMove != "r" || ng.Board != xiangqi.NewInitialBoard() {
		t.Fatalf("new_game: %+v", ng)
	}

	var st StateResponse
	play := PlayRequest{GameID: ng.GameID, Move: MoveDTO{From: xiangqi.IndexOf(7, 7), To: xiangqi.IndexOf(7, 4)}}
	if code := post(t, srv, "/api/play", play, &st); code != http.StatusOK {
		t.Fatalf("play: %d", code)
	}
	if st.ToMove != "b" || len(st.Moves) != 1 {
		t.Fatalf("play: %+v", st)
	}

	var ai AiMoveResponse
	if code := post(t, srv, "/api/ai_move", AiMoveRequest{GameID: ng.GameID}, &ai); code != http.StatusOK {
		t.Fatalf("ai_move: %d", code)
	}
	if ai.Status != "ok" || ai.BestMove == nil || *ai.BestMove != (MoveDTO{From: from, To: to}) {
		t.Fatalf("ai_move: %+v", ai)
	}
	if ai.Position != st.Position || ai.ToMove != "b" {
		t.Fatalf("ai_move position=%q to_move=%q, want %q b", ai.Position, ai.ToMove, st.Position)
	}

	// ai_move 只思考不落子
	var again StateResponse
	post(t, srv, "/api/state", StateRequest{GameID: ng.GameID}, &again)
	if len(again.Moves) != 1 {
		t.Fatalf("ai_move changed the game: %+v", again.Moves)
	}
}

func TestAiMoveFromPosition(t *testing.T) {
	srv := newTestServer(t, &stubRuntime{mv: engine.MakeMove(engine.IndexToSquare(4), engine.IndexToSquare(13))})

	var ai AiMoveResponse
	req := AiMoveRequest{Position: "4k4/9/9/9/9/9/9/9/9/4K4 w", ToMove: "b"}
	if code := post(t, srv, "/api/ai_move", req, &ai); code != http.StatusOK {
		t.Fatalf("ai_move: %d", code)
	}
	if ai.Position != "4k4/9/9/9/9/9/9/9/9/4K4 b" || ai.BestMove == nil || ai.BestMove.To != 13 {
		t.Fatalf("ai_move: %+v", ai)
	}

	if code := post(t, srv, "/api/ai_move", AiMoveRequest{Position: "not a fen"}, nil); code != http.StatusBadRequest {
		t.Fatalf("bad fen: got %d", code)
	}
	if code := post(t, srv, "/api/ai_move", AiMoveRequest{}, nil); code != http.StatusBadRequest {
		t.Fatalf("empty request: got %d", code)
	}
}

func TestAiMoveNoMove(t *testing.T) {
	cases := []struct {
		name   string
		rt     engine.Runtime
		reason string
	}{
		{"null move", &stubRuntime{mv: engine.NullMove}, "invalid_result"},
		{"load failure", &stubRuntime{loadErr: errors.New("missing binary")}, "load_failure"},
		{"no runtime", nil, "engine_unavailable"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := newTestServer(t, tc.rt)
			var ai AiMoveResponse
			req := AiMoveRequest{Position: "4k4/9/9/9/9/9/9/9/9/4K4 w"}
			if code := post(t, srv, "/api/ai_move", req, &ai); code != http.StatusOK {
				t.Fatalf("ai_move: %d", code)
			}
			if ai.Status != "no_move" || ai.BestMove != nil || ai.Reason != tc.reason {
				t.Fatalf("got %+v want reason %s", ai, tc.reason)
			}
		})
	}
}

func TestInitEngine(t *testing.T) {
	srv := newTestServer(t, &stubRuntime{loadErr: errors.New("boom")})
	var er EngineResponse
	if code := post(t, srv, "/api/init_engine", struct{}{}, &er); code != http.StatusOK {
		t.Fatalf("init_engine: %d", code)
	}
	if er.Ready || er.State != "failed" || er.Attempts != 1 || er.LastError == "" {
		t.Fatalf("init_engine: %+v", er)
	}

	srv = newTestServer(t, &stubRuntime{})
	post(t, srv, "/api/init_engine", struct{}{}, &er)
	if !er.Ready || er.State != "ready" {
		t.Fatalf("init_engine: %+v", er)
	}
}

func TestEngineStatusAfterProcessExit(t *testing.T) {
	rt := &stubRuntime{}
	srv := newTestServer(t, rt)
	var er EngineResponse
	post(t, srv, "/api/init_engine", struct{}{}, &er)
	if !er.Ready || !er.Available {
		t.Fatalf("init_engine: %+v", er)
	}

	rt.gone.Store(true)
	resp, err := http.Get(srv.URL + "/api/engine")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	er = EngineResponse{}
	if err := json.NewDecoder(resp.Body).Decode(&er); err != nil {
		t.Fatal(err)
	}
	if er.Ready || er.Available || er.State != "ready" {
		t.Fatalf("engine after exit: %+v", er)
	}
}

func TestPlayErrors(t *testing.T) {
	srv := newTestServer(t, nil)
	var ng NewGameResponse
	post(t, srv, "/api/new_game", struct{}{}, &ng)

	if code := post(t, srv, "/api/play", PlayRequest{GameID: "nope"}, nil); code != http.StatusNotFound {
		t.Fatalf("unknown game: %d", code)
	}
	bad := PlayRequest{GameID: ng.GameID, Move: MoveDTO{From: 40, To: 41}}
	if code := post(t, srv, "/api/play", bad, nil); code != http.StatusBadRequest {
		t.Fatalf("bad move: %d", code)
	}

	resp, err := http.Get(srv.URL + "/api/play")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("GET play: %d", resp.StatusCode)
	}
}

func TestStaticRoutes(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "board.html"), []byte("<html>board</html>"), 0644); err != nil {
		t.Fatal(err)
	}
	h := NewHandler(game.NewManager(nil), engine.NewAdapter(nil), zerolog.Nop())
	s := NewServer("", h, dir, zerolog.Nop())

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/web/board.html", nil))
	if rec.Code != http.StatusOK || !bytes.Contains(rec.Body.Bytes(), []byte("board")) {
		t.Fatalf("GET /web/board.html: %d %q", rec.Code, rec.Body.String())
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0)")
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	if rec.Code != http.StatusFound || rec.Header().Get("Location") != "/web_mobile/" {
		t.Fatalf("GET / mobile: %d %q", rec.Code, rec.Header().Get("Location"))
	}

	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?view=pc", nil))
	if rec.Header().Get("Location") != "/web/" || len(rec.Result().Cookies()) != 1 {
		t.Fatalf("GET /?view=pc: %q", rec.Header().Get("Location"))
	}
}

func TestServerRunStops(t *testing.T) {
	h := NewHandler(game.NewManager(nil), engine.NewAdapter(nil), zerolog.Nop())
	s := NewServer("127.0.0.1:0", h, "", zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
