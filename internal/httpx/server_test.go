package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/bjacotg/pompei/internal/game"
)

func newTestServer(cfg Config) *Server {
	return NewServer(cfg, zap.NewNop())
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode body %q: %v", rr.Body.String(), err)
	}
	return v
}

func createGame(t *testing.T, h http.Handler, body string) gameView {
	t.Helper()
	rr := do(t, h, http.MethodPost, "/api/games", body)
	if rr.Code != http.StatusCreated {
		t.Fatalf("create game: status %d: %s", rr.Code, rr.Body.String())
	}
	return decode[gameView](t, rr)
}

func TestCreateAndSelect(t *testing.T) {
	h := newTestServer(Config{}).Handler()
	v := createGame(t, h, "")
	if v.Seats[0].Kind != "human" || v.Seats[1].Kind != "human" {
		t.Fatalf("expected two human seats, got %+v", v.Seats)
	}
	if v.State.Stage != "nothing_setup" || v.State.Selectable.Len() != 25 {
		t.Fatalf("unexpected initial state %+v", v.State)
	}

	path := "/api/games/" + v.ID
	rr := do(t, h, http.MethodPost, path+"/select", `{"cell":"a1"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("select: status %d: %s", rr.Code, rr.Body.String())
	}
	v = decode[gameView](t, rr)
	if v.State.Stage != "partial_setup" || len(v.State.Selected) != 1 || v.State.Selected[0] != game.NewPosition(0, 0) {
		t.Fatalf("unexpected state after first pick %+v", v.State)
	}

	rr = do(t, h, http.MethodPost, path+"/select", `{"cell":"a1"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("selecting the same cell twice: expected 400, got %d", rr.Code)
	}
	rr = do(t, h, http.MethodPost, path+"/select", `{"cell":"z9"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad coordinate: expected 400, got %d", rr.Code)
	}

	rr = do(t, h, http.MethodPost, path+"/cancel", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("cancel: status %d", rr.Code)
	}
	if v = decode[gameView](t, rr); v.State.Stage != "nothing_setup" {
		t.Fatalf("cancel should restart placement, got %s", v.State.Stage)
	}

	rr = do(t, h, http.MethodGet, path, "")
	if got := decode[gameView](t, rr); got.ID != v.ID || got.State.Stage != "nothing_setup" {
		t.Fatalf("get game returned %+v", got)
	}
	if csp := rr.Header().Get("Content-Security-Policy"); csp != apiCSP {
		t.Fatalf("missing api headers, got %q", csp)
	}
}

func TestUnknownGame(t *testing.T) {
	h := newTestServer(Config{}).Handler()
	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/api/games/nope"},
		{http.MethodGet, "/api/games/nope/moves"},
		{http.MethodGet, "/api/games/nope/board"},
		{http.MethodPost, "/api/games/nope/cancel"},
		{http.MethodDelete, "/api/games/nope"},
	} {
		if rr := do(t, h, tc.method, tc.path, ""); rr.Code != http.StatusNotFound {
			t.Fatalf("%s %s: expected 404, got %d", tc.method, tc.path, rr.Code)
		}
	}
}

func TestCreateRejectsBadInput(t *testing.T) {
	h := newTestServer(Config{}).Handler()
	for name, body := range map[string]string{
		"unknown kind": `{"player1":"minimax"}`,
		"bad eval":     `{"player2":"greedy","eval":"MoverFirst +"}`,
		"bad json":     `{"player1":`,
	} {
		if rr := do(t, h, http.MethodPost, "/api/games", body); rr.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d: %s", name, rr.Code, rr.Body.String())
		}
	}
}

func TestHumanAgainstGreedy(t *testing.T) {
	h := newTestServer(Config{}).Handler()
	v := createGame(t, h, `{"player2":"greedy"}`)
	path := "/api/games/" + v.ID

	do(t, h, http.MethodPost, path+"/select", `{"cell":"a1"}`)
	rr := do(t, h, http.MethodPost, path+"/select", `{"cell":"b1"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("select: status %d: %s", rr.Code, rr.Body.String())
	}
	v = decode[gameView](t, rr)
	if v.Turns != 2 || !v.State.SetupDone {
		t.Fatalf("the automated seat should have replied, got %d turns", v.Turns)
	}
	if v.State.NextPlayer != game.Player1 || v.State.Stage != "nothing" {
		t.Fatalf("expected player 1 to pick a worker, got %+v", v.State)
	}
}

func TestManualAdvance(t *testing.T) {
	h := newTestServer(Config{}).Handler()
	v := createGame(t, h, `{"player1":"random","seed":5,"autoAdvance":false}`)
	path := "/api/games/" + v.ID
	if v.Turns != 0 {
		t.Fatalf("manual sessions must not move on creation")
	}

	if rr := do(t, h, http.MethodPost, path+"/select", `{"cell":"a1"}`); rr.Code != http.StatusConflict {
		t.Fatalf("selection on an automated turn: expected 409, got %d", rr.Code)
	}

	rr := do(t, h, http.MethodPost, path+"/advance", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("advance: status %d: %s", rr.Code, rr.Body.String())
	}
	out := decode[struct {
		Played []game.Turn `json:"played"`
		Game   gameView    `json:"game"`
	}](t, rr)
	if len(out.Played) != 1 || out.Played[0].Kind != game.TurnSetup || out.Game.Turns != 1 {
		t.Fatalf("expected one automated setup, got %+v", out.Played)
	}

	if rr := do(t, h, http.MethodPost, path+"/advance", ""); rr.Code != http.StatusConflict {
		t.Fatalf("advance on a human turn: expected 409, got %d", rr.Code)
	}
	if rr := do(t, h, http.MethodPost, path+"/advance?limit=x", ""); rr.Code != http.StatusBadRequest {
		t.Fatalf("bad limit: expected 400, got %d", rr.Code)
	}
}

func TestAutomatedGameRunsToTheEnd(t *testing.T) {
	h := newTestServer(Config{}).Handler()
	v := createGame(t, h, `{"player1":"random","player2":"greedy","seed":3}`)
	if !v.State.HasWinner || v.State.WinnerName == "" {
		t.Fatalf("expected a finished game, got %+v", v.State)
	}
	path := "/api/games/" + v.ID
	if rr := do(t, h, http.MethodPost, path+"/advance", ""); rr.Code != http.StatusConflict {
		t.Fatalf("advance after the end: expected 409, got %d", rr.Code)
	}

	rr := do(t, h, http.MethodGet, "/api/games", "")
	list := decode[struct {
		Games []gameSummary `json:"games"`
	}](t, rr)
	if len(list.Games) != 1 || list.Games[0].ID != v.ID || !list.Games[0].HasWinner {
		t.Fatalf("unexpected listing %+v", list.Games)
	}
}

func TestPlayMovesAndBoard(t *testing.T) {
	h := newTestServer(Config{}).Handler()
	v := createGame(t, h, "")
	path := "/api/games/" + v.ID

	rr := do(t, h, http.MethodGet, path+"/moves", "")
	moves := decode[struct {
		Player string      `json:"player"`
		Count  int         `json:"count"`
		Moves  []game.Turn `json:"moves"`
	}](t, rr)
	if moves.Count != 600 || len(moves.Moves) != 600 || moves.Player != "Player 1" {
		t.Fatalf("expected 600 setup turns for player 1, got %d (%s)", moves.Count, moves.Player)
	}

	rr = do(t, h, http.MethodPost, path+"/play", `{"kind":"setup","start":"a1","end":"c3"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("play: status %d: %s", rr.Code, rr.Body.String())
	}
	if v = decode[gameView](t, rr); v.State.NextPlayer != game.Player2 {
		t.Fatalf("expected player 2 to act after setup")
	}
	rr = do(t, h, http.MethodPost, path+"/play", `{"kind":"setup","start":"a1","end":"b1"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("setup onto an occupied cell: expected 400, got %d", rr.Code)
	}
	rr = do(t, h, http.MethodPost, path+"/play", `{"kind":"teleport"}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("unknown turn kind: expected 400, got %d", rr.Code)
	}

	rr = do(t, h, http.MethodGet, path+"/board", "")
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("expected a text board, got %q", ct)
	}
	board, err := game.ParseBoard(rr.Body.String())
	if err != nil {
		t.Fatalf("board endpoint is not parseable: %v", err)
	}
	if !board.Workers(game.Player1).Contains(game.NewPosition(2, 2)) {
		t.Fatalf("expected a player 1 worker on c3:\n%s", board)
	}
}

func TestDeleteAndSessionLimit(t *testing.T) {
	h := newTestServer(Config{MaxSessions: 1}).Handler()
	v := createGame(t, h, "")
	if rr := do(t, h, http.MethodPost, "/api/games", ""); rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 over the session limit, got %d", rr.Code)
	}
	if rr := do(t, h, http.MethodDelete, "/api/games/"+v.ID, ""); rr.Code != http.StatusNoContent {
		t.Fatalf("delete: expected 204, got %d", rr.Code)
	}
	if rr := do(t, h, http.MethodGet, "/api/games/"+v.ID, ""); rr.Code != http.StatusNotFound {
		t.Fatalf("deleted game: expected 404, got %d", rr.Code)
	}
	createGame(t, h, "")
}

func TestKindsAndHealth(t *testing.T) {
	h := newTestServer(Config{}).Handler()
	kinds := decode[struct {
		Kinds []seatView `json:"kinds"`
	}](t, do(t, h, http.MethodGet, "/api/kinds", ""))
	if len(kinds.Kinds) != 3 || kinds.Kinds[2].Name != "Greedy hill climber" {
		t.Fatalf("unexpected kinds %+v", kinds.Kinds)
	}
	if rr := do(t, h, http.MethodGet, "/healthz", ""); rr.Code != http.StatusOK || rr.Body.String() != "ok" {
		t.Fatalf("healthz: %d %q", rr.Code, rr.Body.String())
	}
}

type frame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func readFrame(t *testing.T, conn *websocket.Conn) frame {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var f frame
	if err := conn.ReadJSON(&f); err != nil {
		t.Fatalf("read frame: %v", err)
	}
	return f
}

func TestStream(t *testing.T) {
	srv := newTestServer(Config{})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()
	defer srv.Close(context.Background())

	v := createGame(t, srv.Handler(), "")
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/games/" + v.ID + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	f := readFrame(t, conn)
	var view gameView
	if err := json.Unmarshal(f.Payload, &view); err != nil || f.Type != frameState {
		t.Fatalf("expected an initial state frame, got %s: %v", f.Type, err)
	}
	if view.ID != v.ID || view.State.Stage != "nothing_setup" {
		t.Fatalf("unexpected initial view %+v", view)
	}

	resp, err := http.Post(ts.URL+"/api/games/"+v.ID+"/select", "application/json", strings.NewReader(`{"cell":"c3"}`))
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("select: status %d", resp.StatusCode)
	}

	f = readFrame(t, conn)
	if err := json.Unmarshal(f.Payload, &view); err != nil {
		t.Fatalf("decode update: %v", err)
	}
	if view.State.Stage != "partial_setup" || view.State.Selected[0] != game.NewPosition(2, 2) {
		t.Fatalf("stream did not carry the selection: %+v", view.State)
	}

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/games/"+v.ID, nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	resp.Body.Close()
	if f = readFrame(t, conn); f.Type != frameClosed {
		t.Fatalf("expected a closed frame, got %s", f.Type)
	}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, _, err := conn.ReadMessage(); !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Fatalf("expected a normal close, got %v", err)
	}
}

func TestStreamUnknownGame(t *testing.T) {
	srv := newTestServer(Config{})
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/games/missing/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatalf("expected the dial to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %v", resp)
	}
}
