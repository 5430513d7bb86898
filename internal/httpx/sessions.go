package httpx

import (
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/bjacotg/pompei/internal/game"
	"github.com/bjacotg/pompei/internal/match"
	"github.com/bjacotg/pompei/internal/player"
)

const (
	frameState  = "state"
	frameClosed = "closed"
)

// session is one game hosted by the server. mu guards match.
type session struct {
	id          string
	created     time.Time
	autoAdvance bool
	stream      *stream

	mu    sync.Mutex
	match *match.Match
}

type seatView struct {
	Kind string `json:"kind"`
	Name string `json:"name"`
}

type gameView struct {
	ID          string         `json:"id"`
	Seats       [2]seatView    `json:"seats"`
	Turns       int            `json:"turns"`
	AutoAdvance bool           `json:"autoAdvance"`
	State       game.GameState `json:"state"`
}

// view must be called with sess.mu held.
func (sess *session) view() gameView {
	v := gameView{
		ID:          sess.id,
		Turns:       sess.match.Turns(),
		AutoAdvance: sess.autoAdvance,
		State:       sess.match.Game().State(),
	}
	for i, seat := range sess.match.Seats() {
		v.Seats[i] = seatView{Kind: seat.Kind.String(), Name: seat.Kind.DisplayName()}
	}
	return v
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (*session, bool) {
	id := r.PathValue("id")
	s.sessMu.Lock()
	sess, ok := s.sessions[id]
	s.sessMu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown game %q", id))
		return nil, false
	}
	return sess, true
}

// ---- API: seat kinds ----

func (s *Server) handleKinds(w http.ResponseWriter, r *http.Request) {
	kinds := make([]seatView, 0, len(player.Kinds()))
	for _, k := range player.Kinds() {
		kinds = append(kinds, seatView{Kind: k.String(), Name: k.DisplayName()})
	}
	writeJSON(w, map[string]any{"kinds": kinds})
}

// ---- API: game lifecycle ----

type createBody struct {
	Player1     string `json:"player1"`
	Player2     string `json:"player2"`
	Seed        uint64 `json:"seed"`
	Eval        string `json:"eval"`
	AutoAdvance *bool  `json:"autoAdvance"`
}

func parseSeatKind(s string) (player.Kind, error) {
	if strings.TrimSpace(s) == "" {
		return player.KindHuman, nil
	}
	return player.ParseKind(s)
}

func (s *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var body createBody
	if r.ContentLength != 0 && !decodeBody(w, r, &body) {
		return
	}
	eval := body.Eval
	if eval == "" {
		eval = s.defaultEval
	}

	var seats [2]match.Seat
	for i, name := range [2]string{body.Player1, body.Player2} {
		kind, err := parseSeatKind(name)
		if err != nil {
			s.writeGameError(w, "", err)
			return
		}
		opts := player.Options{Eval: eval}
		if body.Seed != 0 {
			opts.Seed = body.Seed + uint64(i)
		}
		seat, err := match.NewSeat(kind, opts)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		seats[i] = seat
	}

	id := uuid.NewString()
	logger := s.log.With(zap.String("game_id", id))
	sess := &session{
		id:          id,
		created:     time.Now(),
		autoAdvance: body.AutoAdvance == nil || *body.AutoAdvance,
		stream:      newStream(logger),
		match:       match.New(seats, logger),
	}

	s.sessMu.Lock()
	if len(s.sessions) >= s.maxSessions {
		s.sessMu.Unlock()
		writeError(w, http.StatusServiceUnavailable, "too many games in progress")
		return
	}
	s.sessions[id] = sess
	s.sessMu.Unlock()

	logger.Info("game created",
		zap.Stringer("player1", seats[0].Kind),
		zap.Stringer("player2", seats[1].Kind),
		zap.Bool("auto_advance", sess.autoAdvance),
	)

	sess.mu.Lock()
	var err error
	if sess.autoAdvance {
		_, err = sess.match.Advance(0)
	}
	view := sess.view()
	sess.mu.Unlock()
	if err != nil {
		s.writeGameError(w, id, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, view)
}

type gameSummary struct {
	ID        string      `json:"id"`
	Seats     [2]seatView `json:"seats"`
	Turns     int         `json:"turns"`
	HasWinner bool        `json:"hasWinner"`
	Created   time.Time   `json:"created"`
}

func (s *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	s.sessMu.Lock()
	list := make([]*session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		list = append(list, sess)
	}
	s.sessMu.Unlock()
	slices.SortFunc(list, func(a, b *session) int { return a.created.Compare(b.created) })

	games := make([]gameSummary, 0, len(list))
	for _, sess := range list {
		sess.mu.Lock()
		v := sess.view()
		sess.mu.Unlock()
		games = append(games, gameSummary{
			ID:        v.ID,
			Seats:     v.Seats,
			Turns:     v.Turns,
			HasWinner: v.State.HasWinner,
			Created:   sess.created,
		})
	}
	writeJSON(w, map[string]any{"games": games})
}

func (s *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	sess.mu.Lock()
	v := sess.view()
	sess.mu.Unlock()
	writeJSON(w, v)
}

func (s *Server) handleDeleteGame(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.sessMu.Lock()
	delete(s.sessions, sess.id)
	s.sessMu.Unlock()

	sess.mu.Lock()
	sess.stream.publish(frameClosed, map[string]string{"id": sess.id})
	sess.stream.close()
	sess.mu.Unlock()

	s.log.Info("game deleted", zap.String("game_id", sess.id))
	w.WriteHeader(http.StatusNoContent)
}

// ---- API: reading the board ----

func (s *Server) handleMoves(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	sess.mu.Lock()
	board := sess.match.Game().Board()
	sess.mu.Unlock()

	moves := board.PossibleMoves()
	if moves == nil {
		moves = []game.Turn{}
	}
	writeJSON(w, map[string]any{
		"player": board.NextPlayer().String(),
		"count":  len(moves),
		"moves":  moves,
	})
}

func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	sess.mu.Lock()
	board := sess.match.Game().Board()
	sess.mu.Unlock()

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(board.String()))
}

// ---- API: acting ----

// mutate runs fn under the session lock, lets automated seats reply when
// the session asks for it, then publishes and returns the new view.
func (s *Server) mutate(w http.ResponseWriter, r *http.Request, fn func(m *match.Match) error) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	sess.mu.Lock()
	err := fn(sess.match)
	if err == nil && sess.autoAdvance {
		_, err = sess.match.Advance(0)
	}
	view := sess.view()
	if err == nil {
		sess.stream.publish(frameState, view)
	}
	sess.mu.Unlock()

	if err != nil {
		s.writeGameError(w, sess.id, err)
		return
	}
	writeJSON(w, view)
}

type selectBody struct {
	Cell string `json:"cell"`
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var body selectBody
	if !decodeBody(w, r, &body) {
		return
	}
	p, err := game.ParsePosition(body.Cell)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	s.mutate(w, r, func(m *match.Match) error { return m.Select(p) })
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	s.mutate(w, r, func(m *match.Match) error { return m.Cancel() })
}

func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	var turn game.Turn
	if !decodeBody(w, r, &turn) {
		return
	}
	s.mutate(w, r, func(m *match.Match) error { return m.Play(turn) })
}

// handleAdvance steps automated seats, one turn unless ?limit= says
// otherwise (0 runs until a human must act or the game ends).
func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	limit := 1
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid limit %q", raw))
			return
		}
		limit = n
	}

	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	sess.mu.Lock()
	played, err := advance(sess.match, limit)
	view := sess.view()
	if len(played) > 0 {
		sess.stream.publish(frameState, view)
	}
	sess.mu.Unlock()

	if err != nil {
		s.writeGameError(w, sess.id, err)
		return
	}
	writeJSON(w, map[string]any{"played": played, "game": view})
}

// advance plays the first turn with Step so a caller asking for an
// automated turn that cannot happen gets the reason.
func advance(m *match.Match, limit int) ([]game.Turn, error) {
	first, err := m.Step()
	if err != nil {
		return nil, err
	}
	played := []game.Turn{first}
	if limit == 1 {
		return played, nil
	}
	// limit 0 becomes -1 here, which Advance reads as unbounded.
	rest, err := m.Advance(limit - 1)
	return append(played, rest...), err
}
