package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/bjacotg/pompei/internal/game"
	"github.com/bjacotg/pompei/internal/match"
	"github.com/bjacotg/pompei/internal/player"
)

// Server wires the HTTP layer to the game sessions.
type Server struct {
	log         *zap.Logger
	maxSessions int
	defaultEval string

	sessMu   sync.Mutex
	sessions map[string]*session

	upgrader websocket.Upgrader

	srvMu sync.Mutex
	srv   *http.Server
}

// Config tunes a Server. Zero values select the defaults.
type Config struct {
	MaxSessions int
	// DefaultEval is the greedy evaluator expression used when a new game
	// does not name one.
	DefaultEval string
	// CheckOrigin is handed to the websocket upgrader. Nil accepts
	// same-origin requests only.
	CheckOrigin func(r *http.Request) bool
}

const (
	maxJSONBodyBytes   int64 = 1 << 20
	defaultMaxSessions       = 64
	apiCSP                   = "default-src 'none'; frame-ancestors 'none'; base-uri 'none'"
)

func NewServer(cfg Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = defaultMaxSessions
	}
	return &Server{
		log:         logger,
		maxSessions: cfg.MaxSessions,
		defaultEval: cfg.DefaultEval,
		sessions:    make(map[string]*session),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     cfg.CheckOrigin,
		},
	}
}

// Listen starts the HTTP server and blocks until it is closed.
func (s *Server) Listen(addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16,
	}

	s.srvMu.Lock()
	s.srv = srv
	s.srvMu.Unlock()
	defer func() {
		s.srvMu.Lock()
		s.srv = nil
		s.srvMu.Unlock()
	}()

	s.log.Info("http listening", zap.String("addr", addr))
	err := srv.ListenAndServe()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Close attempts a graceful shutdown of the HTTP server and drops every
// live stream.
func (s *Server) Close(ctx context.Context) error {
	s.sessMu.Lock()
	for id, sess := range s.sessions {
		sess.stream.close()
		delete(s.sessions, id)
	}
	s.sessMu.Unlock()

	s.srvMu.Lock()
	srv := s.srv
	s.srvMu.Unlock()
	if srv == nil {
		return nil
	}
	return srv.Shutdown(ctx)
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/kinds", s.withJSON(s.handleKinds))
	mux.HandleFunc("GET /api/games", s.withJSON(s.handleListGames))
	mux.HandleFunc("POST /api/games", s.withJSON(s.handleCreateGame))
	mux.HandleFunc("GET /api/games/{id}", s.withJSON(s.handleGetGame))
	mux.HandleFunc("DELETE /api/games/{id}", s.withJSON(s.handleDeleteGame))
	mux.HandleFunc("GET /api/games/{id}/moves", s.withJSON(s.handleMoves))
	mux.HandleFunc("GET /api/games/{id}/board", s.handleBoard)
	mux.HandleFunc("POST /api/games/{id}/select", s.withJSON(s.handleSelect))
	mux.HandleFunc("POST /api/games/{id}/cancel", s.withJSON(s.handleCancel))
	mux.HandleFunc("POST /api/games/{id}/play", s.withJSON(s.handlePlay))
	mux.HandleFunc("POST /api/games/{id}/advance", s.withJSON(s.handleAdvance))
	mux.HandleFunc("GET /api/games/{id}/ws", s.handleStream)

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

// ---- JSON helpers ----

func (s *Server) withJSON(h func(http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		applyAPISecurityHeaders(w.Header())
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		if r.Body != nil && r.Body != http.NoBody {
			r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
		}
		h(w, r)
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	writeJSON(w, v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSONStatus(w, status, map[string]string{"error": msg})
}

// writeGameError maps domain errors onto status codes.
func (s *Server) writeGameError(w http.ResponseWriter, id string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, game.ErrInvalidMove),
		errors.Is(err, game.ErrNotSelectable),
		errors.Is(err, game.ErrInvalidPosition),
		errors.Is(err, player.ErrUnknownKind):
		status = http.StatusBadRequest
	case errors.Is(err, match.ErrHumanTurn),
		errors.Is(err, match.ErrAITurn),
		errors.Is(err, match.ErrGameOver):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		s.log.Error("game request failed", zap.String("game_id", id), zap.Error(err))
	}
	writeError(w, status, err.Error())
}

// decodeBody reads a JSON body into v and reports failures to the client.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if isBodyTooLarge(err) {
			writeError(w, http.StatusRequestEntityTooLarge, "request too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "invalid json: "+err.Error())
		return false
	}
	return true
}

func applyAPISecurityHeaders(h http.Header) {
	h.Set("Content-Security-Policy", apiCSP)
	h.Set("Cross-Origin-Opener-Policy", "same-origin")
	h.Set("Cross-Origin-Embedder-Policy", "require-corp")
}

func isBodyTooLarge(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
