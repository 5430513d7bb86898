package httpx

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = pongWait * 9 / 10
	maxClientBytes = 512
	clientBuffer   = 16
)

// envelope is the frame pushed to stream subscribers.
type envelope struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// stream fans game updates out to the websocket clients of one session.
// Slow clients are dropped rather than allowed to stall the game.
type stream struct {
	log     *zap.Logger
	mu      sync.Mutex
	clients map[*client]struct{}
	closed  bool
}

func newStream(logger *zap.Logger) *stream {
	return &stream{log: logger, clients: make(map[*client]struct{})}
}

func (st *stream) add(c *client) bool {
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.closed {
		return false
	}
	st.clients[c] = struct{}{}
	return true
}

func (st *stream) remove(c *client) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if _, ok := st.clients[c]; ok {
		delete(st.clients, c)
		close(c.send)
	}
}

func (st *stream) size() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.clients)
}

func (st *stream) publish(kind string, payload any) {
	msg, err := json.Marshal(envelope{Type: kind, Payload: payload})
	if err != nil {
		st.log.Error("encode stream frame", zap.String("type", kind), zap.Error(err))
		return
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	for c := range st.clients {
		select {
		case c.send <- msg:
		default:
			st.log.Warn("dropping slow stream client", zap.Stringer("remote", c.conn.RemoteAddr()))
			delete(st.clients, c)
			close(c.send)
		}
	}
}

// close disconnects every client and refuses new ones.
func (st *stream) close() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.closed = true
	for c := range st.clients {
		delete(st.clients, c)
		close(c.send)
	}
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.lookup(w, r)
	if !ok {
		return
	}
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Debug("stream upgrade failed", zap.String("game_id", sess.id), zap.Error(err))
		return
	}
	c := &client{conn: conn, send: make(chan []byte, clientBuffer)}

	// Holding the session lock orders the snapshot before any later update.
	sess.mu.Lock()
	if !sess.stream.add(c) {
		sess.mu.Unlock()
		_ = conn.Close()
		return
	}
	msg, err := json.Marshal(envelope{Type: frameState, Payload: sess.view()})
	if err == nil {
		c.send <- msg
	}
	sess.mu.Unlock()

	s.log.Debug("stream client joined", zap.String("game_id", sess.id), zap.Stringer("remote", conn.RemoteAddr()))
	go c.writer()
	go c.reader(sess.stream)
}

func (c *client) writer() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// reader discards client frames; it only exists to notice disconnects and
// answer pongs.
func (c *client) reader(st *stream) {
	defer st.remove(c)
	c.conn.SetReadLimit(maxClientBytes)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
