package presence

import (
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// outboundBuffer is how many pending events one session may queue before we
// start dropping pushes to it. A stalled tab loses live pushes, never the
// durable history.
const outboundBuffer = 64

// Session is one live websocket connection. A user may hold several (one
// per tab/device); each gets its own write pump so a slow peer never delays
// fan-out to the others.
type Session struct {
	ID     string
	UserID string // empty until the join handshake binds an identity

	conn *websocket.Conn
	out  chan []byte

	mu     sync.Mutex
	closed bool
}

func NewSession(conn *websocket.Conn) *Session {
	return &Session{
		ID:   uuid.NewString(),
		conn: conn,
		out:  make(chan []byte, outboundBuffer),
	}
}

// Enqueue hands a pre-encoded frame to the session's write pump. When the
// buffer is full or the session is closed the frame is dropped for this
// session only; delivery to a live socket is best-effort.
func (s *Session) Enqueue(frame []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.out <- frame:
	default:
		log.Printf("session %s: outbound buffer full, dropping event", s.ID)
	}
}

// WritePump drains the outbound queue onto the socket. Run as a goroutine
// per session; returns when the queue is closed or a write fails.
func (s *Session) WritePump() {
	for frame := range s.out {
		if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
			log.Printf("session %s: write failed: %v", s.ID, err)
			return
		}
	}
}

// Close shuts the outbound queue exactly once. The underlying connection is
// closed by the read loop that owns it.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.out)
}
