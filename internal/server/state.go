package server

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/janpfeifer/GoMemory/internal/config"
	"github.com/janpfeifer/GoMemory/internal/game"
	"k8s.io/klog/v2"
)

// Session is one browser game relaying its notifications.
type Session struct {
	ID        string
	Version   string
	TileSet   string
	GroupSize int
	Connected time.Time
	Closed    time.Time        // Zero while the connection is open.
	Events    []string         // Notification names, in arrival order.
	Games     int              // Number of started events seen.
	LastOver  *game.OverDetail // Result of the last finished game, if any.
}

// DefaultMaxClosedSessions is how many closed relay sessions are kept for inspection.
const DefaultMaxClosedSessions = 256

// ServerState holds the relay sessions. Open sessions are all kept; of the
// closed ones only the MaxClosedSessions most recent survive.
type ServerState struct {
	Address           string
	Defaults          config.Config
	MaxClosedSessions int

	mu       sync.RWMutex
	Sessions map[string]*Session
	conns    map[string]*websocket.Conn
	closed   []string // Closed session IDs, oldest first.
}

// NewServerState creates an empty server state.
func NewServerState(defaults config.Config) *ServerState {
	return &ServerState{
		Defaults:          defaults,
		MaxClosedSessions: DefaultMaxClosedSessions,
		Sessions:          make(map[string]*Session),
		conns:             make(map[string]*websocket.Conn),
	}
}

// Session returns a copy of the session with the given ID.
func (s *ServerState) Session(id string) (Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.Sessions[id]
	if !ok {
		return Session{}, false
	}
	out := *sess
	out.Events = append([]string(nil), sess.Events...)
	return out, true
}

// HandleWS runs the notification relay for one connection.
//
// The first message must be a hello; the server answers with a welcome
// carrying the session ID. Every following event message is recorded and
// logged. Nothing else is sent back.
func (s *ServerState) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		klog.Errorf("HandleWS: accept failed: %v", err)
		return
	}
	defer conn.CloseNow()
	ctx := r.Context()

	var msg game.WsMessage
	if err := wsjson.Read(ctx, conn, &msg); err != nil {
		klog.Errorf("HandleWS: failed to read hello: %v", err)
		return
	}
	p, err := msg.Parse()
	if err != nil {
		s.sendError(ctx, conn, err.Error())
		return
	}
	hello, ok := p.(*game.HelloMessage)
	if !ok {
		s.sendError(ctx, conn, "expected hello message, got "+string(msg.Type))
		return
	}

	sess := &Session{
		ID:        uuid.NewString(),
		Version:   hello.Version,
		TileSet:   hello.TileSet,
		GroupSize: hello.GroupSize,
		Connected: time.Now(),
	}
	s.mu.Lock()
	s.Sessions[sess.ID] = sess
	s.conns[sess.ID] = conn
	s.mu.Unlock()
	defer s.release(sess.ID)
	klog.Infof("Relay session %s opened (version=%s, tiles=%s, group=%d)", sess.ID, hello.Version, hello.TileSet, hello.GroupSize)

	welcome, err := game.NewWsMessage(game.MsgTypeWelcome, game.WelcomeMessage{SessionID: sess.ID})
	if err != nil {
		klog.Errorf("HandleWS: failed to create welcome message: %v", err)
		return
	}
	if err := wsjson.Write(ctx, conn, welcome); err != nil {
		klog.Errorf("HandleWS: failed to send welcome: %v", err)
		return
	}

	for {
		var msg game.WsMessage
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			klog.V(1).Infof("Relay session %s closed: %v", sess.ID, err)
			return
		}
		p, err := msg.Parse()
		if err != nil {
			klog.Errorf("Relay session %s: failed to parse message: %v", sess.ID, err)
			continue
		}
		ev, ok := p.(*game.EventMessage)
		if !ok {
			klog.Errorf("Relay session %s: unexpected message type %s", sess.ID, msg.Type)
			continue
		}
		s.record(sess.ID, ev)
	}
}

// release marks a session closed and evicts the oldest closed sessions over the limit.
func (s *ServerState) release(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.conns, id)
	sess, ok := s.Sessions[id]
	if !ok || !sess.Closed.IsZero() {
		return
	}
	sess.Closed = time.Now()
	s.closed = append(s.closed, id)
	for len(s.closed) > max(s.MaxClosedSessions, 0) {
		klog.V(1).Infof("Relay session %s evicted", s.closed[0])
		delete(s.Sessions, s.closed[0])
		s.closed = s.closed[1:]
	}
}

func (s *ServerState) record(id string, ev *game.EventMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.Sessions[id]
	sess.Events = append(sess.Events, ev.Name)
	switch ev.Name {
	case game.Alias + string(game.EventStarted):
		sess.Games++
		klog.Infof("Relay session %s: game %d started", id, sess.Games)
	case game.Alias + string(game.EventOver):
		if ev.Over != nil {
			over := *ev.Over
			sess.LastOver = &over
			klog.Infof("Relay session %s: game over, %d attempts in %s", id, over.Attempts, over.DisplayTime)
		}
	default:
		klog.V(1).Infof("Relay session %s: %s", id, ev.Name)
	}
}

func (s *ServerState) sendError(ctx context.Context, conn *websocket.Conn, message string) {
	klog.Errorf("HandleWS: %s", message)
	msg, err := game.NewWsMessage(game.MsgTypeError, game.ErrorMessage{Message: message})
	if err != nil {
		return
	}
	_ = wsjson.Write(ctx, conn, msg)
	conn.Close(websocket.StatusPolicyViolation, message)
}

// CloseAll closes every open relay connection.
func (s *ServerState) CloseAll() {
	s.mu.Lock()
	conns := make([]*websocket.Conn, 0, len(s.conns))
	for id, conn := range s.conns {
		conns = append(conns, conn)
		delete(s.conns, id)
	}
	s.mu.Unlock()
	for _, conn := range conns {
		conn.Close(websocket.StatusGoingAway, "server shutting down")
	}
}

// HandleTestGame redirects to a game page using the server's default settings.
func (s *ServerState) HandleTestGame(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/play?"+s.Defaults.Query().Encode(), http.StatusSeeOther)
}
