package frontend

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/janpfeifer/GoMemory/internal/config"
	"github.com/janpfeifer/GoMemory/internal/game"
	"github.com/maxence-charriere/go-app/v10/pkg/app"
	"k8s.io/klog/v2"
)

// GlobalClientState manages the session settings, the relay connection and
// the results shown across pages.
type GlobalClientState struct {
	Settings config.Config
	Error    string

	// Relay connection, optional: the game plays the same without it.
	Conn      *websocket.Conn
	SessionID string
	Relay     bool

	// relayMu guards Conn and pending between the UI goroutine and ConnectRelay.
	relayMu sync.Mutex
	pending []game.Event // Raised while the relay was still connecting.

	// Results of this browser session, newest last.
	Results []game.OverDetail

	// Listeners for state updates
	Listeners map[string]func()
}

var State *GlobalClientState

// maxPendingEvents bounds the events queued while the relay connects.
const maxPendingEvents = 64

func (s *GlobalClientState) Notify() {
	klog.V(1).Infof("GlobalClientState: Notifying %d listeners", len(s.Listeners))
	for _, l := range s.Listeners {
		if l != nil {
			l()
		}
	}
}

func InitState() {
	if State == nil {
		klog.V(1).Infof("InitState: creating new state (was nil)")
		State = &GlobalClientState{
			Settings:  config.Default(),
			Listeners: make(map[string]func()),
			Relay:     true,
		}
	} else {
		klog.V(1).Infof("InitState: state already exists")
	}
}

// ToggleRelay turns the notification relay on or off.
func (s *GlobalClientState) ToggleRelay() {
	s.Relay = !s.Relay
	klog.Infof("ToggleRelay: Relay is now %v", s.Relay)
	if !s.Relay {
		s.CloseRelay()
	}
	s.Notify()
}

// BestResult returns the finished game with the fewest attempts, if any.
func (s *GlobalClientState) BestResult() (game.OverDetail, bool) {
	if len(s.Results) == 0 {
		return game.OverDetail{}, false
	}
	best := s.Results[0]
	for _, r := range s.Results[1:] {
		if r.Attempts < best.Attempts || (r.Attempts == best.Attempts && r.ElapsedMilliseconds < best.ElapsedMilliseconds) {
			best = r
		}
	}
	return best, true
}

// ConnectRelay connects to the server and opens a relay session.
//
// Events passed to SendEvent while connecting are sent, in order, right after
// the hello.
func (s *GlobalClientState) ConnectRelay() error {
	s.relayMu.Lock()
	if s.Conn != nil {
		klog.Infof("ConnectRelay: Closing existing connection")
		s.Conn.CloseNow()
		s.Conn = nil
		s.SessionID = ""
	}
	s.relayMu.Unlock()

	wsURL := fmt.Sprintf("ws://%s/ws", app.Window().URL().Host)
	klog.Infof("ConnectRelay: Connecting to %s", wsURL)

	// We use a context that lasts for the duration of the connection setup.
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*10)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		klog.Errorf("ConnectRelay: Dial failed: %v", err)
		s.dropPending()
		return fmt.Errorf("dial failed: %w", err)
	}

	hello, err := game.NewWsMessage(game.MsgTypeHello, game.HelloMessage{
		Version:   game.Version,
		TileSet:   s.Settings.TileSet,
		GroupSize: s.Settings.GroupSize,
	})
	if err != nil {
		return fmt.Errorf("failed to create hello message: %w", err)
	}
	if err := wsjson.Write(ctx, conn, hello); err != nil {
		klog.Errorf("ConnectRelay: Failed to send hello: %v", err)
		conn.CloseNow()
		s.dropPending()
		return fmt.Errorf("failed to send hello: %w", err)
	}

	klog.Infof("ConnectRelay: Hello sent. Starting read loop.")
	go s.readLoop(conn)
	for batch := s.takePending(conn); len(batch) > 0; batch = s.takePending(conn) {
		for _, e := range batch {
			s.writeEvent(conn, e)
		}
	}
	return nil
}

// takePending returns the queued events, or, when none are left, installs
// conn as the relay connection so later events go straight out.
func (s *GlobalClientState) takePending(conn *websocket.Conn) []game.Event {
	s.relayMu.Lock()
	defer s.relayMu.Unlock()
	batch := s.pending
	s.pending = nil
	if len(batch) == 0 {
		s.Conn = conn
	}
	return batch
}

func (s *GlobalClientState) dropPending() {
	s.relayMu.Lock()
	s.pending = nil
	s.relayMu.Unlock()
}

// CloseRelay closes the relay connection, if any, and drops queued events.
func (s *GlobalClientState) CloseRelay() {
	s.relayMu.Lock()
	conn := s.Conn
	s.Conn = nil
	s.pending = nil
	s.relayMu.Unlock()
	if conn == nil {
		return
	}
	conn.Close(websocket.StatusNormalClosure, "")
	s.SessionID = ""
}

func (s *GlobalClientState) readLoop(conn *websocket.Conn) {
	ctx := context.Background()
	for {
		var msg game.WsMessage
		if err := wsjson.Read(ctx, conn, &msg); err != nil {
			klog.V(1).Infof("readLoop: WS read ended: %v", err)
			return
		}
		s.handleMessage(msg)
	}
}

func (s *GlobalClientState) handleMessage(msg game.WsMessage) {
	p, err := msg.Parse()
	if err != nil {
		klog.Errorf("handleMessage: Failed to parse %s message: %v", msg.Type, err)
		return
	}
	switch m := p.(type) {
	case *game.WelcomeMessage:
		klog.Infof("handleMessage: Relay session %s", m.SessionID)
		s.SessionID = m.SessionID
		s.Notify()
	case *game.ErrorMessage:
		klog.Errorf("handleMessage: Relay error: %s", m.Message)
		s.Error = m.Message
		s.Notify()
	default:
		klog.Errorf("handleMessage: Unexpected message type %s", msg.Type)
	}
}

// SendEvent forwards a controller notification to the server (fire and forget).
// With the relay on but not yet connected, the event is queued for ConnectRelay.
func (s *GlobalClientState) SendEvent(e game.Event) {
	if e.Kind == game.EventOver && e.Over != nil {
		s.Results = append(s.Results, *e.Over)
	}
	s.relayMu.Lock()
	conn := s.Conn
	if conn == nil {
		if s.Relay && len(s.pending) < maxPendingEvents {
			s.pending = append(s.pending, e)
		}
		s.relayMu.Unlock()
		return
	}
	s.relayMu.Unlock()
	s.writeEvent(conn, e)
}

func (s *GlobalClientState) writeEvent(conn *websocket.Conn, e game.Event) {
	msg, err := game.NewWsMessage(game.MsgTypeEvent, game.NewEventMessage(e))
	if err != nil {
		klog.Errorf("SendEvent: Failed to create event message: %v", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Second*2)
	defer cancel()
	if err := wsjson.Write(ctx, conn, msg); err != nil {
		klog.Errorf("SendEvent: Failed to send %s: %v", e.Name(), err)
	}
}
