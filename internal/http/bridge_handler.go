// Package httpapi exposes the bridge over HTTP: a websocket endpoint
// carrying the request/response and subscription traffic, plus plain JSON
// snapshot endpoints for dashboards and probes.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	logging "github.com/op/go-logging"

	"github.com/mobilityhq/tripbridge"
	"github.com/mobilityhq/tripbridge/runtime"
	"github.com/mobilityhq/tripbridge/translate"
)

var log = logging.MustGetLogger("tripbridge")

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// The bridge fronts a local SDK; cross-origin tooling is expected.
	CheckOrigin: func(*http.Request) bool { return true },
}

// clientMessage is one inbound websocket frame.
type clientMessage struct {
	Type    string         `json:"type"`
	ID      string         `json:"id,omitempty"`
	Method  string         `json:"method,omitempty"`
	Args    map[string]any `json:"args,omitempty"`
	Channel string         `json:"channel,omitempty"`
}

// serverMessage is one outbound websocket frame.
type serverMessage struct {
	Type    string     `json:"type"`
	ID      string     `json:"id,omitempty"`
	Method  string     `json:"method,omitempty"`
	Channel string     `json:"channel,omitempty"`
	Result  any        `json:"result,omitempty"`
	Payload any        `json:"payload,omitempty"`
	Error   *wireError `json:"error,omitempty"`
}

type wireError struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
}

func toWireError(err *tripbridge.Error) *wireError {
	return &wireError{
		Code:    string(err.Code),
		Message: err.Message,
		Details: err.Details,
	}
}

// The device scanner channel name on the wire; every other channel name is
// owned by the multiplexer.
const scannerChannel = "deviceScanner"

// BridgeHandler upgrades to a websocket and speaks the bridge protocol:
// "call" frames go to the dispatcher, "subscribe"/"unsubscribe" frames to
// the multiplexer or the scanner. All writes to the socket are funneled
// through a single writer goroutine.
func BridgeHandler(d *runtime.Dispatcher, m *runtime.Multiplexer, s *runtime.Scanner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Warningf("bridge: upgrade failed: %v", err)
			return
		}
		sess := &bridgeSession{
			dispatcher: d,
			mux:        m,
			scanner:    s,
			conn:       conn,
			out:        make(chan serverMessage, 64),
			closed:     make(chan struct{}),
		}
		go sess.writeLoop()
		sess.readLoop(r.Context())
	}
}

type bridgeSession struct {
	dispatcher *runtime.Dispatcher
	mux        *runtime.Multiplexer
	scanner    *runtime.Scanner
	conn       *websocket.Conn

	out       chan serverMessage
	closeOnce sync.Once
	closed    chan struct{}

	subMu      sync.Mutex
	channels   map[string]bool
	scanActive bool
}

func (s *bridgeSession) send(msg serverMessage) {
	select {
	case s.out <- msg:
	case <-s.closed:
	}
}

func (s *bridgeSession) writeLoop() {
	for {
		select {
		case msg := <-s.out:
			if err := s.conn.WriteJSON(msg); err != nil {
				log.Warningf("bridge: write failed: %v", err)
				s.shutdown()
				return
			}
		case <-s.closed:
			return
		}
	}
}

func (s *bridgeSession) readLoop(ctx context.Context) {
	defer s.shutdown()
	for {
		var msg clientMessage
		if err := s.conn.ReadJSON(&msg); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debugf("bridge: read ended: %v", err)
			}
			return
		}
		switch msg.Type {
		case "call":
			go s.handleCall(ctx, msg)
		case "subscribe":
			s.handleSubscribe(msg)
		case "unsubscribe":
			s.handleUnsubscribe(msg.Channel)
		default:
			s.send(serverMessage{
				Type:  "error",
				ID:    msg.ID,
				Error: &wireError{Code: string(tripbridge.CodeInvalidArguments), Message: "unknown frame type"},
			})
		}
	}
}

func (s *bridgeSession) handleCall(ctx context.Context, msg clientMessage) {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	out := s.dispatcher.Dispatch(ctx, msg.Method, translate.Args(msg.Args))
	switch {
	case !out.Handled:
		s.send(serverMessage{Type: "notImplemented", ID: msg.ID, Method: msg.Method})
	case out.Err != nil:
		s.send(serverMessage{Type: "error", ID: msg.ID, Error: toWireError(out.Err)})
	default:
		s.send(serverMessage{Type: "result", ID: msg.ID, Result: out.Value})
	}
}

func (s *bridgeSession) handleSubscribe(msg clientMessage) {
	name := msg.Channel
	if name == scannerChannel {
		s.subscribeScanner(msg)
		return
	}
	err := s.mux.Attach(name, func(payload any) {
		s.send(serverMessage{Type: "event", Channel: name, Payload: payload})
	})
	if err != nil {
		s.send(serverMessage{
			Type:    "channelError",
			Channel: name,
			Error:   &wireError{Code: string(tripbridge.CodeInvalidArguments), Message: err.Error()},
		})
		return
	}
	s.subMu.Lock()
	if s.channels == nil {
		s.channels = make(map[string]bool)
	}
	s.channels[name] = true
	s.subMu.Unlock()
}

func (s *bridgeSession) subscribeScanner(msg clientMessage) {
	args := translate.Args(msg.Args)
	query := runtime.ScanQuery{}
	query.Filters, _ = args.StringList("filters")
	query.ProximityUUID, _ = args.String("uuid")
	if id, ok := args.Int64("manufacturerId"); ok {
		mid := uint16(id)
		query.ManufacturerID = &mid
	}
	s.scanner.Attach(query, runtime.ScanSink{
		Devices: func(devices []tripbridge.Device) {
			s.send(serverMessage{
				Type:    "event",
				Channel: scannerChannel,
				Payload: translate.EncodeDevices(devices),
			})
		},
		Error: func(err *tripbridge.Error) {
			s.send(serverMessage{Type: "channelError", Channel: scannerChannel, Error: toWireError(err)})
		},
	})
	s.subMu.Lock()
	s.scanActive = true
	s.subMu.Unlock()
}

func (s *bridgeSession) handleUnsubscribe(name string) {
	if name == scannerChannel {
		s.scanner.Detach()
		s.subMu.Lock()
		s.scanActive = false
		s.subMu.Unlock()
		return
	}
	s.mux.Detach(name)
	s.subMu.Lock()
	delete(s.channels, name)
	s.subMu.Unlock()
}

// shutdown releases everything the session attached. Safe to call from
// both loops.
func (s *bridgeSession) shutdown() {
	s.closeOnce.Do(func() {
		close(s.closed)
		s.conn.Close()
		s.subMu.Lock()
		channels := make([]string, 0, len(s.channels))
		for name := range s.channels {
			channels = append(channels, name)
		}
		scanActive := s.scanActive
		s.channels = nil
		s.scanActive = false
		s.subMu.Unlock()
		for _, name := range channels {
			s.mux.Detach(name)
		}
		if scanActive {
			s.scanner.Detach()
		}
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	writeCORS(w)
	json.NewEncoder(w).Encode(v)
}

func writeCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
}
