package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"
	"gocv.io/x/gocv"

	"github.com/ayusman/aircanvas/internal/detector"
	"github.com/ayusman/aircanvas/internal/server/api"
	"github.com/ayusman/aircanvas/internal/session"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// Command types accepted as text messages on /ws.
const (
	CommandObserve  = "observe"
	CommandClear    = "clear"
	CommandSetColor = "set_color"
	CommandSetBrush = "set_brush"
	CommandStatus   = "status"
)

// Command is a text message sent by a /ws client. A message without a type
// is an observation.
type Command struct {
	Type      string             `json:"type"`
	Points    []detector.Point3D `json:"points,omitempty"`
	Thickness int                `json:"thickness,omitempty"`
	api.ColorRequest
}

// FrameMessage is the JSON reply sent after every message.
type FrameMessage struct {
	Type string `json:"type"`
	session.Status
	Rule     string `json:"rule,omitempty"`
	Stroked  bool   `json:"stroked"`
	Selected bool   `json:"selected"`
}

type errorMessage struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// DrawHandler gives every WebSocket connection its own drawing session.
//
// Binary messages are raw RGBA frames of exactly width*height*4 bytes, run
// through the detector. Text messages are Commands. Each message is
// answered with a FrameMessage, followed by a binary JPEG overlay when the
// client connected with ?overlay=1.
type DrawHandler struct {
	sessions *session.Manager
	detector detector.Detector
}

// NewDrawHandler creates a DrawHandler. d may be nil, in which case binary
// frames are rejected and only landmark observations are accepted.
func NewDrawHandler(m *session.Manager, d detector.Detector) *DrawHandler {
	return &DrawHandler{sessions: m, detector: d}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *DrawHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	cfg, err := h.sessionConfig(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	s, err := h.sessions.Create(cfg)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer func() {
		if err := h.sessions.Delete(s.ID()); err != nil {
			log.Printf("websocket session cleanup error: %v", err)
		}
	}()

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	sendOverlay := r.URL.Query().Get("overlay") == "1"
	log.Printf("websocket session %s started", s.ID())

	// Messages are handled one at a time, so frames never overlap.
	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			break
		}

		var reply interface{}
		switch kind {
		case websocket.BinaryMessage:
			reply = h.handleFrame(s, data)
		case websocket.TextMessage:
			reply = h.handleCommand(s, data)
		default:
			continue
		}

		if err := conn.WriteJSON(reply); err != nil {
			break
		}
		if _, failed := reply.(errorMessage); sendOverlay && !failed {
			overlay, err := s.EncodeOverlay()
			if err != nil {
				log.Printf("websocket overlay error: %v", err)
				continue
			}
			if err := conn.WriteMessage(websocket.BinaryMessage, overlay); err != nil {
				break
			}
		}
	}

	log.Printf("websocket session %s closed", s.ID())
}

// sessionConfig applies optional width and height query parameters to the
// manager defaults.
func (h *DrawHandler) sessionConfig(r *http.Request) (session.Config, error) {
	cfg := h.sessions.Defaults()
	q := r.URL.Query()
	for _, p := range []struct {
		name string
		dst  *int
	}{
		{"width", &cfg.Width},
		{"height", &cfg.Height},
	} {
		v := q.Get(p.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid %s %q", p.name, v)
		}
		*p.dst = n
	}
	return cfg, nil
}

// handleFrame decodes a raw RGBA frame, detects the hand and feeds it to
// the session.
func (h *DrawHandler) handleFrame(s *session.Session, data []byte) interface{} {
	if h.detector == nil {
		return errorMessage{Type: "error", Error: "frame detection is not available"}
	}

	cfg := s.Config()
	if want := cfg.Width * cfg.Height * 4; len(data) != want {
		return errorMessage{Type: "error", Error: fmt.Sprintf("frame is %d bytes, want %d", len(data), want)}
	}

	rgba, err := gocv.NewMatFromBytes(cfg.Height, cfg.Width, gocv.MatTypeCV8UC4, data)
	if err != nil {
		return errorMessage{Type: "error", Error: "invalid frame"}
	}
	defer rgba.Close()

	bgr := gocv.NewMat()
	defer bgr.Close()
	gocv.CvtColor(rgba, &bgr, gocv.ColorRGBAToBGR)

	var hand *detector.HandLandmarks
	hands, err := h.detector.Detect(&bgr)
	if err != nil {
		log.Printf("websocket detection error: %v", err)
	} else {
		hand = detector.First(hands)
	}

	return frameMessage(s, s.Process(hand))
}

// handleCommand applies a text command.
func (h *DrawHandler) handleCommand(s *session.Session, data []byte) interface{} {
	var cmd Command
	if err := json.Unmarshal(data, &cmd); err != nil {
		return errorMessage{Type: "error", Error: "invalid JSON"}
	}

	switch cmd.Type {
	case "", CommandObserve:
		return frameMessage(s, s.Process(api.Observation(cmd.Points)))
	case CommandClear:
		s.Clear()
	case CommandSetColor:
		if err := api.ApplyColor(s, cmd.ColorRequest); err != nil {
			return errorMessage{Type: "error", Error: err.Error()}
		}
	case CommandSetBrush:
		if err := s.SetBrush(cmd.Thickness); err != nil {
			return errorMessage{Type: "error", Error: err.Error()}
		}
	case CommandStatus:
	default:
		return errorMessage{Type: "error", Error: fmt.Sprintf("unknown command %q", cmd.Type)}
	}
	return FrameMessage{Type: "status", Status: s.Status()}
}

func frameMessage(s *session.Session, res session.Result) FrameMessage {
	return FrameMessage{
		Type:     "frame",
		Status:   s.Status(),
		Rule:     res.Rule,
		Stroked:  res.Stroked,
		Selected: res.Selected,
	}
}
