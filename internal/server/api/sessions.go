package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/ayusman/aircanvas/internal/canvas"
	"github.com/ayusman/aircanvas/internal/detector"
	"github.com/ayusman/aircanvas/internal/session"
	"github.com/ayusman/aircanvas/internal/store"
)

// SessionHandler handles HTTP requests for drawing sessions.
type SessionHandler struct {
	sessions *session.Manager
	store    *store.Store
}

// NewSessionHandler creates a SessionHandler. st may be nil, in which case
// the snapshot routes answer 503.
func NewSessionHandler(m *session.Manager, st *store.Store) *SessionHandler {
	return &SessionHandler{sessions: m, store: st}
}

// ServeHTTP implements the http.Handler interface and routes requests to appropriate methods.
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Expected paths: /api/sessions, /api/sessions/{id} or
	// /api/sessions/{id}/{action}
	parts := splitPath(r.URL.Path, "/api/sessions")

	if len(parts) == 0 {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}
	if len(parts) > 2 {
		http.NotFound(w, r)
		return
	}

	s, err := h.sessions.Get(parts[0])
	if err != nil {
		writeError(w, http.StatusNotFound, "Session not found")
		return
	}

	if len(parts) == 1 {
		switch r.Method {
		case http.MethodGet:
			writeJSON(w, http.StatusOK, s.Status())
		case http.MethodDelete:
			h.delete(w, r, s)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	route := sessionRoutes[parts[1]]
	if route.handle == nil {
		http.NotFound(w, r)
		return
	}
	if !route.allows(r.Method) {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	route.handle(h, w, r, s)
}

type sessionRoute struct {
	methods []string
	handle  func(h *SessionHandler, w http.ResponseWriter, r *http.Request, s *session.Session)
}

func (sr sessionRoute) allows(method string) bool {
	for _, m := range sr.methods {
		if m == method {
			return true
		}
	}
	return false
}

var sessionRoutes = map[string]sessionRoute{
	"clear":     {methods: []string{http.MethodPost}, handle: (*SessionHandler).clear},
	"color":     {methods: []string{http.MethodPost}, handle: (*SessionHandler).setColor},
	"brush":     {methods: []string{http.MethodPost}, handle: (*SessionHandler).setBrush},
	"observe":   {methods: []string{http.MethodPost}, handle: (*SessionHandler).observe},
	"export":    {methods: []string{http.MethodGet}, handle: (*SessionHandler).export},
	"overlay":   {methods: []string{http.MethodGet}, handle: (*SessionHandler).overlay},
	"palette":   {methods: []string{http.MethodGet}, handle: (*SessionHandler).palette},
	"snapshots": {methods: []string{http.MethodGet, http.MethodPost}, handle: (*SessionHandler).snapshots},
}

// Request and response types

type createSessionRequest struct {
	Width     int      `json:"width"`
	Height    int      `json:"height"`
	Smoothing *float64 `json:"smoothing"`
	Brush     int      `json:"brush"`
}

type listSessionsResponse struct {
	Sessions []session.Status `json:"sessions"`
}

// ColorRequest sets the brush color either from channels or a hex string.
// Channels are clamped to [0, 255].
type ColorRequest struct {
	R   *int   `json:"r,omitempty"`
	G   *int   `json:"g,omitempty"`
	B   *int   `json:"b,omitempty"`
	Hex string `json:"hex,omitempty"`
}

type brushRequest struct {
	Thickness int `json:"thickness"`
}

type observeRequest struct {
	Points []detector.Point3D `json:"points"`
}

type observeResponse struct {
	session.Status
	Rule     string `json:"rule,omitempty"`
	Stroked  bool   `json:"stroked"`
	Selected bool   `json:"selected"`
}

type swatchResponse struct {
	Index  int    `json:"index"`
	Name   string `json:"name"`
	Color  string `json:"color"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type paletteResponse struct {
	StripTop int              `json:"strip_top"`
	Swatches []swatchResponse `json:"swatches"`
}

type snapshotRequest struct {
	Format string  `json:"format"`
	Scale  float64 `json:"scale"`
}

type listSnapshotsResponse struct {
	Snapshots []store.Snapshot `json:"snapshots"`
}

// decodeOptional decodes a JSON body into v. An empty body is not an error.
func decodeOptional(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return nil
	}
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// list handles GET /api/sessions.
func (h *SessionHandler) list(w http.ResponseWriter, r *http.Request) {
	sessions := h.sessions.List()
	response := listSessionsResponse{
		Sessions: make([]session.Status, 0, len(sessions)),
	}
	for _, s := range sessions {
		response.Sessions = append(response.Sessions, s.Status())
	}
	writeJSON(w, http.StatusOK, response)
}

// create handles POST /api/sessions. Every field is optional and falls back
// to the manager defaults.
func (h *SessionHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := decodeOptional(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	cfg := h.sessions.Defaults()
	if req.Width != 0 || req.Height != 0 {
		cfg.Width, cfg.Height = req.Width, req.Height
	}
	if req.Smoothing != nil {
		cfg.Smoothing = *req.Smoothing
	}
	if req.Brush != 0 {
		cfg.BrushThickness = req.Brush
	}

	s, err := h.sessions.Create(cfg)
	if err != nil {
		if errors.Is(err, session.ErrInvalidConfig) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	writeJSON(w, http.StatusCreated, s.Status())
}

// delete handles DELETE /api/sessions/{id}.
func (h *SessionHandler) delete(w http.ResponseWriter, r *http.Request, s *session.Session) {
	if err := h.sessions.Delete(s.ID()); err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// clear handles POST /api/sessions/{id}/clear.
func (h *SessionHandler) clear(w http.ResponseWriter, r *http.Request, s *session.Session) {
	s.Clear()
	writeJSON(w, http.StatusOK, s.Status())
}

// setColor handles POST /api/sessions/{id}/color.
func (h *SessionHandler) setColor(w http.ResponseWriter, r *http.Request, s *session.Session) {
	var req ColorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := ApplyColor(s, req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.Status())
}

// ApplyColor sets the session color from req.
func ApplyColor(s *session.Session, req ColorRequest) error {
	if req.Hex != "" {
		_, err := s.SetColorHex(req.Hex)
		return err
	}
	if req.R == nil || req.G == nil || req.B == nil {
		return errors.New("color requires r, g and b, or hex")
	}
	s.SetColor(*req.R, *req.G, *req.B)
	return nil
}

// setBrush handles POST /api/sessions/{id}/brush.
func (h *SessionHandler) setBrush(w http.ResponseWriter, r *http.Request, s *session.Session) {
	var req brushRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := s.SetBrush(req.Thickness); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, s.Status())
}

// observe handles POST /api/sessions/{id}/observe, feeding one frame of
// landmarks into the session. An empty point list means no hand; a
// malformed one is treated the same way.
func (h *SessionHandler) observe(w http.ResponseWriter, r *http.Request, s *session.Session) {
	var req observeRequest
	if err := decodeOptional(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	res := s.Process(Observation(req.Points))
	writeJSON(w, http.StatusOK, observeResponse{
		Status:   s.Status(),
		Rule:     res.Rule,
		Stroked:  res.Stroked,
		Selected: res.Selected,
	})
}

// Observation converts a wire point list to a hand observation. It returns
// nil for an empty or malformed list.
func Observation(points []detector.Point3D) *detector.HandLandmarks {
	if len(points) == 0 {
		return nil
	}
	hand, err := detector.FromPoints(points)
	if err != nil {
		return nil
	}
	return hand
}

// export handles GET /api/sessions/{id}/export?format=png&scale=1.
func (h *SessionHandler) export(w http.ResponseWriter, r *http.Request, s *session.Session) {
	format, scale, err := parseExportParams(r.URL.Query().Get("format"), r.URL.Query().Get("scale"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	data, err := s.Export(format, scale)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=canvas-%s.%s", s.ID(), format))
	writeImage(w, format.ContentType(), data)
}

func parseExportParams(formatParam, scaleParam string) (canvas.Format, float64, error) {
	format, err := canvas.ParseFormat(formatParam)
	if err != nil {
		return "", 0, err
	}
	scale := 1.0
	if scaleParam != "" {
		scale, err = strconv.ParseFloat(scaleParam, 64)
		if err != nil || scale <= 0 {
			return "", 0, fmt.Errorf("invalid scale %q", scaleParam)
		}
	}
	return format, scale, nil
}

// overlay handles GET /api/sessions/{id}/overlay and returns one JPEG frame.
func (h *SessionHandler) overlay(w http.ResponseWriter, r *http.Request, s *session.Session) {
	data, err := s.EncodeOverlay()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to render overlay")
		return
	}
	writeImage(w, "image/jpeg", data)
}

// palette handles GET /api/sessions/{id}/palette.
func (h *SessionHandler) palette(w http.ResponseWriter, r *http.Request, s *session.Session) {
	p := s.Palette()
	response := paletteResponse{
		StripTop: p.StripTop(),
		Swatches: make([]swatchResponse, 0, p.Len()),
	}
	for i, b := range p.Buttons() {
		response.Swatches = append(response.Swatches, swatchResponse{
			Index:  i,
			Name:   b.Name,
			Color:  canvas.Hex(b.Color),
			X:      b.Rect.Min.X,
			Y:      b.Rect.Min.Y,
			Width:  b.Rect.Dx(),
			Height: b.Rect.Dy(),
		})
	}
	writeJSON(w, http.StatusOK, response)
}

// snapshots handles GET and POST /api/sessions/{id}/snapshots.
func (h *SessionHandler) snapshots(w http.ResponseWriter, r *http.Request, s *session.Session) {
	if h.store == nil {
		writeError(w, http.StatusServiceUnavailable, "Snapshot storage is not configured")
		return
	}

	if r.Method == http.MethodGet {
		snaps, err := h.store.Snapshots().ListBySession(s.ID())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to list snapshots")
			return
		}
		writeJSON(w, http.StatusOK, listSnapshotsResponse{Snapshots: snaps})
		return
	}

	var req snapshotRequest
	if err := decodeOptional(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	format, err := canvas.ParseFormat(req.Format)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	scale := req.Scale
	if scale == 0 {
		scale = 1
	}

	snap, err := s.Snapshot(format, scale)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := h.store.Snapshots().Create(snap); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save snapshot")
		return
	}

	writeJSON(w, http.StatusCreated, snap)
}
