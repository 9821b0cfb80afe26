package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/ayusman/aircanvas/internal/app"
)

// DefaultStreamInterval caps MJPEG output at roughly 15 FPS per client.
const DefaultStreamInterval = 66 * time.Millisecond

// StreamHandler serves the frames published to a mailbox as MJPEG.
type StreamHandler struct {
	source   *app.Mailbox
	interval time.Duration
}

// NewStreamHandler creates a new StreamHandler reading from source.
func NewStreamHandler(source *app.Mailbox) *StreamHandler {
	return &StreamHandler{source: source, interval: DefaultStreamInterval}
}

// ServeHTTP streams MJPEG frames to connected clients. A client that falls
// behind skips straight to the newest frame.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ctx := r.Context()
	var seq uint64
	for {
		data, next, err := h.source.Next(ctx, seq)
		if err != nil {
			return
		}
		seq = next

		// Write MJPEG frame
		fmt.Fprintf(w, "--frame\r\n")
		fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
		fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(data))
		if _, err := w.Write(data); err != nil {
			return
		}
		fmt.Fprintf(w, "\r\n")

		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(h.interval):
		}
	}
}
