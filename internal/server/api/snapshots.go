package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/ayusman/aircanvas/internal/canvas"
	"github.com/ayusman/aircanvas/internal/store"
)

// SnapshotHandler handles HTTP requests for stored canvas snapshots.
type SnapshotHandler struct {
	store *store.Store
}

// NewSnapshotHandler creates a new SnapshotHandler with the given store.
func NewSnapshotHandler(s *store.Store) *SnapshotHandler {
	return &SnapshotHandler{store: s}
}

// ServeHTTP routes /api/snapshots, /api/snapshots/{id} and
// /api/snapshots/{id}/thumbnail.
func (h *SnapshotHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	parts := splitPath(r.URL.Path, "/api/snapshots")

	switch {
	case len(parts) == 0:
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.list(w, r)

	case len(parts) == 1:
		switch r.Method {
		case http.MethodGet:
			h.get(w, r, parts[0], false)
		case http.MethodDelete:
			h.delete(w, r, parts[0])
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}

	case len(parts) == 2 && parts[1] == "thumbnail":
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		h.get(w, r, parts[0], true)

	default:
		http.NotFound(w, r)
	}
}

// list handles GET /api/snapshots and returns metadata only, newest first.
func (h *SnapshotHandler) list(w http.ResponseWriter, r *http.Request) {
	snaps, err := h.store.Snapshots().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list snapshots")
		return
	}
	writeJSON(w, http.StatusOK, listSnapshotsResponse{Snapshots: snaps})
}

// get handles GET /api/snapshots/{id} and returns the stored image.
func (h *SnapshotHandler) get(w http.ResponseWriter, r *http.Request, id string, thumbnail bool) {
	snap, err := h.store.Snapshots().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Snapshot not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get snapshot")
		return
	}

	if thumbnail {
		if len(snap.Thumbnail) == 0 {
			writeError(w, http.StatusNotFound, "Snapshot has no thumbnail")
			return
		}
		writeImage(w, canvas.FormatPNG.ContentType(), snap.Thumbnail)
		return
	}

	format := canvas.Format(snap.Format)
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=snapshot-%s.%s", snap.ID, format))
	writeImage(w, format.ContentType(), snap.Data)
}

// delete handles DELETE /api/snapshots/{id}.
func (h *SnapshotHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Snapshots().Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Snapshot not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete snapshot")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
