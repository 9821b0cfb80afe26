package session

import (
	"fmt"

	"github.com/ayusman/aircanvas/internal/canvas"
	"github.com/ayusman/aircanvas/internal/store"
)

// ThumbnailSize bounds the longer side of snapshot thumbnails.
const ThumbnailSize = 160

// Snapshot exports the canvas as a store record, thumbnail included. The
// record is not persisted.
func (s *Session) Snapshot(format canvas.Format, scale float64) (*store.Snapshot, error) {
	data, err := s.Export(format, scale)
	if err != nil {
		return nil, fmt.Errorf("export canvas: %w", err)
	}

	thumb, err := canvas.Thumbnail(data, ThumbnailSize)
	if err != nil {
		return nil, fmt.Errorf("thumbnail: %w", err)
	}

	return &store.Snapshot{
		SessionID: s.id,
		Format:    string(format),
		Width:     int(float64(s.cfg.Width)*scale + 0.5),
		Height:    int(float64(s.cfg.Height)*scale + 0.5),
		Data:      data,
		Thumbnail: thumb,
	}, nil
}
