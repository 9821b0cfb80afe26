package session

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/ayusman/aircanvas/internal/canvas"
)

func TestSession_Snapshot(t *testing.T) {
	s := newTestSession(t, exactConfig())
	s.Process(drawAt(100, 100))
	s.Process(drawAt(200, 100))

	snap, err := s.Snapshot(canvas.FormatJPEG, 0.5)
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}

	if snap.SessionID != s.ID() {
		t.Errorf("SessionID = %q, want %q", snap.SessionID, s.ID())
	}
	if snap.Format != "jpeg" || snap.Width != 320 || snap.Height != 240 {
		t.Errorf("snapshot = %s %dx%d, want jpeg 320x240", snap.Format, snap.Width, snap.Height)
	}
	if len(snap.Data) < 2 || snap.Data[0] != 0xFF || snap.Data[1] != 0xD8 {
		t.Error("snapshot data is not a JPEG")
	}
	if snap.ID != "" {
		t.Error("Snapshot() should leave ID for the store to assign")
	}

	thumb, err := png.DecodeConfig(bytes.NewReader(snap.Thumbnail))
	if err != nil {
		t.Fatalf("decode thumbnail: %v", err)
	}
	if thumb.Width != ThumbnailSize || thumb.Height != 120 {
		t.Errorf("thumbnail = %dx%d, want %dx120", thumb.Width, thumb.Height, ThumbnailSize)
	}
}

func TestSession_Snapshot_InvalidScale(t *testing.T) {
	s := newTestSession(t, exactConfig())
	if _, err := s.Snapshot(canvas.FormatPNG, 0); err == nil {
		t.Error("Snapshot() with zero scale should fail")
	}
}
