package store

import (
	"bytes"
	"errors"
	"testing"
)

func testSnapshot(sessionID string, data []byte) *Snapshot {
	return &Snapshot{
		SessionID: sessionID,
		Format:    "png",
		Width:     640,
		Height:    480,
		Data:      data,
		Thumbnail: []byte{0x89, 'P', 'N', 'G'},
	}
}

func TestSnapshotRepository_CreateAndGet(t *testing.T) {
	repo := newTestStore(t).Snapshots()

	snap := testSnapshot("session-a", []byte("image-bytes"))
	if err := repo.Create(snap); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if snap.ID == "" {
		t.Fatal("Create() should assign an ID")
	}
	if snap.Size != len("image-bytes") {
		t.Errorf("Size = %d", snap.Size)
	}

	got, err := repo.GetByID(snap.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if got.SessionID != "session-a" || got.Format != "png" || got.Width != 640 || got.Height != 480 {
		t.Errorf("GetByID() = %+v", got)
	}
	if !bytes.Equal(got.Data, []byte("image-bytes")) {
		t.Errorf("Data = %q", got.Data)
	}
	if !bytes.Equal(got.Thumbnail, snap.Thumbnail) {
		t.Errorf("Thumbnail = %v", got.Thumbnail)
	}
	if got.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
}

func TestSnapshotRepository_CreateValidation(t *testing.T) {
	repo := newTestStore(t).Snapshots()

	if err := repo.Create(testSnapshot("s", nil)); err == nil {
		t.Error("Create() without data should fail")
	}

	bad := testSnapshot("s", []byte("x"))
	bad.Format = "gif"
	if err := repo.Create(bad); err == nil {
		t.Error("Create() with unsupported format should fail")
	}

	dup := testSnapshot("s", []byte("x"))
	dup.ID = "fixed"
	if err := repo.Create(dup); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	again := testSnapshot("s", []byte("y"))
	again.ID = "fixed"
	if err := repo.Create(again); err == nil {
		t.Error("Create() with duplicate ID should fail")
	}
}

func TestSnapshotRepository_GetMissing(t *testing.T) {
	repo := newTestStore(t).Snapshots()

	if _, err := repo.GetByID("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
}

func TestSnapshotRepository_List(t *testing.T) {
	repo := newTestStore(t).Snapshots()

	for _, sid := range []string{"a", "b", "a"} {
		if err := repo.Create(testSnapshot(sid, []byte("data-"+sid))); err != nil {
			t.Fatalf("Create() error = %v", err)
		}
	}

	all, err := repo.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("List() returned %d, want 3", len(all))
	}
	for i, s := range all {
		if s.Data != nil {
			t.Error("List() should not load image data")
		}
		if s.Size != len("data-a") {
			t.Errorf("Size = %d", s.Size)
		}
		if i > 0 && s.CreatedAt.After(all[i-1].CreatedAt) {
			t.Error("List() should be newest first")
		}
	}

	a, err := repo.ListBySession("a")
	if err != nil {
		t.Fatalf("ListBySession() error = %v", err)
	}
	if len(a) != 2 {
		t.Errorf("ListBySession(a) returned %d, want 2", len(a))
	}

	none, err := repo.ListBySession("nobody")
	if err != nil {
		t.Fatalf("ListBySession() error = %v", err)
	}
	if none == nil || len(none) != 0 {
		t.Errorf("ListBySession(nobody) = %v, want empty slice", none)
	}
}

func TestSnapshotRepository_Delete(t *testing.T) {
	repo := newTestStore(t).Snapshots()

	snap := testSnapshot("a", []byte("x"))
	repo.Create(snap)
	repo.Create(testSnapshot("b", []byte("y")))
	repo.Create(testSnapshot("b", []byte("z")))

	if err := repo.Delete(snap.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := repo.GetByID(snap.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got: %v", err)
	}
	if err := repo.Delete(snap.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for second delete, got: %v", err)
	}

	n, err := repo.DeleteBySession("b")
	if err != nil {
		t.Fatalf("DeleteBySession() error = %v", err)
	}
	if n != 2 {
		t.Errorf("DeleteBySession() = %d, want 2", n)
	}
}

func TestSettingsRepository(t *testing.T) {
	repo := newTestStore(t).Settings()

	if _, err := repo.Get(SettingBrushSize); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}

	if err := repo.Set(SettingBrushSize, "3"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := repo.Set(SettingBrushSize, "7"); err != nil {
		t.Fatalf("Set() overwrite error = %v", err)
	}
	repo.Set(SettingBrushColor, "#000000")

	if got, _ := repo.Get(SettingBrushSize); got != "7" {
		t.Errorf("Get() = %q, want 7", got)
	}

	all, err := repo.All()
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if len(all) != 2 || all[SettingBrushColor] != "#000000" {
		t.Errorf("All() = %v", all)
	}
}
