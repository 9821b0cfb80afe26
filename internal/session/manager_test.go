package session

import (
	"errors"
	"sync"
	"testing"

	"github.com/ayusman/aircanvas/internal/canvas"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m := NewManager(exactConfig())
	t.Cleanup(m.CloseAll)
	return m
}

func TestManager_CreateGetDelete(t *testing.T) {
	m := newTestManager(t)

	s, err := m.CreateDefault()
	if err != nil {
		t.Fatalf("CreateDefault() error = %v", err)
	}

	got, err := m.Get(s.ID())
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != s {
		t.Error("Get() returned a different session")
	}
	if m.Len() != 1 {
		t.Errorf("Len() = %d, want 1", m.Len())
	}

	if err := m.Delete(s.ID()); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := m.Get(s.ID()); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("Get() after delete error = %v, want ErrSessionNotFound", err)
	}
	if err := m.Delete(s.ID()); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("second Delete() error = %v, want ErrSessionNotFound", err)
	}
	if _, err := s.Export(canvas.FormatPNG, 1); !errors.Is(err, ErrClosed) {
		t.Error("deleted session was not closed")
	}
}

func TestManager_CreateInvalid(t *testing.T) {
	m := newTestManager(t)

	cfg := m.Defaults()
	cfg.Smoothing = 2
	if _, err := m.Create(cfg); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Create() error = %v, want ErrInvalidConfig", err)
	}
	if m.Len() != 0 {
		t.Errorf("Len() = %d after failed create, want 0", m.Len())
	}
}

func TestManager_List(t *testing.T) {
	m := newTestManager(t)

	ids := make(map[string]bool)
	for i := 0; i < 3; i++ {
		s, err := m.CreateDefault()
		if err != nil {
			t.Fatalf("CreateDefault() error = %v", err)
		}
		ids[s.ID()] = true
	}

	list := m.List()
	if len(list) != 3 {
		t.Fatalf("List() returned %d sessions, want 3", len(list))
	}
	for i, s := range list {
		if !ids[s.ID()] {
			t.Errorf("unexpected session %s", s.ID())
		}
		if i > 0 && list[i].CreatedAt().Before(list[i-1].CreatedAt()) {
			t.Error("List() not ordered by creation time")
		}
	}

	m.CloseAll()
	if m.Len() != 0 {
		t.Errorf("Len() after CloseAll = %d, want 0", m.Len())
	}
}

func TestManager_SessionsAreIsolated(t *testing.T) {
	m := newTestManager(t)
	a, _ := m.CreateDefault()
	b, _ := m.CreateDefault()

	a.SetColor(255, 0, 0)
	a.Process(drawAt(100, 100))
	a.Process(drawAt(200, 100))

	if b.Color() != canvas.Black {
		t.Errorf("color leaked into other session: %v", b.Color())
	}
	if got := b.canvas.At(150, 100); got != canvas.White {
		t.Errorf("stroke leaked into other session: %v", got)
	}
	if b.State() != StateNoHand {
		t.Errorf("state leaked into other session: %v", b.State())
	}
}

func TestManager_ConcurrentSessions(t *testing.T) {
	m := newTestManager(t)

	const workers = 8
	sessions := make([]*Session, workers)
	for i := range sessions {
		s, err := m.CreateDefault()
		if err != nil {
			t.Fatalf("CreateDefault() error = %v", err)
		}
		sessions[i] = s
	}

	var wg sync.WaitGroup
	for i, s := range sessions {
		wg.Add(1)
		go func(row int, s *Session) {
			defer wg.Done()
			y := 20 + row*40
			for x := 10; x <= 600; x += 10 {
				s.Process(drawAt(x, y))
				if x%100 == 0 {
					s.Status()
				}
			}
		}(i, s)
	}

	// Readers run alongside the writers.
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, s := range m.List() {
				if _, err := m.Get(s.ID()); err != nil {
					t.Errorf("Get() error = %v", err)
				}
			}
		}()
	}
	wg.Wait()

	for i, s := range sessions {
		st := s.Status()
		if st.Strokes != 59 {
			t.Errorf("session %d committed %d strokes, want 59", i, st.Strokes)
		}
		// Each session only drew its own row.
		for j := range sessions {
			y := 20 + j*40
			got := s.canvas.At(305, y)
			if (j == i) != (got == canvas.Black) {
				t.Errorf("session %d row %d pixel = %v", i, j, got)
			}
		}
	}
}
