package tray

import "testing"

func TestTray_Toggle(t *testing.T) {
	tr := New()
	if !tr.IsEnabled() {
		t.Fatal("expected tray to start enabled")
	}

	var got []bool
	tr.OnToggle(func(enabled bool) { got = append(got, enabled) })

	tr.handleToggle()
	tr.handleToggle()

	if len(got) != 2 || got[0] || !got[1] {
		t.Errorf("toggle callbacks = %v, want [false true]", got)
	}
	if !tr.IsEnabled() {
		t.Error("expected tray to be enabled after two toggles")
	}
}

func TestTray_Callbacks(t *testing.T) {
	tr := New()
	clears, snapshots := 0, 0
	tr.OnClear(func() { clears++ })
	tr.OnSnapshot(func() { snapshots++ })

	tr.call(func() func() { return tr.onClear })
	tr.call(func() func() { return tr.onSnapshot })
	tr.call(func() func() { return tr.onSnapshot })
	// Unset callbacks are skipped.
	tr.call(func() func() { return tr.onOpen })

	if clears != 1 || snapshots != 2 {
		t.Errorf("clears=%d snapshots=%d, want 1 and 2", clears, snapshots)
	}
}

func TestTray_SetMode(t *testing.T) {
	tr := New()
	if tr.Mode() != "idle" {
		t.Errorf("initial mode = %q, want idle", tr.Mode())
	}

	// Menu items do not exist until the tray runs.
	tr.SetMode("draw")
	tr.SetColor("#ff0000")
	if tr.Mode() != "draw" {
		t.Errorf("mode = %q, want draw", tr.Mode())
	}
}

func TestTitles(t *testing.T) {
	tests := []struct {
		got, want string
	}{
		{toggleTitle(true), "● Drawing enabled"},
		{toggleTitle(false), "○ Drawing paused"},
		{modeTitle("erase"), "Mode: erase"},
		{colorTitle(""), "Color: none"},
		{colorTitle("#00ff00"), "Color: #00ff00"},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("title = %q, want %q", tt.got, tt.want)
		}
	}
}
