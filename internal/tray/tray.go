// Package tray provides a system tray interface for the air canvas.
package tray

import (
	"sync"

	"github.com/getlantern/systray"
)

// Tray represents the system tray application.
type Tray struct {
	onToggle   func(enabled bool)
	onClear    func()
	onSnapshot func()
	onOpen     func()
	onQuit     func()
	enabled    bool
	mode       string
	color      string
	mu         sync.RWMutex

	// Menu items stored for later updates
	menuToggle *systray.MenuItem
	menuMode   *systray.MenuItem
	menuColor  *systray.MenuItem
}

// New creates a new Tray instance with enabled state set to true by default.
func New() *Tray {
	return &Tray{
		enabled: true,
		mode:    "idle",
	}
}

// OnToggle sets the callback function to be called when drawing is paused or resumed.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnClear sets the callback function to be called when Clear Canvas is clicked.
func (t *Tray) OnClear(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onClear = fn
}

// OnSnapshot sets the callback function to be called when Save Snapshot is clicked.
func (t *Tray) OnSnapshot(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSnapshot = fn
}

// OnOpen sets the callback function to be called when Open Canvas is clicked.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
}

// OnQuit sets the callback function to be called when the quit menu item is clicked.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// Run starts the system tray application.
// This function blocks until systray.Quit() is called.
func (t *Tray) Run() {
	systray.Run(t.onReady, t.onExit)
}

// onReady is called when the system tray is ready.
// It sets up the menu structure.
func (t *Tray) onReady() {
	systray.SetTitle("Air Canvas")
	systray.SetTooltip("Air Canvas hand drawing")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Pause or resume drawing")
	systray.AddSeparator()

	t.menuMode = systray.AddMenuItem(modeTitle(t.mode), "Current drawing mode")
	t.menuMode.Disable()
	t.menuColor = systray.AddMenuItem(colorTitle(t.color), "Selected brush color")
	t.menuColor.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuClear := systray.AddMenuItem("Clear Canvas", "Erase everything on the canvas")
	menuSnapshot := systray.AddMenuItem("Save Snapshot", "Save the canvas as PNG")
	menuOpen := systray.AddMenuItem("Open Canvas...", "Open the canvas in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit Air Canvas")

	// Handle menu item clicks in a separate goroutine
	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuClear.ClickedCh:
				t.call(func() func() { return t.onClear })
			case <-menuSnapshot.ClickedCh:
				t.call(func() func() { return t.onSnapshot })
			case <-menuOpen.ClickedCh:
				t.call(func() func() { return t.onOpen })
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

// onExit is called when the system tray is about to exit.
func (t *Tray) onExit() {}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Drawing enabled"
	}
	return "○ Drawing paused"
}

func modeTitle(mode string) string {
	return "Mode: " + mode
}

func colorTitle(color string) string {
	if color == "" {
		return "Color: none"
	}
	return "Color: " + color
}

// handleToggle handles the toggle menu item click.
func (t *Tray) handleToggle() {
	t.mu.Lock()
	t.enabled = !t.enabled
	enabled := t.enabled

	if t.menuToggle != nil {
		t.menuToggle.SetTitle(toggleTitle(enabled))
	}

	callback := t.onToggle
	t.mu.Unlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(enabled)
	}
}

// call runs the callback chosen by pick outside the lock.
func (t *Tray) call(pick func() func()) {
	t.mu.RLock()
	callback := pick()
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

// handleQuit handles the quit menu item click.
func (t *Tray) handleQuit() {
	t.call(func() func() { return t.onQuit })
	systray.Quit()
}

// SetMode updates the mode display. Repeated values are ignored, so it is
// safe to call on every frame.
func (t *Tray) SetMode(mode string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if mode == t.mode {
		return
	}
	t.mode = mode
	if t.menuMode != nil {
		t.menuMode.SetTitle(modeTitle(mode))
	}
}

// SetColor updates the color display.
func (t *Tray) SetColor(hex string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if hex == t.color {
		return
	}
	t.color = hex
	if t.menuColor != nil {
		t.menuColor.SetTitle(colorTitle(hex))
	}
}

// Mode returns the mode last passed to SetMode.
func (t *Tray) Mode() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.mode
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}
