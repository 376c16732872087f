// Package tray provides the system tray menu for airsketch.
package tray

import (
	"sync"

	"github.com/getlantern/systray"
)

// Preset is a named stroke color offered in the Color submenu.
type Preset struct {
	Name string
	Hex  string
}

// Presets are the colors listed in the tray.
var Presets = []Preset{
	{Name: "Red", Hex: "#ff3b30"},
	{Name: "Orange", Hex: "#ff9500"},
	{Name: "Yellow", Hex: "#ffcc00"},
	{Name: "Green", Hex: "#34c759"},
	{Name: "Blue", Hex: "#007aff"},
	{Name: "White", Hex: "#ffffff"},
	{Name: "Black", Hex: "#000000"},
}

// Tray represents the system tray application.
type Tray struct {
	onToggle func(enabled bool)
	onClear  func()
	onSave   func()
	onColor  func(hex string)
	onOpen   func()
	onQuit   func()
	enabled  bool
	mu       sync.RWMutex

	// Menu items stored for later updates
	menuToggle   *systray.MenuItem
	menuLastPose *systray.MenuItem
}

// New creates a new Tray instance with enabled state set to true by default.
func New() *Tray {
	return &Tray{
		enabled: true,
	}
}

// OnToggle sets the callback for the Enabled item.
func (t *Tray) OnToggle(fn func(enabled bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onToggle = fn
}

// OnClear sets the callback for Clear Canvas.
func (t *Tray) OnClear(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onClear = fn
}

// OnSave sets the callback for Save Drawing.
func (t *Tray) OnSave(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onSave = fn
}

// OnColor sets the callback for the color presets. It receives "#rrggbb".
func (t *Tray) OnColor(fn func(hex string)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onColor = fn
}

// OnOpen sets the callback for Open Preview.
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

// Quit closes the tray, unblocking Run.
func (t *Tray) Quit() {
	systray.Quit()
}

func (t *Tray) onReady() {
	systray.SetTitle("airsketch")
	systray.SetTooltip("airsketch - draw in the air")

	t.mu.Lock()
	t.menuToggle = systray.AddMenuItem(toggleTitle(t.enabled), "Toggle drawing")
	systray.AddSeparator()

	t.menuLastPose = systray.AddMenuItem(poseTitle(""), "Last detected pose")
	t.menuLastPose.Disable()
	t.mu.Unlock()
	systray.AddSeparator()

	menuColor := systray.AddMenuItem("Color", "Stroke color")
	for _, p := range Presets {
		item := menuColor.AddSubMenuItem(p.Name, p.Hex)
		go t.watchColor(item, p.Hex)
	}

	menuClear := systray.AddMenuItem("Clear Canvas", "Erase the whole drawing")
	menuSave := systray.AddMenuItem("Save Drawing", "Write the drawing as PNG")
	menuOpen := systray.AddMenuItem("Open Preview...", "Open the preview in a browser")
	systray.AddSeparator()

	menuQuit := systray.AddMenuItem("Quit", "Quit airsketch")

	go func() {
		for {
			select {
			case <-t.menuToggle.ClickedCh:
				t.handleToggle()
			case <-menuClear.ClickedCh:
				t.fire(func() func() { return t.onClear })
			case <-menuSave.ClickedCh:
				t.fire(func() func() { return t.onSave })
			case <-menuOpen.ClickedCh:
				t.fire(func() func() { return t.onOpen })
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()
}

func (t *Tray) watchColor(item *systray.MenuItem, hex string) {
	for range item.ClickedCh {
		t.mu.RLock()
		callback := t.onColor
		t.mu.RUnlock()

		if callback != nil {
			callback(hex)
		}
	}
}

func (t *Tray) onExit() {}

// fire runs the callback returned by get outside the lock.
func (t *Tray) fire(get func() func()) {
	t.mu.RLock()
	callback := get()
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

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

func (t *Tray) handleQuit() {
	t.fire(func() func() { return t.onQuit })
	systray.Quit()
}

// SetLastPose updates the last pose display in the menu.
func (t *Tray) SetLastPose(name string) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	if t.menuLastPose != nil {
		t.menuLastPose.SetTitle(poseTitle(name))
	}
}

// IsEnabled returns the current enabled state.
func (t *Tray) IsEnabled() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.enabled
}

func toggleTitle(enabled bool) string {
	if enabled {
		return "● Enabled"
	}
	return "○ Disabled"
}

func poseTitle(name string) string {
	if name == "" {
		return "Last: none"
	}
	return "Last: " + name
}
