// Package window manages stacking and lifecycle for detached viewer
// windows. The z counter is shared across all windows and only ever grows,
// so relative stacking can be recovered from the z values alone.
package window

import (
	"sort"
	"sync"

	"github.com/sshdeck/sshdeck/internal/logging/events"
)

// State is a window's display state. Minimize, maximize and restore change
// the state only; position is untouched so restore returns to the prior
// geometry.
type State string

const (
	StateNormal    State = "normal"
	StateMinimized State = "minimized"
	StateMaximized State = "maximized"
)

// Size is a width/height pair in cells.
type Size struct {
	Width  int
	Height int
}

// Position is a window's geometry.
type Position struct {
	X      int
	Y      int
	Width  int
	Height int
}

// Config describes a window at registration time. Content renders the
// window body for the given inner dimensions; OnClose, when set, runs
// exactly once when the window closes.
type Config struct {
	ID          string
	Title       string
	Subtitle    string
	DefaultSize Size
	MinSize     Size
	Content     func(width, height int) string
	OnClose     func()
}

// Window is one registered viewer window.
type Window struct {
	Config
	State    State
	ZIndex   int
	Position Position
}

// Registry owns every detached window. It is constructed and injected by
// the application root rather than living as package state, so tests and
// future hosts can run several registries side by side.
type Registry struct {
	mu      sync.Mutex
	screen  Size
	windows map[string]*Window
	zTop    int
	focused string
}

// NewRegistry constructs a registry for the given screen size.
func NewRegistry(screen Size) *Registry {
	return &Registry{screen: screen, windows: make(map[string]*Window)}
}

// SetScreen records the current screen size used for centering.
func (r *Registry) SetScreen(screen Size) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.screen = screen
}

// Register adds a window, assigns it the next z value, centers it from its
// default size, and focuses it. This happens unconditionally even when a
// window with the id already exists: callers own the existence check.
func (r *Registry) Register(cfg Config) Window {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.zTop++
	w := &Window{
		Config:   cfg,
		State:    StateNormal,
		ZIndex:   r.zTop,
		Position: r.centeredLocked(cfg.DefaultSize),
	}
	r.windows[cfg.ID] = w
	r.focused = cfg.ID
	events.Window.Register(cfg.ID, w.ZIndex)
	return *w
}

// Focus raises the window to the top of the stack. The z bump is
// unconditional, even for an already-topmost window, and a minimized window
// is restored to normal so focus never references a minimized window.
func (r *Registry) Focus(windowID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.windows[windowID]
	if !ok {
		return
	}
	r.zTop++
	w.ZIndex = r.zTop
	if w.State == StateMinimized {
		w.State = StateNormal
	}
	r.focused = windowID
	events.Window.Focus(windowID, w.ZIndex)
}

// Minimize hides the window. If it was focused, focus clears so the focused
// id never points at a minimized window.
func (r *Registry) Minimize(windowID string) {
	r.setState(windowID, StateMinimized)
}

// Maximize expands the window without touching its stored position.
func (r *Registry) Maximize(windowID string) {
	r.setState(windowID, StateMaximized)
}

// Restore returns the window to its normal state and prior geometry.
func (r *Registry) Restore(windowID string) {
	r.setState(windowID, StateNormal)
}

func (r *Registry) setState(windowID string, state State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.windows[windowID]
	if !ok {
		return
	}
	w.State = state
	if state == StateMinimized && r.focused == windowID {
		r.focused = ""
	}
	events.Window.State(windowID, string(state))
}

// PositionPatch carries the geometry fields to merge. Nil fields keep their
// current values, so drags (x/y) and resizes (width/height) update
// independently.
type PositionPatch struct {
	X      *int
	Y      *int
	Width  *int
	Height *int
}

// UpdatePosition merges the supplied fields into the window's geometry.
func (r *Registry) UpdatePosition(windowID string, patch PositionPatch) {
	r.mu.Lock()
	defer r.mu.Unlock()
	w, ok := r.windows[windowID]
	if !ok {
		return
	}
	if patch.X != nil {
		w.Position.X = *patch.X
	}
	if patch.Y != nil {
		w.Position.Y = *patch.Y
	}
	if patch.Width != nil {
		w.Position.Width = max(*patch.Width, w.MinSize.Width)
	}
	if patch.Height != nil {
		w.Position.Height = max(*patch.Height, w.MinSize.Height)
	}
}

// Close runs the window's OnClose callback exactly once and deletes the
// entry. Closing an absent id is a no-op, so repeated closes are safe.
func (r *Registry) Close(windowID string) {
	r.mu.Lock()
	w, ok := r.windows[windowID]
	if !ok {
		r.mu.Unlock()
		return
	}
	onClose := w.OnClose
	delete(r.windows, windowID)
	if r.focused == windowID {
		r.focused = ""
	}
	r.mu.Unlock()

	events.Window.Close(windowID)
	if onClose != nil {
		onClose()
	}
}

// Get returns a copy of the window.
func (r *Registry) Get(windowID string) (Window, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if w, ok := r.windows[windowID]; ok {
		return *w, true
	}
	return Window{}, false
}

// Focused returns the focused window id, empty when none is focused.
func (r *Registry) Focused() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.focused
}

// Stack returns copies of all windows ordered bottom to top.
func (r *Registry) Stack() []Window {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Window, 0, len(r.windows))
	for _, w := range r.windows {
		out = append(out, *w)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ZIndex < out[j].ZIndex })
	return out
}

func (r *Registry) centeredLocked(size Size) Position {
	pos := Position{Width: size.Width, Height: size.Height}
	if r.screen.Width > size.Width {
		pos.X = (r.screen.Width - size.Width) / 2
	}
	if r.screen.Height > size.Height {
		pos.Y = (r.screen.Height - size.Height) / 2
	}
	return pos
}
