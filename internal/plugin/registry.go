// Package plugin maintains the process-wide tool template catalog and the
// per-session active tab. The catalog is shared; which tab is active, and
// which instances are open, is tracked independently for every session.
package plugin

import (
	"sync"

	"github.com/sshdeck/sshdeck/internal/id"
	"github.com/sshdeck/sshdeck/internal/logging/events"
)

// DefaultTabID is the tab every new session starts on.
const DefaultTabID = "file-manager"

// Template describes one registered tool. Render produces the tab's content
// for a given session and viewport.
type Template struct {
	ID     string
	Label  string
	Icon   string
	Render func(sessionID string, width, height int) string
}

// Tab is one live instance of a template within a session.
type Tab struct {
	ID         string
	TemplateID string
	Label      string
}

type sessionTabs struct {
	tabs   []Tab
	active string
}

// Registry is the template catalog plus per-session tab tracking.
type Registry struct {
	mu        sync.Mutex
	templates []Template
	sessions  map[string]*sessionTabs
}

// NewRegistry constructs an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*sessionTabs)}
}

// RegisterTemplate adds a template to the global catalog, replacing any
// existing template with the same id in place so registration order holds.
func (r *Registry) RegisterTemplate(t Template) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.templates {
		if r.templates[i].ID == t.ID {
			r.templates[i] = t
			return
		}
	}
	r.templates = append(r.templates, t)
	events.Tab.Register(t.ID)
}

// UnregisterTemplate removes a template from the catalog. Open instances of
// it are unaffected; they simply can no longer be instantiated.
func (r *Registry) UnregisterTemplate(templateID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.templates[:0]
	for _, t := range r.templates {
		if t.ID != templateID {
			kept = append(kept, t)
		}
	}
	r.templates = kept
}

// Templates returns the catalog in registration order.
func (r *Registry) Templates() []Template {
	r.mu.Lock()
	defer r.mu.Unlock()
	dup := make([]Template, len(r.templates))
	copy(dup, r.templates)
	return dup
}

// Template looks a template up by id.
func (r *Registry) Template(templateID string) (Template, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.templates {
		if t.ID == templateID {
			return t, true
		}
	}
	return Template{}, false
}

// EnsureSession initialises tab tracking for a session, opening the default
// file-manager tab. Calling it again for a live session is a no-op.
func (r *Registry) EnsureSession(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[sessionID]; ok {
		return
	}
	r.sessions[sessionID] = &sessionTabs{
		tabs:   []Tab{{ID: DefaultTabID, TemplateID: DefaultTabID, Label: "Files"}},
		active: DefaultTabID,
	}
}

// DropSession discards all tab state for a session.
func (r *Registry) DropSession(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionID)
}

// InstantiateTab creates a fresh instance of the template for the session
// and makes it active. The instance id combines the template id with a
// random uniqueifier so multiple instances of one template can coexist.
func (r *Registry) InstantiateTab(sessionID, templateID string) (Tab, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var tpl *Template
	for i := range r.templates {
		if r.templates[i].ID == templateID {
			tpl = &r.templates[i]
			break
		}
	}
	st, ok := r.sessions[sessionID]
	if tpl == nil || !ok {
		return Tab{}, false
	}
	tab := Tab{ID: id.Instance(templateID), TemplateID: templateID, Label: tpl.Label}
	st.tabs = append(st.tabs, tab)
	st.active = tab.ID
	events.Tab.Instantiate(templateID, tab.ID)
	return tab, true
}

// CloseTab removes a tab from the session. When the closed tab was active
// and at least one tab remains, focus falls to the first remaining tab in
// registration order; with none left the content area is empty.
func (r *Registry) CloseTab(sessionID, tabID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.sessions[sessionID]
	if !ok {
		return
	}
	kept := st.tabs[:0]
	removed := false
	for _, tab := range st.tabs {
		if tab.ID == tabID {
			removed = true
			continue
		}
		kept = append(kept, tab)
	}
	st.tabs = kept
	if !removed {
		return
	}
	if st.active == tabID {
		st.active = ""
		if len(st.tabs) > 0 {
			st.active = st.tabs[0].ID
		}
	}
	events.Tab.Close(sessionID, tabID, st.active)
}

// SetActiveTab focuses an open tab. Unknown tabs are a no-op.
func (r *Registry) SetActiveTab(sessionID, tabID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.sessions[sessionID]
	if !ok {
		return
	}
	for _, tab := range st.tabs {
		if tab.ID == tabID {
			st.active = tabID
			return
		}
	}
}

// ActiveTab returns the session's active tab id, empty when the session has
// no open tabs.
func (r *Registry) ActiveTab(sessionID string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st, ok := r.sessions[sessionID]; ok {
		return st.active
	}
	return ""
}

// Tabs returns the session's open tabs in order.
func (r *Registry) Tabs(sessionID string) []Tab {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.sessions[sessionID]
	if !ok {
		return nil
	}
	dup := make([]Tab, len(st.tabs))
	copy(dup, st.tabs)
	return dup
}
