package plugin

import (
	"strings"
	"testing"
)

func newTestRegistry() *Registry {
	r := NewRegistry()
	r.RegisterTemplate(Template{ID: DefaultTabID, Label: "Files"})
	r.RegisterTemplate(Template{ID: "terminal", Label: "Terminal"})
	r.RegisterTemplate(Template{ID: "transfers", Label: "Transfers"})
	return r
}

func TestRegisterTemplateReplacesInPlace(t *testing.T) {
	r := newTestRegistry()
	r.RegisterTemplate(Template{ID: "terminal", Label: "Shell"})

	templates := r.Templates()
	if len(templates) != 3 {
		t.Fatalf("expected 3 templates, got %d", len(templates))
	}
	if templates[1].ID != "terminal" || templates[1].Label != "Shell" {
		t.Fatalf("expected replacement to keep registration order, got %#v", templates)
	}
}

func TestEnsureSessionSeedsDefaultTab(t *testing.T) {
	r := newTestRegistry()
	r.EnsureSession("conn-1")

	tabs := r.Tabs("conn-1")
	if len(tabs) != 1 {
		t.Fatalf("expected 1 seeded tab, got %d", len(tabs))
	}
	if tabs[0].TemplateID != DefaultTabID {
		t.Fatalf("expected default file-manager tab, got %q", tabs[0].TemplateID)
	}
	if r.ActiveTab("conn-1") != tabs[0].ID {
		t.Fatalf("expected seeded tab to be active")
	}

	// Re-ensuring a live session must not reset its tab state.
	r.InstantiateTab("conn-1", "terminal")
	r.EnsureSession("conn-1")
	if len(r.Tabs("conn-1")) != 2 {
		t.Fatalf("expected tab state to survive re-ensure")
	}
}

func TestInstantiateTabMakesInstanceActive(t *testing.T) {
	r := newTestRegistry()
	r.EnsureSession("conn-1")

	first, ok := r.InstantiateTab("conn-1", "terminal")
	if !ok {
		t.Fatalf("expected instantiate to succeed")
	}
	second, ok := r.InstantiateTab("conn-1", "terminal")
	if !ok {
		t.Fatalf("expected second instantiate to succeed")
	}
	if first.ID == second.ID {
		t.Fatalf("expected distinct instance ids, both %q", first.ID)
	}
	if !strings.HasPrefix(first.ID, "terminal-") {
		t.Fatalf("expected instance id derived from template id, got %q", first.ID)
	}
	if r.ActiveTab("conn-1") != second.ID {
		t.Fatalf("expected newest instance to be active")
	}

	if _, ok := r.InstantiateTab("conn-1", "missing"); ok {
		t.Fatalf("expected unknown template to fail")
	}
	if _, ok := r.InstantiateTab("ghost", "terminal"); ok {
		t.Fatalf("expected unknown session to fail")
	}
}

func TestCloseActiveTabFallsToFirstRemaining(t *testing.T) {
	r := newTestRegistry()
	r.EnsureSession("conn-1")
	term, _ := r.InstantiateTab("conn-1", "terminal")
	xfer, _ := r.InstantiateTab("conn-1", "transfers")
	if r.ActiveTab("conn-1") != xfer.ID {
		t.Fatalf("expected transfers tab active")
	}

	r.CloseTab("conn-1", xfer.ID)
	if got := r.ActiveTab("conn-1"); got != DefaultTabID {
		t.Fatalf("expected focus on first remaining tab, got %q", got)
	}

	// Closing an inactive tab leaves focus alone.
	r.SetActiveTab("conn-1", term.ID)
	r.CloseTab("conn-1", DefaultTabID)
	if r.ActiveTab("conn-1") != term.ID {
		t.Fatalf("expected active tab unchanged")
	}

	r.CloseTab("conn-1", term.ID)
	if r.ActiveTab("conn-1") != "" {
		t.Fatalf("expected no active tab after closing the last one")
	}
}

func TestSetActiveTabIgnoresUnknownTab(t *testing.T) {
	r := newTestRegistry()
	r.EnsureSession("conn-1")
	r.SetActiveTab("conn-1", "bogus")
	if r.ActiveTab("conn-1") != DefaultTabID {
		t.Fatalf("expected active tab unchanged")
	}
}

func TestDropSessionDiscardsTabState(t *testing.T) {
	r := newTestRegistry()
	r.EnsureSession("conn-1")
	r.InstantiateTab("conn-1", "terminal")

	r.DropSession("conn-1")
	if r.Tabs("conn-1") != nil {
		t.Fatalf("expected no tabs after drop")
	}
	if r.ActiveTab("conn-1") != "" {
		t.Fatalf("expected no active tab after drop")
	}
}

func TestUnregisterTemplateKeepsOpenInstances(t *testing.T) {
	r := newTestRegistry()
	r.EnsureSession("conn-1")
	tab, _ := r.InstantiateTab("conn-1", "terminal")

	r.UnregisterTemplate("terminal")
	if _, ok := r.Template("terminal"); ok {
		t.Fatalf("expected template removed from catalog")
	}
	found := false
	for _, open := range r.Tabs("conn-1") {
		if open.ID == tab.ID {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected open instance to survive unregister")
	}
	if _, ok := r.InstantiateTab("conn-1", "terminal"); ok {
		t.Fatalf("expected instantiation to fail after unregister")
	}
}
