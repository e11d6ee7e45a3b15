package window

import "testing"

func testConfig(id string) Config {
	return Config{
		ID:          id,
		Title:       id,
		DefaultSize: Size{Width: 40, Height: 10},
		MinSize:     Size{Width: 20, Height: 5},
	}
}

func TestRegisterAssignsMonotonicZAndFocus(t *testing.T) {
	r := NewRegistry(Size{Width: 100, Height: 40})

	first := r.Register(testConfig("a"))
	second := r.Register(testConfig("b"))
	third := r.Register(testConfig("c"))

	if !(first.ZIndex < second.ZIndex && second.ZIndex < third.ZIndex) {
		t.Fatalf("expected strictly increasing z, got %d %d %d", first.ZIndex, second.ZIndex, third.ZIndex)
	}
	if r.Focused() != "c" {
		t.Fatalf("expected newest window focused, got %q", r.Focused())
	}
	stack := r.Stack()
	if len(stack) != 3 || stack[0].ID != "a" || stack[2].ID != "c" {
		t.Fatalf("expected bottom-to-top stack order, got %#v", stack)
	}
}

func TestRegisterCentersFromScreenSize(t *testing.T) {
	r := NewRegistry(Size{Width: 100, Height: 40})
	w := r.Register(testConfig("a"))
	if w.Position.X != 30 || w.Position.Y != 15 {
		t.Fatalf("expected centered position, got %+v", w.Position)
	}
	if w.Position.Width != 40 || w.Position.Height != 10 {
		t.Fatalf("expected default size geometry, got %+v", w.Position)
	}
}

func TestFocusBumpsZEvenWhenAlreadyTopmost(t *testing.T) {
	r := NewRegistry(Size{Width: 100, Height: 40})
	r.Register(testConfig("a"))
	before, _ := r.Get("a")

	r.Focus("a")
	after, _ := r.Get("a")
	if after.ZIndex <= before.ZIndex {
		t.Fatalf("expected unconditional z bump, got %d -> %d", before.ZIndex, after.ZIndex)
	}
	r.Focus("ghost")
	if r.Focused() != "a" {
		t.Fatalf("expected unknown focus to be ignored")
	}
}

func TestFocusRestoresMinimizedWindow(t *testing.T) {
	r := NewRegistry(Size{Width: 100, Height: 40})
	r.Register(testConfig("a"))

	r.Minimize("a")
	if r.Focused() != "" {
		t.Fatalf("expected focus cleared on minimize, got %q", r.Focused())
	}
	w, _ := r.Get("a")
	if w.State != StateMinimized {
		t.Fatalf("expected minimized state, got %q", w.State)
	}

	r.Focus("a")
	w, _ = r.Get("a")
	if w.State != StateNormal {
		t.Fatalf("expected focus to restore the window, got %q", w.State)
	}
	if r.Focused() != "a" {
		t.Fatalf("expected window focused after restore")
	}
}

func TestMinimizeOfUnfocusedWindowKeepsFocus(t *testing.T) {
	r := NewRegistry(Size{Width: 100, Height: 40})
	r.Register(testConfig("a"))
	r.Register(testConfig("b"))

	r.Minimize("a")
	if r.Focused() != "b" {
		t.Fatalf("expected focus untouched, got %q", r.Focused())
	}
}

func TestStateChangesPreserveGeometry(t *testing.T) {
	r := NewRegistry(Size{Width: 100, Height: 40})
	r.Register(testConfig("a"))
	x, y := 5, 7
	r.UpdatePosition("a", PositionPatch{X: &x, Y: &y})

	r.Maximize("a")
	r.Restore("a")
	w, _ := r.Get("a")
	if w.Position.X != 5 || w.Position.Y != 7 {
		t.Fatalf("expected geometry preserved across states, got %+v", w.Position)
	}
}

func TestUpdatePositionMergesPartialPatch(t *testing.T) {
	r := NewRegistry(Size{Width: 100, Height: 40})
	r.Register(testConfig("a"))
	orig, _ := r.Get("a")

	x := 3
	r.UpdatePosition("a", PositionPatch{X: &x})
	w, _ := r.Get("a")
	if w.Position.X != 3 {
		t.Fatalf("expected x updated, got %d", w.Position.X)
	}
	if w.Position.Y != orig.Position.Y || w.Position.Width != orig.Position.Width {
		t.Fatalf("expected untouched fields preserved, got %+v", w.Position)
	}

	// Resizes clamp at the window's minimum size.
	tiny := 1
	r.UpdatePosition("a", PositionPatch{Width: &tiny, Height: &tiny})
	w, _ = r.Get("a")
	if w.Position.Width != 20 || w.Position.Height != 5 {
		t.Fatalf("expected clamp to min size, got %+v", w.Position)
	}
}

func TestCloseRunsCallbackExactlyOnce(t *testing.T) {
	r := NewRegistry(Size{Width: 100, Height: 40})
	calls := 0
	cfg := testConfig("a")
	cfg.OnClose = func() { calls++ }
	r.Register(cfg)

	r.Close("a")
	r.Close("a")
	if calls != 1 {
		t.Fatalf("expected OnClose exactly once, got %d", calls)
	}
	if _, ok := r.Get("a"); ok {
		t.Fatalf("expected window removed")
	}
	if r.Focused() != "" {
		t.Fatalf("expected focus cleared after close")
	}
}
