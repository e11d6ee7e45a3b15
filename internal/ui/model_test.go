package ui

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sshdeck/sshdeck/internal/backend"
	"github.com/sshdeck/sshdeck/internal/backend/fake"
	"github.com/sshdeck/sshdeck/internal/model"
	"github.com/sshdeck/sshdeck/internal/plugin"
	"github.com/sshdeck/sshdeck/internal/profile"
	"github.com/sshdeck/sshdeck/internal/window"
)

func newTestModel(t *testing.T) (*Harness, *fake.Backend, []model.Profile) {
	t.Helper()
	store, err := profile.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	web, err := store.Save(model.Profile{Name: "web", Host: "web.example.org", Username: "deploy"})
	if err != nil {
		t.Fatalf("save web: %v", err)
	}
	db, err := store.Save(model.Profile{Name: "db", Host: "db.example.org", Port: 2222, Username: "admin"})
	if err != nil {
		t.Fatalf("save db: %v", err)
	}
	b := fake.New()
	m := NewModel(store, b, 80, 24, true, false)
	t.Cleanup(m.Teardown)
	return NewHarness(m), b, []model.Profile{web, db}
}

func pressKey(h *Harness, keyType tea.KeyType) {
	h.Send(tea.KeyMsg{Type: keyType})
}

func pressRunes(h *Harness, text string) {
	h.Send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
}

func countCalls(b *fake.Backend, prefix string) int {
	n := 0
	for _, call := range b.Calls() {
		if strings.HasPrefix(call, prefix) {
			n++
		}
	}
	return n
}

func TestEnterConnectsAndOpensWorkspace(t *testing.T) {
	h, b, profiles := newTestModel(t)

	pressKey(h, tea.KeyEnter)

	m := h.Model()
	if m.mode != ModeWorkspace {
		t.Fatalf("expected workspace mode, got %d", m.mode)
	}
	sess, ok := m.sessions.Current()
	if !ok {
		t.Fatalf("expected a focused session")
	}
	if sess.Profile.ID != profiles[0].ID {
		t.Fatalf("expected first profile connected, got %s", sess.Profile.ID)
	}
	if got := countCalls(b, "connect "+profiles[0].ID); got != 1 {
		t.Fatalf("expected one dial, got %d", got)
	}
	if active := m.plugins.ActiveTab(sess.ID); active != plugin.DefaultTabID {
		t.Fatalf("expected default tab active, got %q", active)
	}
	view := h.View()
	if !strings.Contains(view, "web") {
		t.Fatalf("expected session name in view:\n%s", view)
	}
	if !strings.Contains(view, "Files") {
		t.Fatalf("expected file manager tab in view:\n%s", view)
	}
}

func TestConnectFailureStaysOnPicker(t *testing.T) {
	h, b, _ := newTestModel(t)
	b.ConnectErr = errors.New("dial tcp: connection refused")

	pressKey(h, tea.KeyEnter)

	m := h.Model()
	if m.mode != ModePicker {
		t.Fatalf("expected picker mode after failure, got %d", m.mode)
	}
	if _, ok := m.sessions.Current(); ok {
		t.Fatalf("expected no session after failed connect")
	}
	if !strings.Contains(h.View(), "connection refused") {
		t.Fatalf("expected error surfaced in view")
	}
}

func TestReconnectFocusesExistingSession(t *testing.T) {
	h, b, profiles := newTestModel(t)

	pressKey(h, tea.KeyEnter)
	pressKey(h, tea.KeyEsc) // back to the picker, session stays up
	pressKey(h, tea.KeyEnter)

	m := h.Model()
	if m.mode != ModeWorkspace {
		t.Fatalf("expected workspace mode, got %d", m.mode)
	}
	if got := countCalls(b, "connect "+profiles[0].ID); got != 1 {
		t.Fatalf("expected a single dial for repeat connect, got %d", got)
	}
	if got := len(m.sessions.Sessions()); got != 1 {
		t.Fatalf("expected one session, got %d", got)
	}
}

func TestDisconnectFallsBackToPicker(t *testing.T) {
	h, b, _ := newTestModel(t)

	pressKey(h, tea.KeyEnter)
	sess, _ := h.Model().sessions.Current()
	pressKey(h, tea.KeyCtrlD)

	m := h.Model()
	if m.mode != ModePicker {
		t.Fatalf("expected picker mode after disconnect, got %d", m.mode)
	}
	if _, ok := m.sessions.Current(); ok {
		t.Fatalf("expected no focused session")
	}
	if got := countCalls(b, "disconnect "+sess.ID); got != 1 {
		t.Fatalf("expected one disconnect call, got %d", got)
	}
}

func TestStatusEventUpdatesSessionAndPicker(t *testing.T) {
	h, _, _ := newTestModel(t)

	pressKey(h, tea.KeyEnter)
	m := h.Model()
	sess, _ := m.sessions.Current()

	// Route the bridged message directly; executing the returned wait
	// command would block on an empty feed.
	m.Update(statusEventMsg{event: backend.StatusEvent{
		ConnectionID: sess.ID,
		Status:       model.Reconnecting("connection reset"),
	}})

	updated, err := m.sessions.Get(sess.ID)
	if err != nil {
		t.Fatalf("get session: %v", err)
	}
	if updated.Status.Kind != model.StatusReconnecting {
		t.Fatalf("expected reconnecting status, got %v", updated.Status.Kind)
	}
	found := false
	for _, item := range m.picker.Full {
		if strings.Contains(item.Label, "[reconnecting]") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected picker label to carry the new status")
	}
}

func TestTransferFormQueuesTransfer(t *testing.T) {
	h, b, _ := newTestModel(t)

	pressKey(h, tea.KeyEnter)
	pressRunes(h, "a")
	if h.Model().mode != ModeTransferForm {
		t.Fatalf("expected transfer form mode")
	}

	pressRunes(h, "/tmp/report.pdf")
	pressKey(h, tea.KeyTab)
	pressRunes(h, "/srv/incoming/report.pdf")
	pressKey(h, tea.KeyEnter)

	m := h.Model()
	if m.mode != ModeWorkspace {
		t.Fatalf("expected return to workspace, got %d", m.mode)
	}
	items := m.transfers.Items()
	if len(items) != 1 {
		t.Fatalf("expected one queued transfer, got %d", len(items))
	}
	item := items[0]
	if item.SourcePath != "/tmp/report.pdf" || item.DestinationPath != "/srv/incoming/report.pdf" {
		t.Fatalf("unexpected paths %q -> %q", item.SourcePath, item.DestinationPath)
	}
	if item.Direction != model.DirectionUpload {
		t.Fatalf("expected upload default, got %q", item.Direction)
	}
	if got := countCalls(b, "enqueue"); got != 1 {
		t.Fatalf("expected one enqueue call, got %d", got)
	}
	if info := m.currentInfo(); info != "queued 1 transfer(s)" {
		t.Fatalf("unexpected info message %q", info)
	}
}

func TestTransferFormValidatesInput(t *testing.T) {
	h, _, _ := newTestModel(t)

	pressKey(h, tea.KeyEnter)
	pressRunes(h, "a")
	pressKey(h, tea.KeyEnter) // empty source

	m := h.Model()
	if m.mode != ModeTransferForm {
		t.Fatalf("expected form to stay open on validation error")
	}
	if m.transferForm.Error() != "source is required" {
		t.Fatalf("unexpected validation error %q", m.transferForm.Error())
	}
	pressKey(h, tea.KeyEsc)
	if h.Model().mode != ModeWorkspace {
		t.Fatalf("expected cancel to return to workspace")
	}
}

func TestConnectOpensTerminalAutomatically(t *testing.T) {
	h, b, _ := newTestModel(t)

	pressKey(h, tea.KeyEnter)

	m := h.Model()
	sess, ok := m.sessions.Current()
	if !ok {
		t.Fatalf("expected a focused session")
	}
	if got := countCalls(b, "terminal.open "+sess.ID); got != 1 {
		t.Fatalf("expected terminal opened on connect, got %d calls", got)
	}
	state, ok := m.terminals.Get(sess.ID)
	if !ok || !state.Connected {
		t.Fatalf("expected a live terminal session, got %#v", state)
	}
}

func TestConnectedStatusReopensTerminal(t *testing.T) {
	h, b, _ := newTestModel(t)

	pressKey(h, tea.KeyEnter)
	m := h.Model()
	sess, _ := m.sessions.Current()
	if got := countCalls(b, "terminal.open "+sess.ID); got != 1 {
		t.Fatalf("expected terminal opened on connect, got %d calls", got)
	}

	// A closed channel followed by a connected status reopens the shell.
	m.terminals.Close(context.Background(), sess.ID)
	connected := backend.StatusEvent{
		ConnectionID: sess.ID,
		Status:       model.Connected(sess.Profile.Host, sess.Profile.Username, 0),
	}
	_, cmd := m.Update(statusEventMsg{event: connected})
	if cmd == nil {
		t.Fatalf("expected a command batch from the status handler")
	}
	// Buffer one event so the re-queued feed wait resolves immediately.
	b.Events().Status.Publish(backend.StatusEvent{})
	batch, ok := cmd().(tea.BatchMsg)
	if !ok {
		t.Fatalf("expected batched reopen alongside the feed wait")
	}
	for _, c := range batch {
		if c != nil {
			_ = c()
		}
	}
	if got := countCalls(b, "terminal.open "+sess.ID); got != 2 {
		t.Fatalf("expected reopen after connected status, got %d calls", got)
	}

	if cmd := m.autoOpenTerminal(connected); cmd != nil {
		t.Fatalf("expected live terminal to suppress another open")
	}
	reconnecting := backend.StatusEvent{ConnectionID: sess.ID, Status: model.Reconnecting("reset")}
	if cmd := m.autoOpenTerminal(reconnecting); cmd != nil {
		t.Fatalf("expected non-connected status to leave the terminal alone")
	}
}

func TestTerminalTabFocusAndInput(t *testing.T) {
	h, b, _ := newTestModel(t)

	pressKey(h, tea.KeyEnter)
	m := h.Model()
	sess, _ := m.sessions.Current()

	pressKey(h, tea.KeyCtrlT)
	if got := countCalls(b, "terminal.open "+sess.ID); got != 1 {
		t.Fatalf("expected one terminal open, got %d", got)
	}
	if tmpl := m.activeTemplateID(sess.ID); tmpl != "terminal" {
		t.Fatalf("expected terminal tab active, got %q", tmpl)
	}

	pressKey(h, tea.KeyEnter)
	if !m.termFocus {
		t.Fatalf("expected terminal focus after enter on terminal tab")
	}
	if got := countCalls(b, "terminal.open "+sess.ID); got != 1 {
		t.Fatalf("expected open to stay idempotent, got %d calls", got)
	}

	pressRunes(h, "ls")
	pressKey(h, tea.KeyEnter)
	calls := b.Calls()
	joined := strings.Join(calls, "\n")
	if !strings.Contains(joined, `terminal.input `+sess.ID+` "ls"`) {
		t.Fatalf("expected keystrokes forwarded, calls:\n%s", joined)
	}
	if !strings.Contains(joined, `terminal.input `+sess.ID+` "\r"`) {
		t.Fatalf("expected carriage return forwarded, calls:\n%s", joined)
	}

	pressKey(h, tea.KeyEsc)
	if m.termFocus {
		t.Fatalf("expected esc to release terminal focus")
	}
}

func TestTerminalOutputRendered(t *testing.T) {
	h, _, _ := newTestModel(t)

	pressKey(h, tea.KeyEnter)
	m := h.Model()
	sess, _ := m.sessions.Current()
	pressKey(h, tea.KeyCtrlT)

	m.Update(terminalOutputMsg{event: backend.TerminalEvent{
		ConnectionID: sess.ID,
		Chunk:        []byte("total 12\ndrwxr-xr-x  www"),
	}})

	view := h.View()
	if !strings.Contains(view, "drwxr-xr-x") {
		t.Fatalf("expected terminal output in view:\n%s", view)
	}
}

func TestTransfersWindowLifecycle(t *testing.T) {
	h, _, _ := newTestModel(t)

	pressKey(h, tea.KeyEnter)
	m := h.Model()

	pressRunes(h, "w")
	win, ok := m.windows.Get(transfersWindowID)
	if !ok {
		t.Fatalf("expected transfers window registered")
	}
	if win.State != window.StateNormal {
		t.Fatalf("expected normal state, got %v", win.State)
	}
	if m.windows.Focused() != transfersWindowID {
		t.Fatalf("expected new window focused")
	}

	pressRunes(h, "m")
	win, _ = m.windows.Get(transfersWindowID)
	if win.State != window.StateMinimized {
		t.Fatalf("expected minimized state, got %v", win.State)
	}
	if m.windows.Focused() == transfersWindowID {
		t.Fatalf("expected minimize to drop focus")
	}

	pressRunes(h, "r")
	win, _ = m.windows.Get(transfersWindowID)
	if win.State != window.StateNormal {
		t.Fatalf("expected restore, got %v", win.State)
	}
	if m.windows.Focused() != transfersWindowID {
		t.Fatalf("expected restore to refocus")
	}

	pressRunes(h, "w")
	if _, ok := m.windows.Get(transfersWindowID); ok {
		t.Fatalf("expected toggle to close the window")
	}
}

func TestPickerFilterNarrowsProfiles(t *testing.T) {
	h, _, profiles := newTestModel(t)

	pressRunes(h, "admin")
	m := h.Model()
	if len(m.picker.Items) != 1 || m.picker.Items[0].ID != profiles[1].ID {
		t.Fatalf("expected filter to isolate db profile, got %#v", m.picker.Items)
	}

	pressKey(h, tea.KeyEnter)
	sess, ok := m.sessions.Current()
	if !ok || sess.Profile.ID != profiles[1].ID {
		t.Fatalf("expected filtered selection to connect db profile")
	}
}

func TestProfileFormCreatesProfile(t *testing.T) {
	h, _, profiles := newTestModel(t)

	h.Send(tea.KeyMsg{Type: tea.KeyCtrlN})
	if h.Model().mode != ModeProfileForm {
		t.Fatalf("expected profile form mode")
	}

	pressRunes(h, "cache")
	pressKey(h, tea.KeyTab)
	pressRunes(h, "cache.example.org")
	pressKey(h, tea.KeyTab) // port, keep default
	pressKey(h, tea.KeyTab)
	pressRunes(h, "redis")
	pressKey(h, tea.KeyEnter)

	m := h.Model()
	if m.mode != ModePicker {
		t.Fatalf("expected return to picker, got %d", m.mode)
	}
	if got := len(m.profiles.Profiles()); got != len(profiles)+1 {
		t.Fatalf("expected %d profiles, got %d", len(profiles)+1, got)
	}
	if !strings.Contains(h.View(), "cache") {
		t.Fatalf("expected new profile listed")
	}
}
