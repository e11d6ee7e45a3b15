package ui

import (
	"github.com/charmbracelet/bubbles/cursor"
	tea "github.com/charmbracelet/bubbletea"
)

// Harness drives Model through scripted messages, standing in for the
// bubbletea runtime in tests: every command a handler returns is executed
// on the spot and its result fed back through Update, so a keystroke's
// whole effect settles before the next assertion.
type Harness struct {
	model *Model
}

// NewHarness wraps the model for scripted driving.
func NewHarness(model *Model) *Harness {
	return &Harness{model: model}
}

// Send feeds one message through Update and runs the command chain it
// produces to completion.
func (h *Harness) Send(msg tea.Msg) {
	if h.model == nil {
		return
	}
	h.processCmd(h.apply(msg))
}

func (h *Harness) apply(msg tea.Msg) tea.Cmd {
	mdl, cmd := h.model.Update(msg)
	if updated, ok := mdl.(*Model); ok {
		h.model = updated
	}
	return cmd
}

func (h *Harness) processCmd(cmd tea.Cmd) {
	for cmd != nil {
		msg := cmd()
		if msg == nil {
			return
		}
		// Cursor blinks self-perpetuate: feeding a BlinkMsg back through
		// Update yields another BlinkCmd forever. The real runtime runs
		// that loop concurrently; a synchronous driver must drop it here.
		if _, ok := msg.(cursor.BlinkMsg); ok {
			return
		}
		cmd = h.apply(msg)
	}
}

// View renders the model's current frame.
func (h *Harness) View() string {
	if h.model == nil {
		return ""
	}
	return h.model.View()
}

// Model exposes the driven model for state assertions.
func (h *Harness) Model() *Model {
	return h.model
}
