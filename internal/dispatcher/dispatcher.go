// Package dispatcher routes backend push events into the registries. Each
// event only ever mutates its own session, transfer item, or terminal
// buffer; the Result flags let the UI decide which views to refresh.
package dispatcher

import (
	"github.com/sshdeck/sshdeck/internal/backend"
	"github.com/sshdeck/sshdeck/internal/session"
	"github.com/sshdeck/sshdeck/internal/terminal"
	"github.com/sshdeck/sshdeck/internal/transfer"
)

// Result reports which registries an event touched.
type Result struct {
	SessionsUpdated  bool
	TransfersUpdated bool
	TerminalUpdated  bool
	// TerminalConnection names the connection whose buffer grew, so the UI
	// refreshes only the affected viewport.
	TerminalConnection string
}

// Dispatcher fans backend events out to the registries.
type Dispatcher struct {
	sessions  *session.Registry
	transfers *transfer.Queue
	terminals *terminal.Coordinator
}

// New constructs a dispatcher over the three registries.
func New(s *session.Registry, q *transfer.Queue, t *terminal.Coordinator) *Dispatcher {
	return &Dispatcher{sessions: s, transfers: q, terminals: t}
}

// HandleStatus applies a pushed connection status change.
func (d *Dispatcher) HandleStatus(evt backend.StatusEvent) Result {
	d.sessions.UpdateStatus(evt.ConnectionID, evt.Status)
	return Result{SessionsUpdated: true}
}

// HandleTransferProgress applies a transfer progress snapshot.
func (d *Dispatcher) HandleTransferProgress(evt backend.TransferEvent) Result {
	d.transfers.ApplyProgress(evt.Item)
	return Result{TransfersUpdated: true}
}

// HandleTransferDone applies a transfer completion.
func (d *Dispatcher) HandleTransferDone(evt backend.TransferEvent) Result {
	d.transfers.ApplyCompletion(evt.Item)
	return Result{TransfersUpdated: true}
}

// HandleTerminalOutput appends a pushed output chunk.
func (d *Dispatcher) HandleTerminalOutput(evt backend.TerminalEvent) Result {
	d.terminals.HandleOutput(evt.ConnectionID, evt.Chunk)
	return Result{TerminalUpdated: true, TerminalConnection: evt.ConnectionID}
}
