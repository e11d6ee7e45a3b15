package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sshdeck/sshdeck/internal/backend"
	"github.com/sshdeck/sshdeck/internal/model"
)

// subscriptions holds the model's live feed subscriptions. Each feed is
// bridged into the update loop by a wait command that re-queues itself
// after every delivered event.
type subscriptions struct {
	status           *backend.Subscription[backend.StatusEvent]
	transferProgress *backend.Subscription[backend.TransferEvent]
	transferDone     *backend.Subscription[backend.TransferEvent]
	terminalOutput   *backend.Subscription[backend.TerminalEvent]
}

func subscribe(feeds *backend.Feeds) *subscriptions {
	return &subscriptions{
		status:           feeds.Status.Subscribe(),
		transferProgress: feeds.TransferProgress.Subscribe(),
		transferDone:     feeds.TransferDone.Subscribe(),
		terminalOutput:   feeds.TerminalOutput.Subscribe(),
	}
}

func (s *subscriptions) close() {
	if s == nil {
		return
	}
	s.status.Close()
	s.transferProgress.Close()
	s.transferDone.Close()
	s.terminalOutput.Close()
}

type statusEventMsg struct {
	event backend.StatusEvent
}

type transferProgressMsg struct {
	event backend.TransferEvent
}

type transferDoneMsg struct {
	event backend.TransferEvent
}

type terminalOutputMsg struct {
	event backend.TerminalEvent
}

type feedClosedMsg struct {
	feed string
}

func waitForStatus(sub *backend.Subscription[backend.StatusEvent]) tea.Cmd {
	return func() tea.Msg {
		evt, ok := <-sub.C
		if !ok {
			return feedClosedMsg{feed: "status"}
		}
		return statusEventMsg{event: evt}
	}
}

func waitForTransferProgress(sub *backend.Subscription[backend.TransferEvent]) tea.Cmd {
	return func() tea.Msg {
		evt, ok := <-sub.C
		if !ok {
			return feedClosedMsg{feed: "transfer-progress"}
		}
		return transferProgressMsg{event: evt}
	}
}

func waitForTransferDone(sub *backend.Subscription[backend.TransferEvent]) tea.Cmd {
	return func() tea.Msg {
		evt, ok := <-sub.C
		if !ok {
			return feedClosedMsg{feed: "transfer-done"}
		}
		return transferDoneMsg{event: evt}
	}
}

func waitForTerminalOutput(sub *backend.Subscription[backend.TerminalEvent]) tea.Cmd {
	return func() tea.Msg {
		evt, ok := <-sub.C
		if !ok {
			return feedClosedMsg{feed: "terminal-output"}
		}
		return terminalOutputMsg{event: evt}
	}
}

func (m *Model) handleStatusEventMsg(msg tea.Msg) tea.Cmd {
	evtMsg, ok := msg.(statusEventMsg)
	if !ok {
		return nil
	}
	m.dispatcher.HandleStatus(evtMsg.event)
	m.syncSessionViews()
	wait := waitForStatus(m.subs.status)
	if open := m.autoOpenTerminal(evtMsg.event); open != nil {
		return tea.Batch(open, wait)
	}
	return wait
}

// autoOpenTerminal starts the shell channel when a connection reports
// connected and no live terminal exists for it, so a recovered connection
// gets its terminal back without a keystroke. The coordinator's idempotent
// Open keeps repeated connected statuses from stacking channels.
func (m *Model) autoOpenTerminal(evt backend.StatusEvent) tea.Cmd {
	if evt.Status.Kind != model.StatusConnected {
		return nil
	}
	if state, ok := m.terminals.Get(evt.ConnectionID); ok && state.Connected {
		return nil
	}
	sess, err := m.sessions.Get(evt.ConnectionID)
	if err != nil {
		return nil
	}
	return openTerminalCmd(m.terminals, sess.ID, sess.Profile.Host, sess.Profile.Username)
}

func (m *Model) handleTransferProgressMsg(msg tea.Msg) tea.Cmd {
	evtMsg, ok := msg.(transferProgressMsg)
	if !ok {
		return nil
	}
	m.dispatcher.HandleTransferProgress(evtMsg.event)
	return waitForTransferProgress(m.subs.transferProgress)
}

func (m *Model) handleTransferDoneMsg(msg tea.Msg) tea.Cmd {
	evtMsg, ok := msg.(transferDoneMsg)
	if !ok {
		return nil
	}
	m.dispatcher.HandleTransferDone(evtMsg.event)
	m.clampTransferCursor()
	return waitForTransferDone(m.subs.transferDone)
}

func (m *Model) handleTerminalOutputMsg(msg tea.Msg) tea.Cmd {
	evtMsg, ok := msg.(terminalOutputMsg)
	if !ok {
		return nil
	}
	m.dispatcher.HandleTerminalOutput(evtMsg.event)
	return waitForTerminalOutput(m.subs.terminalOutput)
}

func (m *Model) handleFeedClosedMsg(msg tea.Msg) tea.Cmd {
	return nil
}
