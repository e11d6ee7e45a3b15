package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sshdeck/sshdeck/internal/model"
	"github.com/sshdeck/sshdeck/internal/session"
	"github.com/sshdeck/sshdeck/internal/terminal"
	"github.com/sshdeck/sshdeck/internal/transfer"
)

type connectResultMsg struct {
	profileID string
	session   *session.Session
	err       error
}

type disconnectedMsg struct {
	connectionID string
}

type transfersEnqueuedMsg struct {
	items []model.TransferItem
}

type transferActionMsg struct {
	transferID string
	action     string
}

type terminalOpenedMsg struct {
	connectionID string
	err          error
}

type terminalInputMsg struct {
	connectionID string
	err          error
}

func connectCmd(reg *session.Registry, p model.Profile) tea.Cmd {
	return func() tea.Msg {
		sess, err := reg.Connect(context.Background(), p)
		return connectResultMsg{profileID: p.ID, session: sess, err: err}
	}
}

func disconnectCmd(reg *session.Registry, connectionID string) tea.Cmd {
	return func() tea.Msg {
		reg.Disconnect(context.Background(), connectionID)
		return disconnectedMsg{connectionID: connectionID}
	}
}

func enqueueCmd(q *transfer.Queue, reqs []model.TransferRequest) tea.Cmd {
	return func() tea.Msg {
		items := q.Enqueue(context.Background(), reqs)
		return transfersEnqueuedMsg{items: items}
	}
}

func pauseCmd(q *transfer.Queue, transferID string) tea.Cmd {
	return func() tea.Msg {
		q.Pause(context.Background(), transferID)
		return transferActionMsg{transferID: transferID, action: "pause"}
	}
}

func resumeCmd(q *transfer.Queue, transferID string) tea.Cmd {
	return func() tea.Msg {
		q.Resume(context.Background(), transferID)
		return transferActionMsg{transferID: transferID, action: "resume"}
	}
}

func cancelCmd(q *transfer.Queue, transferID string) tea.Cmd {
	return func() tea.Msg {
		q.Cancel(context.Background(), transferID)
		return transferActionMsg{transferID: transferID, action: "cancel"}
	}
}

func openTerminalCmd(c *terminal.Coordinator, connectionID, host, username string) tea.Cmd {
	return func() tea.Msg {
		err := c.Open(context.Background(), connectionID, host, username)
		return terminalOpenedMsg{connectionID: connectionID, err: err}
	}
}

func sendInputCmd(c *terminal.Coordinator, connectionID string, data []byte) tea.Cmd {
	buf := make([]byte, len(data))
	copy(buf, data)
	return func() tea.Msg {
		err := c.SendInput(context.Background(), connectionID, buf)
		return terminalInputMsg{connectionID: connectionID, err: err}
	}
}
