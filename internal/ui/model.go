package ui

import (
	"context"
	"fmt"
	"reflect"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sshdeck/sshdeck/internal/backend"
	"github.com/sshdeck/sshdeck/internal/dispatcher"
	"github.com/sshdeck/sshdeck/internal/logging/events"
	"github.com/sshdeck/sshdeck/internal/model"
	"github.com/sshdeck/sshdeck/internal/plugin"
	"github.com/sshdeck/sshdeck/internal/profile"
	"github.com/sshdeck/sshdeck/internal/session"
	"github.com/sshdeck/sshdeck/internal/terminal"
	"github.com/sshdeck/sshdeck/internal/theme"
	"github.com/sshdeck/sshdeck/internal/transfer"
	"github.com/sshdeck/sshdeck/internal/ui/list"
	"github.com/sshdeck/sshdeck/internal/window"
)

// Mode selects which surface owns keyboard input.
type Mode int

const (
	ModePicker Mode = iota
	ModeWorkspace
	ModeProfileForm
	ModeTransferForm
)

const transfersWindowID = "transfers"

var styles = theme.Default()

type msgHandler func(tea.Msg) tea.Cmd

// Model implements the Bubble Tea model for the whole client.
type Model struct {
	profiles  *profile.Store
	backend   backend.Backend
	sessions  *session.Registry
	transfers *transfer.Queue
	terminals *terminal.Coordinator
	plugins   *plugin.Registry
	windows   *window.Registry

	dispatcher *dispatcher.Dispatcher
	subs       *subscriptions

	mode      Mode
	picker    *list.List
	termFocus bool

	transferCursor int

	profileForm  *ProfileForm
	transferForm *TransferForm

	loading     bool
	pendingName string
	errMsg      string
	infoMsg     string
	infoExpire  time.Time

	width       int
	height      int
	fixedWidth  bool
	fixedHeight bool
	showFooter  bool
	verbose     bool

	handlers map[reflect.Type]msgHandler
}

// NewModel wires the registries over the given backend and profile store.
func NewModel(profiles *profile.Store, b backend.Backend, width, height int, showFooter, verbose bool) *Model {
	sessions := session.NewRegistry(b)
	transfers := transfer.NewQueue(b)
	terminals := terminal.NewCoordinator(b)
	m := &Model{
		profiles:   profiles,
		backend:    b,
		sessions:   sessions,
		transfers:  transfers,
		terminals:  terminals,
		plugins:    plugin.NewRegistry(),
		windows:    window.NewRegistry(window.Size{Width: width, Height: height}),
		dispatcher: dispatcher.New(sessions, transfers, terminals),
		subs:       subscribe(b.Events()),
		mode:       ModePicker,
		showFooter: showFooter,
		verbose:    verbose,
	}
	if width > 0 {
		m.width = width
		m.fixedWidth = true
	}
	if height > 0 {
		m.height = height
		m.fixedHeight = true
	}
	m.picker = list.New(m.pickerItems())
	m.registerTemplates()
	m.registerHandlers()
	return m
}

// Init is part of the tea.Model interface.
func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		waitForStatus(m.subs.status),
		waitForTransferProgress(m.subs.transferProgress),
		waitForTransferDone(m.subs.transferDone),
		waitForTerminalOutput(m.subs.terminalOutput),
	)
}

// Update responds to Bubble Tea messages.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if handled, cmd := m.handleActiveForm(msg); handled {
		return m, cmd
	}
	if handler := m.handlerFor(msg); handler != nil {
		return m, handler(msg)
	}
	return m, nil
}

// Teardown closes the feed subscriptions.
func (m *Model) Teardown() {
	m.subs.close()
}

func (m *Model) handleActiveForm(msg tea.Msg) (bool, tea.Cmd) {
	switch m.mode {
	case ModeProfileForm:
		return m.handleProfileForm(msg)
	case ModeTransferForm:
		return m.handleTransferForm(msg)
	default:
		return false, nil
	}
}

func (m *Model) registerHandlers() {
	m.handlers = map[reflect.Type]msgHandler{
		reflect.TypeOf(tea.KeyMsg{}):        m.handleKeyMsg,
		reflect.TypeOf(tea.WindowSizeMsg{}): m.handleWindowSizeMsg,
		reflect.TypeOf(connectResultMsg{}):  m.handleConnectResultMsg,
		reflect.TypeOf(disconnectedMsg{}):   m.handleDisconnectedMsg,
		reflect.TypeOf(transfersEnqueuedMsg{}): m.handleTransfersEnqueuedMsg,
		reflect.TypeOf(transferActionMsg{}):    m.handleTransferActionMsg,
		reflect.TypeOf(terminalOpenedMsg{}):    m.handleTerminalOpenedMsg,
		reflect.TypeOf(terminalInputMsg{}):     m.handleTerminalInputMsg,
		reflect.TypeOf(statusEventMsg{}):       m.handleStatusEventMsg,
		reflect.TypeOf(transferProgressMsg{}):  m.handleTransferProgressMsg,
		reflect.TypeOf(transferDoneMsg{}):      m.handleTransferDoneMsg,
		reflect.TypeOf(terminalOutputMsg{}):    m.handleTerminalOutputMsg,
		reflect.TypeOf(feedClosedMsg{}):        m.handleFeedClosedMsg,
	}
}

func (m *Model) handlerFor(msg tea.Msg) msgHandler {
	if msg == nil || m.handlers == nil {
		return nil
	}
	t := reflect.TypeOf(msg)
	if handler, ok := m.handlers[t]; ok {
		return handler
	}
	if t.Kind() == reflect.Ptr {
		if handler, ok := m.handlers[t.Elem()]; ok {
			return handler
		}
	}
	return nil
}

func (m *Model) handleConnectResultMsg(msg tea.Msg) tea.Cmd {
	res, ok := msg.(connectResultMsg)
	if !ok {
		return nil
	}
	m.loading = false
	m.pendingName = ""
	if res.err != nil {
		m.errMsg = res.err.Error()
		m.syncSessionViews()
		return nil
	}
	if res.session == nil {
		// A connect for the same profile was already in flight.
		return nil
	}
	m.errMsg = ""
	m.plugins.EnsureSession(res.session.ID)
	m.mode = ModeWorkspace
	m.termFocus = false
	m.syncSessionViews()
	return m.ensureTerminal(res.session)
}

func (m *Model) handleDisconnectedMsg(msg tea.Msg) tea.Cmd {
	res, ok := msg.(disconnectedMsg)
	if !ok {
		return nil
	}
	m.terminals.Close(context.Background(), res.connectionID)
	m.plugins.DropSession(res.connectionID)
	if m.sessions.CurrentID() == "" {
		m.mode = ModePicker
		m.termFocus = false
	}
	m.syncSessionViews()
	return nil
}

func (m *Model) handleTransfersEnqueuedMsg(msg tea.Msg) tea.Cmd {
	res, ok := msg.(transfersEnqueuedMsg)
	if !ok {
		return nil
	}
	if len(res.items) > 0 {
		m.setInfo(fmt.Sprintf("queued %d transfer(s)", len(res.items)))
	}
	return nil
}

func (m *Model) handleTransferActionMsg(msg tea.Msg) tea.Cmd {
	m.clampTransferCursor()
	return nil
}

func (m *Model) handleTerminalOpenedMsg(msg tea.Msg) tea.Cmd {
	res, ok := msg.(terminalOpenedMsg)
	if !ok {
		return nil
	}
	if res.err != nil {
		m.errMsg = res.err.Error()
		return nil
	}
	m.errMsg = ""
	return nil
}

func (m *Model) handleTerminalInputMsg(msg tea.Msg) tea.Cmd {
	res, ok := msg.(terminalInputMsg)
	if !ok {
		return nil
	}
	if res.err != nil {
		m.errMsg = res.err.Error()
		m.termFocus = false
	}
	return nil
}

// currentSession returns the focused session, nil when none exists.
func (m *Model) currentSession() *session.Session {
	sess, ok := m.sessions.Current()
	if !ok {
		return nil
	}
	return sess
}

func (m *Model) pickerItems() []list.Item {
	profiles := m.profiles.Profiles()
	live := m.sessions.Sessions()
	byProfile := make(map[string]model.ConnectionStatus, len(live))
	for _, sess := range live {
		byProfile[sess.Profile.ID] = sess.Status
	}
	items := make([]list.Item, 0, len(profiles))
	for _, p := range profiles {
		host, port := p.Address()
		label := fmt.Sprintf("%s  %s@%s:%d", p.Name, p.Username, host, port)
		if status, ok := byProfile[p.ID]; ok {
			label += "  [" + status.String() + "]"
		} else if m.sessions.Connecting(p.ID) {
			label += "  [connecting]"
		}
		items = append(items, list.Item{ID: p.ID, Label: label})
	}
	return items
}

func (m *Model) syncSessionViews() {
	m.picker.SetItems(m.pickerItems())
	m.picker.EnsureVisible(m.maxVisibleItems())
}

func (m *Model) clampTransferCursor() {
	count := len(m.transfers.Items())
	if count == 0 {
		m.transferCursor = 0
		return
	}
	if m.transferCursor < 0 {
		m.transferCursor = 0
	}
	if m.transferCursor >= count {
		m.transferCursor = count - 1
	}
}

func (m *Model) selectedTransferID() string {
	items := m.transfers.Items()
	if m.transferCursor < 0 || m.transferCursor >= len(items) {
		return ""
	}
	return items[m.transferCursor].ID
}

func (m *Model) toggleTransfersWindow() {
	if _, ok := m.windows.Get(transfersWindowID); ok {
		m.windows.Close(transfersWindowID)
		return
	}
	m.windows.Register(window.Config{
		ID:          transfersWindowID,
		Title:       "Transfers",
		DefaultSize: window.Size{Width: 72, Height: 14},
		MinSize:     window.Size{Width: 40, Height: 6},
		Content: func(width, height int) string {
			return m.renderTransferTable(width, height)
		},
	})
}

func (m *Model) registerTemplates() {
	m.plugins.RegisterTemplate(plugin.Template{
		ID:    plugin.DefaultTabID,
		Label: "Files",
		Icon:  "⌂",
		Render: func(sessionID string, width, height int) string {
			return m.renderFileManager(sessionID, width, height)
		},
	})
	m.plugins.RegisterTemplate(plugin.Template{
		ID:    "terminal",
		Label: "Terminal",
		Icon:  ">",
		Render: func(sessionID string, width, height int) string {
			return m.renderTerminal(sessionID, width, height)
		},
	})
	m.plugins.RegisterTemplate(plugin.Template{
		ID:    "transfers",
		Label: "Transfers",
		Icon:  "⇅",
		Render: func(sessionID string, width, height int) string {
			return m.renderTransferTable(width, height)
		},
	})
}

func (m *Model) setInfo(message string) {
	m.infoMsg = message
	m.infoExpire = time.Now().Add(5 * time.Second)
}

func (m *Model) forceClearInfo() {
	m.infoMsg = ""
	m.infoExpire = time.Time{}
}

func (m *Model) currentInfo() string {
	if m.infoMsg != "" && !m.infoExpire.IsZero() && time.Now().After(m.infoExpire) {
		m.infoMsg = ""
		m.infoExpire = time.Time{}
	}
	return m.infoMsg
}

func (m *Model) quit() tea.Cmd {
	events.App.Exit("keyboard")
	m.subs.close()
	return tea.Quit
}
