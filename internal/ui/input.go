package ui

import (
	"unicode"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sshdeck/sshdeck/internal/model"
	"github.com/sshdeck/sshdeck/internal/plugin"
	"github.com/sshdeck/sshdeck/internal/session"
)

func (m *Model) handleKeyMsg(msg tea.Msg) tea.Cmd {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return nil
	}
	if key.Type == tea.KeyCtrlC {
		return m.quit()
	}
	switch m.mode {
	case ModePicker:
		return m.handlePickerKey(key)
	case ModeWorkspace:
		if m.termFocus {
			return m.handleTerminalKey(key)
		}
		return m.handleWorkspaceKey(key)
	}
	return nil
}

func (m *Model) handlePickerKey(key tea.KeyMsg) tea.Cmd {
	switch key.String() {
	case "ctrl+n":
		m.startProfileForm(model.Profile{})
		return nil
	case "ctrl+e":
		if item, ok := m.picker.CurrentItem(); ok {
			if p, found := m.profiles.Get(item.ID); found {
				m.startProfileForm(p)
			}
		}
		return nil
	case "ctrl+x":
		if item, ok := m.picker.CurrentItem(); ok {
			if err := m.profiles.Remove(item.ID); err != nil {
				m.errMsg = err.Error()
			} else {
				m.setInfo("profile removed")
			}
			m.syncSessionViews()
		}
		return nil
	case "ctrl+u":
		if m.picker.ClearFilter() {
			m.picker.EnsureVisible(m.maxVisibleItems())
		}
		return nil
	case "ctrl+w":
		if m.sessions.CurrentID() != "" {
			m.mode = ModeWorkspace
		}
		return nil
	}
	switch key.Type {
	case tea.KeyUp:
		m.picker.MoveCursor(-1)
		m.picker.EnsureVisible(m.maxVisibleItems())
	case tea.KeyDown:
		m.picker.MoveCursor(1)
		m.picker.EnsureVisible(m.maxVisibleItems())
	case tea.KeyHome:
		m.picker.MoveCursorHome()
		m.picker.EnsureVisible(m.maxVisibleItems())
	case tea.KeyEnd:
		m.picker.MoveCursorEnd()
		m.picker.EnsureVisible(m.maxVisibleItems())
	case tea.KeyEnter:
		return m.connectSelected()
	case tea.KeyEsc:
		if m.picker.ClearFilter() {
			m.picker.EnsureVisible(m.maxVisibleItems())
			return nil
		}
		return m.quit()
	case tea.KeyBackspace, tea.KeyCtrlH:
		if m.picker.BackspaceFilter() {
			m.errMsg = ""
			m.picker.EnsureVisible(m.maxVisibleItems())
		}
	case tea.KeySpace:
		m.appendPickerFilter(" ")
	case tea.KeyRunes:
		if key.Alt {
			return nil
		}
		for _, r := range key.Runes {
			if unicode.IsControl(r) {
				return nil
			}
		}
		m.appendPickerFilter(string(key.Runes))
	}
	return nil
}

func (m *Model) appendPickerFilter(text string) {
	m.picker.AppendFilter(text)
	m.errMsg = ""
	m.forceClearInfo()
	m.picker.EnsureVisible(m.maxVisibleItems())
}

// connectSelected dials the profile under the cursor. A profile that is
// already connected just gets focus back.
func (m *Model) connectSelected() tea.Cmd {
	item, ok := m.picker.CurrentItem()
	if !ok {
		return nil
	}
	p, found := m.profiles.Get(item.ID)
	if !found {
		return nil
	}
	if m.sessions.Connecting(p.ID) {
		m.setInfo("already connecting to " + p.Name)
		return nil
	}
	m.loading = true
	m.pendingName = p.Name
	m.errMsg = ""
	return connectCmd(m.sessions, p)
}

func (m *Model) handleWorkspaceKey(key tea.KeyMsg) tea.Cmd {
	sess := m.currentSession()
	if sess == nil {
		m.mode = ModePicker
		return nil
	}
	switch key.String() {
	case "tab":
		m.cycleTab(sess.ID, 1)
		return nil
	case "shift+tab":
		m.cycleTab(sess.ID, -1)
		return nil
	case "ctrl+t":
		return m.openTerminalTab(sess)
	case "ctrl+f":
		if tab, ok := m.plugins.InstantiateTab(sess.ID, plugin.DefaultTabID); ok {
			m.plugins.SetActiveTab(sess.ID, tab.ID)
		}
		return nil
	case "ctrl+x":
		m.plugins.CloseTab(sess.ID, m.plugins.ActiveTab(sess.ID))
		return nil
	case "ctrl+d":
		return disconnectCmd(m.sessions, sess.ID)
	}
	switch key.Type {
	case tea.KeyEsc:
		m.mode = ModePicker
		m.syncSessionViews()
		return nil
	case tea.KeyEnter:
		if m.activeTemplateID(sess.ID) == "terminal" {
			m.termFocus = true
			return m.ensureTerminal(sess)
		}
		return nil
	case tea.KeyUp:
		m.transferCursor--
		m.clampTransferCursor()
		return nil
	case tea.KeyDown:
		m.transferCursor++
		m.clampTransferCursor()
		return nil
	case tea.KeyRunes:
		return m.handleWorkspaceRune(sess, key)
	case tea.KeySpace:
		return m.togglePauseSelected()
	}
	return nil
}

func (m *Model) handleWorkspaceRune(sess *session.Session, key tea.KeyMsg) tea.Cmd {
	if len(key.Runes) != 1 {
		return nil
	}
	switch key.Runes[0] {
	case 't':
		return m.openTerminalTab(sess)
	case 'a':
		m.startTransferForm(sess)
		return nil
	case 'c':
		if id := m.selectedTransferID(); id != "" {
			return cancelCmd(m.transfers, id)
		}
	case 'w':
		m.toggleTransfersWindow()
	case 'm':
		if id := m.windows.Focused(); id != "" {
			m.windows.Minimize(id)
		}
	case 'M':
		if id := m.windows.Focused(); id != "" {
			m.windows.Maximize(id)
		}
	case 'r':
		if _, ok := m.windows.Get(transfersWindowID); ok {
			m.windows.Restore(transfersWindowID)
			m.windows.Focus(transfersWindowID)
		}
	case 'n':
		m.cycleSession(1)
	case 'p':
		m.cycleSession(-1)
	case '1', '2', '3', '4', '5', '6', '7', '8', '9':
		m.activateTabIndex(sess.ID, int(key.Runes[0]-'1'))
	}
	return nil
}

func (m *Model) togglePauseSelected() tea.Cmd {
	id := m.selectedTransferID()
	if id == "" {
		return nil
	}
	item, ok := m.transfers.Get(id)
	if !ok {
		return nil
	}
	if item.Status == model.TransferPaused {
		return resumeCmd(m.transfers, id)
	}
	return pauseCmd(m.transfers, id)
}

func (m *Model) cycleTab(sessionID string, delta int) {
	tabs := m.plugins.Tabs(sessionID)
	if len(tabs) == 0 {
		return
	}
	active := m.plugins.ActiveTab(sessionID)
	idx := 0
	for i, tab := range tabs {
		if tab.ID == active {
			idx = i
			break
		}
	}
	idx = (idx + delta + len(tabs)) % len(tabs)
	m.plugins.SetActiveTab(sessionID, tabs[idx].ID)
}

func (m *Model) activateTabIndex(sessionID string, idx int) {
	tabs := m.plugins.Tabs(sessionID)
	if idx < 0 || idx >= len(tabs) {
		return
	}
	m.plugins.SetActiveTab(sessionID, tabs[idx].ID)
}

func (m *Model) activeTemplateID(sessionID string) string {
	active := m.plugins.ActiveTab(sessionID)
	for _, tab := range m.plugins.Tabs(sessionID) {
		if tab.ID == active {
			return tab.TemplateID
		}
	}
	return ""
}

func (m *Model) cycleSession(delta int) {
	sessions := m.sessions.Sessions()
	if len(sessions) < 2 {
		return
	}
	current := m.sessions.CurrentID()
	idx := 0
	for i, sess := range sessions {
		if sess.ID == current {
			idx = i
			break
		}
	}
	idx = (idx + delta + len(sessions)) % len(sessions)
	m.sessions.SetCurrent(sessions[idx].ID)
	m.termFocus = false
}

func (m *Model) openTerminalTab(sess *session.Session) tea.Cmd {
	tab, ok := m.plugins.InstantiateTab(sess.ID, "terminal")
	if !ok {
		return nil
	}
	m.plugins.SetActiveTab(sess.ID, tab.ID)
	return m.ensureTerminal(sess)
}

func (m *Model) ensureTerminal(sess *session.Session) tea.Cmd {
	return openTerminalCmd(m.terminals, sess.ID, sess.Profile.Host, sess.Profile.Username)
}

func (m *Model) handleTerminalKey(key tea.KeyMsg) tea.Cmd {
	sess := m.currentSession()
	if sess == nil {
		m.termFocus = false
		return nil
	}
	switch key.Type {
	case tea.KeyEsc:
		m.termFocus = false
		return nil
	case tea.KeyEnter:
		return sendInputCmd(m.terminals, sess.ID, []byte("\r"))
	case tea.KeyBackspace, tea.KeyCtrlH:
		return sendInputCmd(m.terminals, sess.ID, []byte{0x7f})
	case tea.KeyTab:
		return sendInputCmd(m.terminals, sess.ID, []byte("\t"))
	case tea.KeySpace:
		return sendInputCmd(m.terminals, sess.ID, []byte(" "))
	case tea.KeyUp:
		return sendInputCmd(m.terminals, sess.ID, []byte("\x1b[A"))
	case tea.KeyDown:
		return sendInputCmd(m.terminals, sess.ID, []byte("\x1b[B"))
	case tea.KeyRight:
		return sendInputCmd(m.terminals, sess.ID, []byte("\x1b[C"))
	case tea.KeyLeft:
		return sendInputCmd(m.terminals, sess.ID, []byte("\x1b[D"))
	case tea.KeyRunes:
		if key.Alt {
			return nil
		}
		return sendInputCmd(m.terminals, sess.ID, []byte(string(key.Runes)))
	}
	return nil
}
