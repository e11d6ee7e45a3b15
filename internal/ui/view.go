package ui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sshdeck/sshdeck/internal/format"
	"github.com/sshdeck/sshdeck/internal/model"
	"github.com/sshdeck/sshdeck/internal/window"
)

type styledLine struct {
	text  string
	style *lipgloss.Style
	raw   bool // text carries ANSI escapes; skip styling and truncation
}

// View implements tea.Model.
func (m *Model) View() string {
	switch m.mode {
	case ModeProfileForm:
		if m.profileForm != nil {
			return m.viewForm(m.profileForm.Title(), m.profileForm.View(), m.profileForm.Error())
		}
	case ModeTransferForm:
		if m.transferForm != nil {
			return m.viewForm(m.transferForm.Title(), m.transferForm.View(), m.transferForm.Error())
		}
	case ModeWorkspace:
		return m.viewWorkspace()
	}
	return m.viewPicker()
}

func (m *Model) viewPicker() string {
	lines := make([]styledLine, 0, 16)
	lines = append(lines, styledLine{text: "sshdeck · profiles", style: styles.Header})
	if len(m.picker.Items) == 0 {
		msg := "(no profiles; ctrl+n to create one)"
		if m.picker.Filter != "" {
			msg = fmt.Sprintf("No matches for %q", m.picker.Filter)
		}
		lines = append(lines, styledLine{text: msg, style: styles.Info})
	} else {
		m.picker.EnsureVisible(m.maxVisibleItems())
		visible := m.picker.Visible(m.maxVisibleItems())
		start := m.picker.ViewportOffset
		if len(m.picker.Items) <= m.maxVisibleItems() || m.maxVisibleItems() <= 0 {
			start = 0
		}
		for i, item := range visible {
			idx := start + i
			indicator := "▌ "
			lineStyle := styles.Item
			if idx == m.picker.Cursor {
				lineStyle = styles.SelectedItem
			}
			lines = append(lines, styledLine{text: indicator + item.Label, style: lineStyle})
		}
	}
	if m.loading && m.pendingName != "" {
		lines = append(lines, styledLine{})
		lines = append(lines, styledLine{text: "connecting to " + m.pendingName + "…", style: styles.Loading})
	}
	if info := m.currentInfo(); info != "" {
		lines = append(lines, styledLine{})
		lines = append(lines, styledLine{text: info, style: styles.Info})
	}
	if m.showFooter {
		lines = append(lines, styledLine{})
		lines = append(lines, styledLine{text: "↑/↓ move  enter connect  ctrl+n new  ctrl+e edit  ctrl+x delete  ctrl+c quit", style: styles.Footer})
	}
	lines = limitHeight(lines, m.height-2, m.width)
	lines = applyWidth(lines, m.width)
	lines = append(lines, m.bottomBar()...)
	return renderLines(lines)
}

func (m *Model) viewWorkspace() string {
	sess := m.currentSession()
	if sess == nil {
		return m.viewPicker()
	}
	lines := make([]styledLine, 0, 32)
	lines = append(lines, styledLine{text: m.sessionBar(), raw: true})
	lines = append(lines, styledLine{text: m.tabBar(sess.ID), raw: true})

	bodyHeight := m.height - 5 // session bar, tab bar, blank, bottom bar
	if m.showFooter {
		bodyHeight -= 2
	}
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	body := m.renderActiveTab(sess.ID, m.width, bodyHeight)
	for _, line := range strings.Split(body, "\n") {
		lines = append(lines, styledLine{text: line, raw: true})
	}

	for _, line := range m.renderWindows() {
		lines = append(lines, styledLine{text: line, raw: true})
	}

	if info := m.currentInfo(); info != "" {
		lines = append(lines, styledLine{})
		lines = append(lines, styledLine{text: info, style: styles.Info})
	}
	if m.showFooter {
		lines = append(lines, styledLine{})
		footer := "tab cycle  ctrl+t terminal  a transfer  space pause  c cancel  w transfers  ctrl+d disconnect  esc back"
		if m.termFocus {
			footer = "terminal focused · esc to release"
		}
		lines = append(lines, styledLine{text: footer, style: styles.Footer})
	}
	lines = limitHeight(lines, m.height-2, m.width)
	lines = applyWidth(lines, m.width)
	lines = append(lines, m.bottomBar()...)
	return renderLines(lines)
}

func (m *Model) viewForm(title, body, errText string) string {
	lines := []styledLine{
		{text: title, style: styles.Header},
		{},
	}
	for _, line := range strings.Split(body, "\n") {
		lines = append(lines, styledLine{text: line, raw: true})
	}
	if errText != "" {
		lines = append(lines, styledLine{})
		lines = append(lines, styledLine{text: errText, style: styles.Error})
	}
	lines = append(lines, styledLine{})
	lines = append(lines, styledLine{text: "tab next field  enter submit  esc cancel", style: styles.Footer})
	lines = limitHeight(lines, m.height, m.width)
	return renderLines(lines)
}

// sessionBar renders one segment per live session, status-coloured, with
// the focused session emphasised.
func (m *Model) sessionBar() string {
	sessions := m.sessions.Sessions()
	if len(sessions) == 0 {
		return styles.Header.Render("sshdeck")
	}
	current := m.sessions.CurrentID()
	segments := make([]string, 0, len(sessions))
	for _, sess := range sessions {
		label := sess.Profile.Name
		if label == "" {
			label = sess.Profile.Host
		}
		label += " [" + sess.Status.String() + "]"
		style := m.statusStyle(sess.Status)
		if sess.ID == current {
			label = "● " + label
		}
		segments = append(segments, style.Render(label))
	}
	return strings.Join(segments, "  ")
}

func (m *Model) statusStyle(status model.ConnectionStatus) *lipgloss.Style {
	switch status.Kind {
	case model.StatusConnected:
		return styles.StatusConnected
	case model.StatusConnecting:
		return styles.StatusConnecting
	case model.StatusReconnecting:
		return styles.StatusReconnecting
	case model.StatusError:
		return styles.StatusError
	}
	return styles.Info
}

func (m *Model) tabBar(sessionID string) string {
	tabs := m.plugins.Tabs(sessionID)
	if len(tabs) == 0 {
		return ""
	}
	active := m.plugins.ActiveTab(sessionID)
	segments := make([]string, 0, len(tabs))
	for i, tab := range tabs {
		label := fmt.Sprintf(" %d:%s ", i+1, tab.Label)
		if tab.ID == active {
			segments = append(segments, styles.TabActive.Render(label))
		} else {
			segments = append(segments, styles.TabInactive.Render(label))
		}
	}
	return strings.Join(segments, "")
}

func (m *Model) renderActiveTab(sessionID string, width, height int) string {
	active := m.plugins.ActiveTab(sessionID)
	for _, tab := range m.plugins.Tabs(sessionID) {
		if tab.ID != active {
			continue
		}
		tmpl, ok := m.plugins.Template(tab.TemplateID)
		if !ok || tmpl.Render == nil {
			break
		}
		return tmpl.Render(sessionID, width, height)
	}
	return styles.Info.Render("(no open tab)")
}

func (m *Model) renderFileManager(sessionID string, width, height int) string {
	sess, err := m.sessions.Get(sessionID)
	if err != nil {
		return styles.Error.Render("session gone")
	}
	rows := [][]string{
		{"remote", sess.RemotePath},
		{"local", sess.LocalPath},
	}
	out := make([]string, 0, 8)
	for _, row := range format.Table(rows, []format.Alignment{format.AlignLeft, format.AlignLeft}) {
		out = append(out, styles.WindowBody.Render(format.Truncate(row, width)))
	}
	active := m.transfers.Active()
	if len(active) > 0 {
		out = append(out, "")
		out = append(out, styles.Info.Render(fmt.Sprintf("%d transfer(s) in flight; press w", len(active))))
	}
	return strings.Join(out, "\n")
}

func (m *Model) renderTerminal(sessionID string, width, height int) string {
	chunks := m.terminals.Output(sessionID)
	if len(chunks) == 0 {
		state, ok := m.terminals.Get(sessionID)
		switch {
		case ok && state.Failed:
			return styles.Error.Render("terminal channel failed; enter to reopen")
		case ok && state.Connected:
			return styles.Info.Render("(terminal open, no output yet)")
		default:
			return styles.Info.Render("(press enter to open a shell)")
		}
	}
	var b strings.Builder
	for _, chunk := range chunks {
		b.Write(chunk)
	}
	outputLines := strings.Split(b.String(), "\n")
	if height > 0 && len(outputLines) > height {
		outputLines = outputLines[len(outputLines)-height:]
	}
	return strings.Join(outputLines, "\n")
}

func (m *Model) renderTransferTable(width, height int) string {
	items := m.transfers.Items()
	if len(items) == 0 {
		return styles.Info.Render("(queue empty; press a to add a transfer)")
	}
	rows := make([][]string, 0, len(items)+1)
	rows = append(rows, []string{"", "", "path", "size", "rate", "eta", "state"})
	for _, item := range items {
		rows = append(rows, []string{
			"",
			format.Direction(item.Direction),
			format.Truncate(item.SourcePath, 40),
			format.Size(item.Size),
			format.Rate(item.Speed),
			format.ETA(item.ETA),
			format.Progress(item),
		})
	}
	aligned := format.Table(rows, []format.Alignment{
		format.AlignLeft, format.AlignLeft, format.AlignLeft,
		format.AlignRight, format.AlignRight, format.AlignRight, format.AlignLeft,
	})
	out := make([]string, 0, len(aligned))
	out = append(out, styles.Header.Render(aligned[0]))
	for i, line := range aligned[1:] {
		style := m.transferStyle(items[i].Status)
		prefix := "  "
		if i == m.transferCursor {
			prefix = "▌ "
		}
		out = append(out, style.Render(prefix+format.Truncate(line, width-2)))
	}
	if height > 0 && len(out) > height {
		out = out[:height]
	}
	return strings.Join(out, "\n")
}

func (m *Model) transferStyle(status model.TransferStatus) *lipgloss.Style {
	switch status {
	case model.TransferActive, model.TransferPending:
		return styles.TransferActive
	case model.TransferPaused:
		return styles.TransferPaused
	case model.TransferCompleted:
		return styles.TransferDone
	case model.TransferFailed, model.TransferCancelled:
		return styles.TransferFailed
	}
	return styles.Info
}

// renderWindows draws the visible window stack bottom to top. Minimized
// windows collapse to their title line.
func (m *Model) renderWindows() []string {
	stack := m.windows.Stack()
	if len(stack) == 0 {
		return nil
	}
	focused := m.windows.Focused()
	out := make([]string, 0, 16)
	for _, win := range stack {
		title := win.Title
		if win.Subtitle != "" {
			title += " · " + win.Subtitle
		}
		titleStyle := styles.WindowTitle
		if win.ID == focused {
			titleStyle = styles.WindowFocused
		}
		out = append(out, "")
		out = append(out, titleStyle.Render("┌ "+title+" ┐"))
		if win.State == window.StateMinimized {
			continue
		}
		width := win.Position.Width
		height := win.Position.Height
		if win.State == window.StateMaximized {
			width = m.width
			height = m.height - 4
		}
		if win.Content != nil {
			out = append(out, strings.Split(win.Content(width, height), "\n")...)
		}
	}
	return out
}

func (m *Model) bottomBar() []styledLine {
	var statusLine styledLine
	if m.errMsg != "" {
		statusLine = styledLine{text: "Error: " + m.errMsg, style: styles.Error}
	}
	prompt := ""
	if m.mode == ModePicker {
		prompt = "» " + m.picker.Filter
		if m.picker.Filter == "" {
			prompt = "» (type to search)"
		}
		if styles.FilterPrompt != nil {
			prompt = styles.FilterPrompt.Render("» ") + styles.Filter.Render(strings.TrimPrefix(prompt, "» "))
		}
	}
	return applyWidth([]styledLine{statusLine, {text: prompt, raw: true}}, m.width)
}

func (m *Model) handleWindowSizeMsg(msg tea.Msg) tea.Cmd {
	resize, ok := msg.(tea.WindowSizeMsg)
	if !ok {
		return nil
	}
	if !m.fixedWidth {
		m.width = resize.Width
	}
	if !m.fixedHeight {
		m.height = resize.Height
	}
	m.windows.SetScreen(window.Size{Width: m.width, Height: m.height})
	if sess := m.currentSession(); sess != nil {
		if state, ok := m.terminals.Get(sess.ID); ok && state.Connected {
			m.terminals.Resize(context.Background(), sess.ID, m.width, m.height-5)
		}
	}
	m.picker.EnsureVisible(m.maxVisibleItems())
	return nil
}

func (m *Model) maxVisibleItems() int {
	if m.height <= 0 {
		return -1
	}
	used := 3 // header + bottom bar
	if m.currentInfo() != "" {
		used += 2
	}
	if m.showFooter {
		used += 2
	}
	if m.loading {
		used += 2
	}
	remain := m.height - used
	if remain < 1 {
		return 1
	}
	return remain
}

func limitHeight(lines []styledLine, height, width int) []styledLine {
	if height <= 0 || len(lines) <= height {
		return lines
	}
	if height == 1 {
		return []styledLine{{text: truncateText("…", width)}}
	}
	trimmed := make([]styledLine, 0, height)
	trimmed = append(trimmed, lines[:height-1]...)
	trimmed = append(trimmed, styledLine{text: truncateText("…", width)})
	return trimmed
}

func applyWidth(lines []styledLine, width int) []styledLine {
	if width <= 0 {
		return lines
	}
	result := make([]styledLine, len(lines))
	for i, line := range lines {
		text := line.text
		if !line.raw {
			text = truncateText(text, width)
		}
		result[i] = styledLine{text: text, style: line.style, raw: line.raw}
	}
	return result
}

func renderLines(lines []styledLine) string {
	out := make([]string, len(lines))
	for i, line := range lines {
		text := line.text
		if !line.raw && line.style != nil {
			text = line.style.Render(text)
		}
		out[i] = text
	}
	return strings.Join(out, "\n")
}

func truncateText(text string, width int) string {
	return format.Truncate(text, width)
}
