package theme

import "github.com/charmbracelet/lipgloss"

// Styles describes reusable Lip Gloss styles shared across the UI.
type Styles struct {
	Item              *lipgloss.Style
	SelectedItem      *lipgloss.Style
	ItemIndicator     *lipgloss.Style
	Loading           *lipgloss.Style
	Error             *lipgloss.Style
	Info              *lipgloss.Style
	Header            *lipgloss.Style
	Footer            *lipgloss.Style
	Filter            *lipgloss.Style
	FilterPrompt      *lipgloss.Style
	FilterPlaceholder *lipgloss.Style

	StatusConnected    *lipgloss.Style
	StatusConnecting   *lipgloss.Style
	StatusReconnecting *lipgloss.Style
	StatusError        *lipgloss.Style

	TabActive   *lipgloss.Style
	TabInactive *lipgloss.Style

	TransferActive *lipgloss.Style
	TransferPaused *lipgloss.Style
	TransferDone   *lipgloss.Style
	TransferFailed *lipgloss.Style

	WindowTitle   *lipgloss.Style
	WindowBody    *lipgloss.Style
	WindowFocused *lipgloss.Style
}

var defaultStyles = Styles{
	Item: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("249")),
	),
	SelectedItem: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Background(lipgloss.Color("238")).Bold(true),
	),
	ItemIndicator: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("238")),
	),
	Loading: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("33")).Italic(true),
	),
	Error: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	),
	Info: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("249")),
	),
	Header: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Bold(true),
	),
	Footer: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("249")),
	),
	Filter: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("249")),
	),
	FilterPrompt: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("34")).Bold(true),
	),
	FilterPlaceholder: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	),
	StatusConnected: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("40")).Bold(true),
	),
	StatusConnecting: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("33")).Italic(true),
	),
	StatusReconnecting: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Italic(true),
	),
	StatusError: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	),
	TabActive: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Background(lipgloss.Color("238")).Bold(true),
	),
	TabInactive: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
	),
	TransferActive: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("33")),
	),
	TransferPaused: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
	),
	TransferDone: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("40")),
	),
	TransferFailed: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
	),
	WindowTitle: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Bold(true),
	),
	WindowBody: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
	),
	WindowFocused: ptr(
		lipgloss.NewStyle().Foreground(lipgloss.Color("255")).Bold(true),
	),
}

// Default exposes the standard style set used across the application.
func Default() *Styles {
	return &defaultStyles
}

func ptr(style lipgloss.Style) *lipgloss.Style {
	return &style
}
