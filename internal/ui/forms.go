package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/sshdeck/sshdeck/internal/model"
	"github.com/sshdeck/sshdeck/internal/session"
)

// field is one labelled text input within a form.
type field struct {
	label string
	input textinput.Model
}

func newField(label, placeholder, initial string) field {
	ti := textinput.New()
	ti.Placeholder = placeholder
	ti.CharLimit = 256
	if initial != "" {
		ti.SetValue(initial)
	}
	return field{label: label, input: ti}
}

type form struct {
	fields []field
	focus  int
	err    string
}

func (f *form) focusField(idx int) {
	for i := range f.fields {
		if i == idx {
			f.fields[i].input.Focus()
		} else {
			f.fields[i].input.Blur()
		}
	}
	f.focus = idx
}

func (f *form) value(idx int) string {
	return strings.TrimSpace(f.fields[idx].input.Value())
}

// update advances focus on tab keys and routes everything else to the
// focused input. It reports submit and cancel.
func (f *form) update(msg tea.Msg) (tea.Cmd, bool, bool) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEsc:
			return nil, false, true
		case tea.KeyEnter:
			return nil, true, false
		case tea.KeyTab, tea.KeyDown:
			f.focusField((f.focus + 1) % len(f.fields))
			return nil, false, false
		case tea.KeyShiftTab, tea.KeyUp:
			f.focusField((f.focus - 1 + len(f.fields)) % len(f.fields))
			return nil, false, false
		}
	}
	var cmd tea.Cmd
	f.fields[f.focus].input, cmd = f.fields[f.focus].input.Update(msg)
	return cmd, false, false
}

func (f *form) view() string {
	lines := make([]string, 0, len(f.fields))
	for _, fld := range f.fields {
		lines = append(lines, fmt.Sprintf("%-10s %s", fld.label, fld.input.View()))
	}
	return strings.Join(lines, "\n")
}

// ProfileForm creates or edits a connection profile.
type ProfileForm struct {
	form
	id string
}

const (
	profileFieldName = iota
	profileFieldHost
	profileFieldPort
	profileFieldUser
	profileFieldAuth
	profileFieldKeyPath
)

// NewProfileForm builds a form prefilled from the given profile. A zero
// profile means create.
func NewProfileForm(p model.Profile) *ProfileForm {
	port := ""
	if p.Port > 0 {
		port = strconv.Itoa(p.Port)
	}
	auth := string(p.AuthType)
	if auth == "" {
		auth = string(model.AuthKey)
	}
	f := &ProfileForm{
		form: form{fields: []field{
			newField("name", "my server", p.Name),
			newField("host", "example.org", p.Host),
			newField("port", "22", port),
			newField("user", "root", p.Username),
			newField("auth", "key or password", auth),
			newField("key path", "~/.ssh/id_ed25519", p.KeyPath),
		}},
		id: p.ID,
	}
	f.focusField(profileFieldName)
	return f
}

func (f *ProfileForm) Title() string {
	if f.id == "" {
		return "New Profile"
	}
	return "Edit Profile"
}

func (f *ProfileForm) View() string  { return f.view() }
func (f *ProfileForm) Error() string { return f.err }

// Profile validates the inputs and assembles the profile value.
func (f *ProfileForm) Profile() (model.Profile, string) {
	name := f.value(profileFieldName)
	host := f.value(profileFieldHost)
	user := f.value(profileFieldUser)
	if name == "" {
		return model.Profile{}, "name is required"
	}
	if host == "" {
		return model.Profile{}, "host is required"
	}
	if user == "" {
		return model.Profile{}, "user is required"
	}
	port := 0
	if raw := f.value(profileFieldPort); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 65535 {
			return model.Profile{}, "port must be 1-65535"
		}
		port = parsed
	}
	auth := model.AuthType(f.value(profileFieldAuth))
	switch auth {
	case model.AuthKey, model.AuthPassword:
	case "":
		auth = model.AuthKey
	default:
		return model.Profile{}, `auth must be "key" or "password"`
	}
	return model.Profile{
		ID:       f.id,
		Name:     name,
		Host:     host,
		Port:     port,
		Username: user,
		AuthType: auth,
		KeyPath:  f.value(profileFieldKeyPath),
	}, ""
}

// TransferForm queues one upload or download for a session.
type TransferForm struct {
	form
	connectionID string
}

const (
	transferFieldSource = iota
	transferFieldDest
	transferFieldDirection
	transferFieldPriority
)

// NewTransferForm builds a transfer form bound to the session, seeding the
// destination from the session's working paths.
func NewTransferForm(sess *session.Session) *TransferForm {
	f := &TransferForm{
		form: form{fields: []field{
			newField("source", "/path/to/file", ""),
			newField("dest", sess.RemotePath, ""),
			newField("direction", "upload or download", string(model.DirectionUpload)),
			newField("priority", "0", ""),
		}},
		connectionID: sess.ID,
	}
	f.focusField(transferFieldSource)
	return f
}

func (f *TransferForm) Title() string { return "Queue Transfer" }
func (f *TransferForm) View() string  { return f.view() }
func (f *TransferForm) Error() string { return f.err }

// Request validates the inputs and assembles the transfer request.
func (f *TransferForm) Request() (model.TransferRequest, string) {
	source := f.value(transferFieldSource)
	dest := f.value(transferFieldDest)
	if source == "" {
		return model.TransferRequest{}, "source is required"
	}
	if dest == "" {
		return model.TransferRequest{}, "dest is required"
	}
	direction := model.Direction(f.value(transferFieldDirection))
	switch direction {
	case model.DirectionUpload, model.DirectionDownload:
	default:
		return model.TransferRequest{}, `direction must be "upload" or "download"`
	}
	priority := 0
	if raw := f.value(transferFieldPriority); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			return model.TransferRequest{}, "priority must be a number"
		}
		priority = parsed
	}
	return model.TransferRequest{
		ConnectionID:    f.connectionID,
		SourcePath:      source,
		DestinationPath: dest,
		Direction:       direction,
		Priority:        priority,
	}, ""
}

func (m *Model) startProfileForm(p model.Profile) {
	m.profileForm = NewProfileForm(p)
	m.mode = ModeProfileForm
}

func (m *Model) startTransferForm(sess *session.Session) {
	m.transferForm = NewTransferForm(sess)
	m.mode = ModeTransferForm
}

func (m *Model) handleProfileForm(msg tea.Msg) (bool, tea.Cmd) {
	if m.profileForm == nil {
		return false, nil
	}
	cmd, done, cancel := m.profileForm.update(msg)
	if cancel {
		m.profileForm = nil
		m.mode = ModePicker
		return true, cmd
	}
	if done {
		p, errText := m.profileForm.Profile()
		if errText != "" {
			m.profileForm.err = errText
			return true, nil
		}
		saved, err := m.profiles.Save(p)
		if err != nil {
			m.profileForm.err = err.Error()
			return true, nil
		}
		m.profileForm = nil
		m.mode = ModePicker
		m.setInfo("saved profile " + saved.Name)
		m.syncSessionViews()
		return true, nil
	}
	return true, cmd
}

func (m *Model) handleTransferForm(msg tea.Msg) (bool, tea.Cmd) {
	if m.transferForm == nil {
		return false, nil
	}
	cmd, done, cancel := m.transferForm.update(msg)
	if cancel {
		m.transferForm = nil
		m.mode = ModeWorkspace
		return true, cmd
	}
	if done {
		req, errText := m.transferForm.Request()
		if errText != "" {
			m.transferForm.err = errText
			return true, nil
		}
		m.transferForm = nil
		m.mode = ModeWorkspace
		return true, enqueueCmd(m.transfers, []model.TransferRequest{req})
	}
	return true, cmd
}
