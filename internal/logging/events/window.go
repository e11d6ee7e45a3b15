package events

import "github.com/sshdeck/sshdeck/internal/logging"

type WindowTracer struct{}

var Window = WindowTracer{}

func (WindowTracer) Register(id string, zIndex int) {
	logging.Trace("window.register", map[string]interface{}{"id": id, "z": zIndex})
}

func (WindowTracer) Focus(id string, zIndex int) {
	logging.Trace("window.focus", map[string]interface{}{"id": id, "z": zIndex})
}

func (WindowTracer) State(id, state string) {
	logging.Trace("window.state", map[string]interface{}{"id": id, "state": state})
}

func (WindowTracer) Close(id string) {
	logging.Trace("window.close", map[string]interface{}{"id": id})
}

type TabTracer struct{}

var Tab = TabTracer{}

func (TabTracer) Register(templateID string) {
	logging.Trace("tab.template.register", map[string]interface{}{"template": templateID})
}

func (TabTracer) Instantiate(templateID, tabID string) {
	logging.Trace("tab.instantiate", map[string]interface{}{"template": templateID, "tab": tabID})
}

func (TabTracer) Close(sessionID, tabID, nextActive string) {
	logging.Trace("tab.close", map[string]interface{}{"session": sessionID, "tab": tabID, "next": nextActive})
}
