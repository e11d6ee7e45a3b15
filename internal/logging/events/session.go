package events

import "github.com/sshdeck/sshdeck/internal/logging"

type SessionTracer struct{}

var Session = SessionTracer{}

func (SessionTracer) Connect(profileID, host string) {
	logging.Trace("session.connect", map[string]interface{}{"profile": profileID, "host": host})
}

func (SessionTracer) ConnectDuplicate(profileID, connectionID string) {
	logging.Trace("session.connect.duplicate", map[string]interface{}{"profile": profileID, "connection": connectionID})
}

func (SessionTracer) ConnectPending(profileID string) {
	logging.Trace("session.connect.pending", map[string]interface{}{"profile": profileID})
}

func (SessionTracer) Connected(profileID, connectionID string) {
	logging.Trace("session.connected", map[string]interface{}{"profile": profileID, "connection": connectionID})
}

func (SessionTracer) ConnectFailed(profileID string, err error) {
	logging.Trace("session.connect.failed", map[string]interface{}{"profile": profileID, "error": err.Error()})
}

func (SessionTracer) Disconnect(connectionID string) {
	logging.Trace("session.disconnect", map[string]interface{}{"connection": connectionID})
}

func (SessionTracer) Focus(connectionID string) {
	logging.Trace("session.focus", map[string]interface{}{"connection": connectionID})
}

func (SessionTracer) Status(connectionID, status string) {
	logging.Trace("session.status", map[string]interface{}{"connection": connectionID, "status": status})
}

func (SessionTracer) PathUpdate(connectionID, kind, path string) {
	logging.Trace("session.path", map[string]interface{}{"connection": connectionID, "kind": kind, "path": path})
}

func (SessionTracer) PersistFailed(profileID string, err error) {
	logging.Trace("session.path.persist.failed", map[string]interface{}{"profile": profileID, "error": err.Error()})
}
