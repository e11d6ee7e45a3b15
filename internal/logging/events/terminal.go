package events

import "github.com/sshdeck/sshdeck/internal/logging"

type TerminalTracer struct{}

var Terminal = TerminalTracer{}

func (TerminalTracer) Open(connectionID string) {
	logging.Trace("terminal.open", map[string]interface{}{"connection": connectionID})
}

func (TerminalTracer) OpenSuppressed(connectionID string) {
	logging.Trace("terminal.open.suppressed", map[string]interface{}{"connection": connectionID})
}

func (TerminalTracer) OpenFailed(connectionID string, err error) {
	logging.Trace("terminal.open.failed", map[string]interface{}{"connection": connectionID, "error": err.Error()})
}

func (TerminalTracer) InputRefused(connectionID string) {
	logging.Trace("terminal.input.refused", map[string]interface{}{"connection": connectionID})
}

func (TerminalTracer) ChannelError(connectionID string, err error) {
	logging.Trace("terminal.channel.error", map[string]interface{}{"connection": connectionID, "error": err.Error()})
}

func (TerminalTracer) Resize(connectionID string, cols, rows int) {
	logging.Trace("terminal.resize", map[string]interface{}{"connection": connectionID, "cols": cols, "rows": rows})
}

func (TerminalTracer) Close(connectionID string) {
	logging.Trace("terminal.close", map[string]interface{}{"connection": connectionID})
}
