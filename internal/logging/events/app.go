// Package events groups trace emitters by domain so call sites stay terse
// and event names stay consistent.
package events

import "github.com/sshdeck/sshdeck/internal/logging"

type AppTracer struct{}

var App = AppTracer{}

func (AppTracer) Start(payload map[string]interface{}) {
	logging.Trace("app.start", payload)
}

func (AppTracer) Exit(reason string) {
	logging.Trace("app.exit", map[string]interface{}{"reason": reason})
}

func (AppTracer) BackendReady(kind string) {
	logging.Trace("app.backend.ready", map[string]interface{}{"kind": kind})
}
