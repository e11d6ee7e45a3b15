package events

import "github.com/sshdeck/sshdeck/internal/logging"

type TransferTracer struct{}

var Transfer = TransferTracer{}

func (TransferTracer) Enqueue(count int, connectionID string) {
	logging.Trace("transfer.enqueue", map[string]interface{}{"count": count, "connection": connectionID})
}

func (TransferTracer) Pause(id string) {
	logging.Trace("transfer.pause", map[string]interface{}{"id": id})
}

func (TransferTracer) Resume(id string) {
	logging.Trace("transfer.resume", map[string]interface{}{"id": id})
}

func (TransferTracer) Cancel(id string) {
	logging.Trace("transfer.cancel", map[string]interface{}{"id": id})
}

func (TransferTracer) Dropped(id, reason string) {
	logging.Trace("transfer.event.dropped", map[string]interface{}{"id": id, "reason": reason})
}

func (TransferTracer) Completed(id, status string) {
	logging.Trace("transfer.completed", map[string]interface{}{"id": id, "status": status})
}
