package dispatcher

import (
	"context"
	"testing"

	"github.com/sshdeck/sshdeck/internal/backend"
	"github.com/sshdeck/sshdeck/internal/backend/fake"
	"github.com/sshdeck/sshdeck/internal/model"
	"github.com/sshdeck/sshdeck/internal/session"
	"github.com/sshdeck/sshdeck/internal/terminal"
	"github.com/sshdeck/sshdeck/internal/transfer"
)

func newTestDispatcher(t *testing.T) (*Dispatcher, *session.Registry, *transfer.Queue, *terminal.Coordinator, *fake.Backend) {
	t.Helper()
	b := fake.New()
	sessions := session.NewRegistry(b)
	transfers := transfer.NewQueue(b)
	terminals := terminal.NewCoordinator(b)
	return New(sessions, transfers, terminals), sessions, transfers, terminals, b
}

func TestHandleStatusRoutesToSessionRegistry(t *testing.T) {
	d, sessions, _, _, _ := newTestDispatcher(t)
	sess, err := sessions.Connect(context.Background(), model.Profile{ID: "p1", Host: "h", Username: "u"})
	if err != nil {
		t.Fatalf("connect failed: %v", err)
	}

	res := d.HandleStatus(backend.StatusEvent{ConnectionID: sess.ID, Status: model.Reconnecting("timeout")})
	if !res.SessionsUpdated || res.TransfersUpdated || res.TerminalUpdated {
		t.Fatalf("unexpected result flags %#v", res)
	}
	got, _ := sessions.Get(sess.ID)
	if got.Status.Kind != model.StatusReconnecting {
		t.Fatalf("expected status applied, got %s", got.Status)
	}
}

func TestHandleTransferEventsRouteToQueue(t *testing.T) {
	d, _, transfers, _, _ := newTestDispatcher(t)
	items := transfers.Enqueue(context.Background(), []model.TransferRequest{{
		ConnectionID: "c1", SourcePath: "a", Direction: model.DirectionUpload,
	}})

	update := items[0]
	update.Status = model.TransferActive
	update.Progress = 30
	res := d.HandleTransferProgress(backend.TransferEvent{Item: update})
	if !res.TransfersUpdated {
		t.Fatalf("expected transfers flag")
	}
	got, _ := transfers.Get(items[0].ID)
	if got.Progress != 30 {
		t.Fatalf("expected progress applied, got %v", got.Progress)
	}

	update.Status = model.TransferCompleted
	update.Progress = 100
	res = d.HandleTransferDone(backend.TransferEvent{Item: update})
	if !res.TransfersUpdated {
		t.Fatalf("expected transfers flag")
	}
	got, _ = transfers.Get(items[0].ID)
	if got.Status != model.TransferCompleted {
		t.Fatalf("expected completion applied, got %s", got.Status)
	}
}

func TestHandleTerminalOutputNamesConnection(t *testing.T) {
	d, _, _, terminals, _ := newTestDispatcher(t)
	if err := terminals.Open(context.Background(), "c1", "h", "u"); err != nil {
		t.Fatalf("open failed: %v", err)
	}

	res := d.HandleTerminalOutput(backend.TerminalEvent{ConnectionID: "c1", Chunk: []byte("hello")})
	if !res.TerminalUpdated || res.TerminalConnection != "c1" {
		t.Fatalf("unexpected result %#v", res)
	}
	chunks := terminals.Output("c1")
	if len(chunks) != 1 || string(chunks[0]) != "hello" {
		t.Fatalf("expected chunk buffered, got %#v", chunks)
	}
}
