// Package fake provides an in-memory backend for tests and demo mode. By
// default it records calls and succeeds instantly; Simulate mode adds a
// goroutine per transfer that emits progress and completion events.
package fake

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sshdeck/sshdeck/internal/backend"
	"github.com/sshdeck/sshdeck/internal/id"
	"github.com/sshdeck/sshdeck/internal/model"
)

// Backend implements backend.Backend entirely in memory.
type Backend struct {
	feeds *backend.Feeds

	// Simulate drives transfers to completion on a timer. Leave false in
	// tests that assert on intermediate states.
	Simulate bool

	// ConnectErr, when set, fails every Connect call.
	ConnectErr error
	// TerminalErr, when set, fails OpenTerminal and SendTerminalInput.
	TerminalErr error
	// EnqueueErr, when set, fails EnqueueTransfers.
	EnqueueErr error

	mu        sync.Mutex
	calls     []string
	paths     map[string]backend.PathState
	cancelled map[string]struct{}
}

// New constructs an idle fake backend.
func New() *Backend {
	return &Backend{
		feeds:     backend.NewFeeds(),
		paths:     make(map[string]backend.PathState),
		cancelled: make(map[string]struct{}),
	}
}

// Events exposes the push feeds; tests publish directly to them.
func (b *Backend) Events() *backend.Feeds {
	return b.feeds
}

// Calls returns the recorded call log.
func (b *Backend) Calls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	dup := make([]string, len(b.calls))
	copy(dup, b.calls)
	return dup
}

func (b *Backend) record(format string, args ...interface{}) {
	b.mu.Lock()
	b.calls = append(b.calls, fmt.Sprintf(format, args...))
	b.mu.Unlock()
}

func (b *Backend) Connect(_ context.Context, p model.Profile) (backend.ConnectResult, error) {
	b.record("connect %s", p.ID)
	if b.ConnectErr != nil {
		return backend.ConnectResult{}, b.ConnectErr
	}
	connID := id.New()
	return backend.ConnectResult{
		ConnectionID: connID,
		Status:       model.Connected(p.Host, p.Username, 12*time.Millisecond),
	}, nil
}

func (b *Backend) Disconnect(_ context.Context, connectionID string) error {
	b.record("disconnect %s", connectionID)
	return nil
}

func (b *Backend) EnqueueTransfers(_ context.Context, items []model.TransferItem) error {
	b.record("enqueue %d", len(items))
	if b.EnqueueErr != nil {
		return b.EnqueueErr
	}
	if b.Simulate {
		for _, item := range items {
			go b.runTransfer(item)
		}
	}
	return nil
}

func (b *Backend) PauseTransfer(_ context.Context, transferID string) error {
	b.record("pause %s", transferID)
	return nil
}

func (b *Backend) ResumeTransfer(_ context.Context, transferID string) error {
	b.record("resume %s", transferID)
	return nil
}

func (b *Backend) CancelTransfer(_ context.Context, transferID string) error {
	b.record("cancel %s", transferID)
	b.mu.Lock()
	b.cancelled[transferID] = struct{}{}
	b.mu.Unlock()
	return nil
}

func (b *Backend) OpenTerminal(_ context.Context, connectionID string) error {
	b.record("terminal.open %s", connectionID)
	return b.TerminalErr
}

func (b *Backend) CloseTerminal(_ context.Context, connectionID string) error {
	b.record("terminal.close %s", connectionID)
	return nil
}

func (b *Backend) SendTerminalInput(_ context.Context, connectionID string, data []byte) error {
	b.record("terminal.input %s %q", connectionID, string(data))
	if b.TerminalErr != nil {
		return b.TerminalErr
	}
	if b.Simulate {
		// Echo the input back, the way a remote shell would.
		b.feeds.TerminalOutput.Publish(backend.TerminalEvent{ConnectionID: connectionID, Chunk: append([]byte(nil), data...)})
	}
	return nil
}

func (b *Backend) ResizeTerminal(_ context.Context, connectionID string, cols, rows int) error {
	b.record("terminal.resize %s %dx%d", connectionID, cols, rows)
	return nil
}

func (b *Backend) PersistPath(_ context.Context, profileID string, kind model.PathKind, path string) error {
	b.record("persist %s %s", profileID, kind)
	b.mu.Lock()
	defer b.mu.Unlock()
	entry := b.paths[profileID]
	switch kind {
	case model.PathLocal:
		entry.Local = path
	case model.PathRemote:
		entry.Remote = path
	}
	b.paths[profileID] = entry
	return nil
}

func (b *Backend) LoadPaths(_ context.Context, profileID string) (backend.PathState, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.paths[profileID], nil
}

// SetPaths seeds the persisted paths for a profile.
func (b *Backend) SetPaths(profileID string, state backend.PathState) {
	b.mu.Lock()
	b.paths[profileID] = state
	b.mu.Unlock()
}

func (b *Backend) runTransfer(item model.TransferItem) {
	total := item.Size
	if total <= 0 {
		total = 4 << 20
	}
	for step := 1; step <= 4; step++ {
		time.Sleep(120 * time.Millisecond)
		b.mu.Lock()
		_, gone := b.cancelled[item.ID]
		b.mu.Unlock()
		if gone {
			return
		}
		snapshot := item
		snapshot.Status = model.TransferActive
		snapshot.Progress = float64(step) * 25
		snapshot.Speed = total / 4
		snapshot.ETA = time.Duration(4-step) * 120 * time.Millisecond
		if step < 4 {
			b.feeds.TransferProgress.Publish(backend.TransferEvent{Item: snapshot})
			continue
		}
		now := time.Now()
		snapshot.Status = model.TransferCompleted
		snapshot.CompletedAt = &now
		b.feeds.TransferDone.Publish(backend.TransferEvent{Item: snapshot})
	}
}

var _ backend.Backend = (*Backend)(nil)
