// Package backend declares the asynchronous capability surface the
// orchestration layer consumes. Implementations live in the sshd and fake
// subpackages; the registries only ever see this interface plus the typed
// event feeds, so wire-level concerns never leak into the state machines.
package backend

import (
	"context"

	"github.com/sshdeck/sshdeck/internal/model"
)

// ConnectResult is the successful outcome of a Connect call.
type ConnectResult struct {
	ConnectionID string
	Status       model.ConnectionStatus
}

// PathState carries the persisted working paths for a profile. Empty fields
// mean no value was persisted.
type PathState struct {
	Local  string
	Remote string
}

// Backend is the full capability surface. All calls block until the backend
// settles them and honour context cancellation; none of them may be invoked
// while holding a registry lock.
type Backend interface {
	Connect(ctx context.Context, profile model.Profile) (ConnectResult, error)
	Disconnect(ctx context.Context, connectionID string) error

	EnqueueTransfers(ctx context.Context, items []model.TransferItem) error
	PauseTransfer(ctx context.Context, id string) error
	ResumeTransfer(ctx context.Context, id string) error
	CancelTransfer(ctx context.Context, id string) error

	OpenTerminal(ctx context.Context, connectionID string) error
	CloseTerminal(ctx context.Context, connectionID string) error
	SendTerminalInput(ctx context.Context, connectionID string, data []byte) error
	ResizeTerminal(ctx context.Context, connectionID string, cols, rows int) error

	PersistPath(ctx context.Context, profileID string, kind model.PathKind, path string) error
	LoadPaths(ctx context.Context, profileID string) (PathState, error)

	Events() *Feeds
}

// StatusEvent reports a connection status change pushed by the backend.
type StatusEvent struct {
	ConnectionID string
	Status       model.ConnectionStatus
}

// TransferEvent carries the backend's authoritative view of one transfer
// item. The queue replaces its copy wholesale (last-write-wins by id).
type TransferEvent struct {
	Item model.TransferItem
}

// TerminalEvent is one chunk of terminal output in arrival order.
type TerminalEvent struct {
	ConnectionID string
	Chunk        []byte
}

// Feeds groups one typed feed per push capability. Subscriptions must be
// closed on teardown; a feed with no subscribers drops events.
type Feeds struct {
	Status           *Feed[StatusEvent]
	TransferProgress *Feed[TransferEvent]
	TransferDone     *Feed[TransferEvent]
	TerminalOutput   *Feed[TerminalEvent]
}

// NewFeeds constructs an empty feed set.
func NewFeeds() *Feeds {
	return &Feeds{
		Status:           NewFeed[StatusEvent](),
		TransferProgress: NewFeed[TransferEvent](),
		TransferDone:     NewFeed[TransferEvent](),
		TerminalOutput:   NewFeed[TerminalEvent](),
	}
}
