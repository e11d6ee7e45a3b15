// Package terminal coordinates one multiplexed shell session per
// connection: idempotent open, ordered input, an append-only output buffer,
// and a fire-and-forget resize side channel.
package terminal

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sshdeck/sshdeck/internal/backend"
	"github.com/sshdeck/sshdeck/internal/logging"
	"github.com/sshdeck/sshdeck/internal/logging/events"
)

// ErrNotConnected is returned when input is sent to a terminal that is not
// open, or that entered an error state and has not been re-opened.
var ErrNotConnected = errors.New("terminal not connected")

// Session is the per-connection terminal state. The output buffer grows
// without bound for the lifetime of the session.
type Session struct {
	ConnectionID string
	Host         string
	Username     string
	Connected    bool
	Failed       bool
	buffer       [][]byte
}

// Coordinator owns every terminal session, keyed by connection id.
type Coordinator struct {
	mu       sync.Mutex
	backend  backend.Backend
	sessions map[string]*Session
	opening  map[string]struct{}
}

// NewCoordinator constructs an empty coordinator over the given backend.
func NewCoordinator(b backend.Backend) *Coordinator {
	return &Coordinator{
		backend:  b,
		sessions: make(map[string]*Session),
		opening:  make(map[string]struct{}),
	}
}

// Open starts the terminal for a connection. It is idempotent: a second
// call while one is pending or open is suppressed. Open also clears a prior
// error state, which is the only recovery path after a channel failure.
func (c *Coordinator) Open(ctx context.Context, connectionID, host, username string) error {
	c.mu.Lock()
	if _, pending := c.opening[connectionID]; pending {
		c.mu.Unlock()
		events.Terminal.OpenSuppressed(connectionID)
		return nil
	}
	if sess, ok := c.sessions[connectionID]; ok && sess.Connected && !sess.Failed {
		c.mu.Unlock()
		events.Terminal.OpenSuppressed(connectionID)
		return nil
	}
	c.opening[connectionID] = struct{}{}
	c.mu.Unlock()

	events.Terminal.Open(connectionID)
	err := c.backend.OpenTerminal(ctx, connectionID)

	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.opening, connectionID)
	if err != nil {
		events.Terminal.OpenFailed(connectionID, err)
		return fmt.Errorf("open terminal %s: %w", connectionID, err)
	}
	sess, ok := c.sessions[connectionID]
	if !ok {
		sess = &Session{ConnectionID: connectionID}
		c.sessions[connectionID] = sess
	}
	sess.Host = host
	sess.Username = username
	sess.Connected = true
	sess.Failed = false
	return nil
}

// SendInput forwards one input event to the backend, one call per event so
// ordering is preserved and nothing is batched. Input is refused while the
// terminal is closed or failed; a backend error moves the session into the
// failed state until the next Open.
func (c *Coordinator) SendInput(ctx context.Context, connectionID string, data []byte) error {
	c.mu.Lock()
	sess, ok := c.sessions[connectionID]
	if !ok || !sess.Connected || sess.Failed {
		c.mu.Unlock()
		events.Terminal.InputRefused(connectionID)
		return ErrNotConnected
	}
	c.mu.Unlock()

	if err := c.backend.SendTerminalInput(ctx, connectionID, data); err != nil {
		c.mu.Lock()
		if sess, ok := c.sessions[connectionID]; ok {
			sess.Failed = true
		}
		c.mu.Unlock()
		events.Terminal.ChannelError(connectionID, err)
		return fmt.Errorf("terminal input %s: %w", connectionID, err)
	}
	return nil
}

// HandleOutput appends a pushed chunk to the connection's buffer in arrival
// order. Chunks for unknown connections are dropped.
func (c *Coordinator) HandleOutput(connectionID string, chunk []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sess, ok := c.sessions[connectionID]
	if !ok {
		return
	}
	dup := make([]byte, len(chunk))
	copy(dup, chunk)
	sess.buffer = append(sess.buffer, dup)
}

// Resize notifies the backend of new dimensions. Fire-and-forget: no
// acknowledgement is awaited and failures are only logged.
func (c *Coordinator) Resize(ctx context.Context, connectionID string, cols, rows int) {
	events.Terminal.Resize(connectionID, cols, rows)
	go func() {
		if err := c.backend.ResizeTerminal(ctx, connectionID, cols, rows); err != nil {
			logging.Error(fmt.Errorf("resize terminal %s: %w", connectionID, err))
		}
	}()
}

// Close clears the session's buffer and connected flag and closes the
// backend channel. Other connections' terminals are unaffected.
func (c *Coordinator) Close(ctx context.Context, connectionID string) {
	c.mu.Lock()
	sess, ok := c.sessions[connectionID]
	if ok {
		sess.buffer = nil
		sess.Connected = false
		sess.Failed = false
	}
	c.mu.Unlock()
	if !ok {
		return
	}
	events.Terminal.Close(connectionID)
	if err := c.backend.CloseTerminal(ctx, connectionID); err != nil {
		logging.Error(fmt.Errorf("close terminal %s: %w", connectionID, err))
	}
}

// Get returns a copy of the session without its buffer.
func (c *Coordinator) Get(connectionID string) (Session, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sess, ok := c.sessions[connectionID]
	if !ok {
		return Session{}, false
	}
	snapshot := *sess
	snapshot.buffer = nil
	return snapshot, true
}

// Output returns the buffered output chunks in arrival order.
func (c *Coordinator) Output(connectionID string) [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	sess, ok := c.sessions[connectionID]
	if !ok {
		return nil
	}
	out := make([][]byte, len(sess.buffer))
	for i, chunk := range sess.buffer {
		dup := make([]byte, len(chunk))
		copy(dup, chunk)
		out[i] = dup
	}
	return out
}
