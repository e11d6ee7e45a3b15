package sshd

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/sshdeck/sshdeck/internal/backend"
	"golang.org/x/crypto/ssh"
)

// termSession wraps the remote PTY shell channel for one connection.
type termSession struct {
	session *ssh.Session
	stdin   io.WriteCloser
	mu      sync.Mutex
}

// OpenTerminal starts the remote shell and a reader goroutine that feeds
// the terminal output event channel in arrival order.
func (b *Backend) OpenTerminal(_ context.Context, connectionID string) error {
	c, err := b.lookup(connectionID)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.term != nil {
		return nil
	}

	session, err := c.client.NewSession()
	if err != nil {
		return fmt.Errorf("terminal session: %w", err)
	}
	modes := ssh.TerminalModes{
		ssh.ECHO:          1,
		ssh.TTY_OP_ISPEED: 14400,
		ssh.TTY_OP_OSPEED: 14400,
	}
	if err := session.RequestPty("xterm-256color", 24, 80, modes); err != nil {
		_ = session.Close()
		return fmt.Errorf("request pty: %w", err)
	}
	stdin, err := session.StdinPipe()
	if err != nil {
		_ = session.Close()
		return fmt.Errorf("stdin pipe: %w", err)
	}
	stdout, err := session.StdoutPipe()
	if err != nil {
		_ = session.Close()
		return fmt.Errorf("stdout pipe: %w", err)
	}
	if err := session.Shell(); err != nil {
		_ = session.Close()
		return fmt.Errorf("start shell: %w", err)
	}

	c.term = &termSession{session: session, stdin: stdin}
	go b.pumpOutput(c, stdout)
	return nil
}

func (b *Backend) pumpOutput(c *conn, stdout io.Reader) {
	buf := make([]byte, 4096)
	for {
		n, err := stdout.Read(buf)
		if n > 0 {
			chunk := make([]byte, n)
			copy(chunk, buf[:n])
			b.feeds.TerminalOutput.Publish(backend.TerminalEvent{ConnectionID: c.id, Chunk: chunk})
		}
		if err != nil {
			return
		}
	}
}

// SendTerminalInput writes one input event to the remote stdin. Calls are
// serialized per connection so input ordering is preserved.
func (b *Backend) SendTerminalInput(_ context.Context, connectionID string, data []byte) error {
	c, err := b.lookup(connectionID)
	if err != nil {
		return err
	}
	c.mu.Lock()
	term := c.term
	c.mu.Unlock()
	if term == nil {
		return fmt.Errorf("terminal not open for %s", connectionID)
	}
	term.mu.Lock()
	defer term.mu.Unlock()
	if _, err := term.stdin.Write(data); err != nil {
		return fmt.Errorf("terminal write: %w", err)
	}
	return nil
}

// ResizeTerminal forwards new dimensions to the remote PTY.
func (b *Backend) ResizeTerminal(_ context.Context, connectionID string, cols, rows int) error {
	c, err := b.lookup(connectionID)
	if err != nil {
		return err
	}
	c.mu.Lock()
	term := c.term
	c.mu.Unlock()
	if term == nil {
		return fmt.Errorf("terminal not open for %s", connectionID)
	}
	return term.session.WindowChange(rows, cols)
}

// CloseTerminal tears down the shell channel, leaving the connection and
// its transfers untouched.
func (b *Backend) CloseTerminal(_ context.Context, connectionID string) error {
	c, err := b.lookup(connectionID)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.term == nil {
		return nil
	}
	c.term.close()
	c.term = nil
	return nil
}

func (t *termSession) close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	_ = t.stdin.Close()
	_ = t.session.Close()
}
