// Package sshd implements the backend capability surface over real SSH
// connections: a shell channel per connection for the terminal, an SFTP
// subsystem for transfers, and a keepalive probe that feeds the status
// event channel. Retry and timeout policy lives here, not in the
// orchestration layer above.
package sshd

import (
	"context"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	"github.com/sshdeck/sshdeck/internal/backend"
	"github.com/sshdeck/sshdeck/internal/id"
	"github.com/sshdeck/sshdeck/internal/model"
	"github.com/sshdeck/sshdeck/internal/profile"
	"golang.org/x/crypto/ssh"
)

const (
	dialTimeout       = 10 * time.Second
	keepaliveInterval = 15 * time.Second
	redialAttempts    = 3
	transferBacklog   = 64
)

// PasswordFn resolves a profile's password credential by its password id.
type PasswordFn func(passwordID string) (string, error)

// Backend is the SSH implementation of backend.Backend.
type Backend struct {
	feeds     *backend.Feeds
	store     *profile.Store
	passwords PasswordFn

	mu    sync.Mutex
	conns map[string]*conn
	tasks map[string]*task
}

// New constructs a backend persisting paths through the given store. When
// passwords is nil, credentials resolve from the SSHDECK_PASSWORD_<id>
// environment.
func New(store *profile.Store, passwords PasswordFn) *Backend {
	if passwords == nil {
		passwords = envPassword
	}
	return &Backend{
		feeds:     backend.NewFeeds(),
		store:     store,
		passwords: passwords,
		conns:     make(map[string]*conn),
		tasks:     make(map[string]*task),
	}
}

func envPassword(passwordID string) (string, error) {
	if v := os.Getenv("SSHDECK_PASSWORD_" + passwordID); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("no password configured for credential %q", passwordID)
}

// Events exposes the push feeds.
func (b *Backend) Events() *backend.Feeds {
	return b.feeds
}

type conn struct {
	id      string
	profile model.Profile
	ctx     context.Context
	cancel  context.CancelFunc

	mu     sync.Mutex
	client *ssh.Client
	term   *termSession
	queue  chan *task
}

// Connect dials the profile's host and registers a live connection. The
// dial honours context cancellation; auth failures surface as the call's
// error, never as a panic or a pushed event.
func (b *Backend) Connect(ctx context.Context, p model.Profile) (backend.ConnectResult, error) {
	client, err := b.dial(ctx, p)
	if err != nil {
		return backend.ConnectResult{}, err
	}

	connCtx, cancel := context.WithCancel(context.Background())
	c := &conn{
		id:      id.New(),
		profile: p,
		ctx:     connCtx,
		cancel:  cancel,
		client:  client,
		queue:   make(chan *task, transferBacklog),
	}
	b.mu.Lock()
	b.conns[c.id] = c
	b.mu.Unlock()

	go b.keepalive(c)
	go b.runTransfers(c)

	return backend.ConnectResult{
		ConnectionID: c.id,
		Status:       model.Connected(p.Host, p.Username, 0),
	}, nil
}

func (b *Backend) dial(ctx context.Context, p model.Profile) (*ssh.Client, error) {
	auth, err := b.authMethods(p)
	if err != nil {
		return nil, fmt.Errorf("ssh auth for %s: %w", p.Host, err)
	}
	host, port := p.Address()
	addr := net.JoinHostPort(host, fmt.Sprintf("%d", port))
	cfg := &ssh.ClientConfig{
		User:            p.Username,
		Auth:            auth,
		HostKeyCallback: ssh.InsecureIgnoreHostKey(), //nolint:gosec // host pinning is a profile-level concern, not implemented yet
		Timeout:         dialTimeout,
	}

	type dialResult struct {
		client *ssh.Client
		err    error
	}
	ch := make(chan dialResult, 1)
	go func() {
		cl, err := ssh.Dial("tcp", addr, cfg)
		ch <- dialResult{cl, err}
	}()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.err != nil {
			return nil, fmt.Errorf("dial %s: %w", addr, r.err)
		}
		return r.client, nil
	}
}

func (b *Backend) authMethods(p model.Profile) ([]ssh.AuthMethod, error) {
	switch p.AuthType {
	case model.AuthKey:
		raw, err := os.ReadFile(p.KeyPath)
		if err != nil {
			return nil, fmt.Errorf("read key %s: %w", p.KeyPath, err)
		}
		signer, err := ssh.ParsePrivateKey(raw)
		if err != nil {
			return nil, fmt.Errorf("parse key %s: %w", p.KeyPath, err)
		}
		return []ssh.AuthMethod{ssh.PublicKeys(signer)}, nil
	case model.AuthPassword:
		secret, err := b.passwords(p.PasswordID)
		if err != nil {
			return nil, err
		}
		return []ssh.AuthMethod{ssh.Password(secret)}, nil
	default:
		return nil, fmt.Errorf("unsupported auth type %q", p.AuthType)
	}
}

// keepalive probes the connection and publishes status with the measured
// round-trip latency. On failure it redials a bounded number of times,
// publishing reconnecting along the way and a final error status when the
// connection cannot be recovered.
func (b *Backend) keepalive(c *conn) {
	ticker := time.NewTicker(keepaliveInterval)
	defer ticker.Stop()
	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
		}
		c.mu.Lock()
		client := c.client
		c.mu.Unlock()
		start := time.Now()
		_, _, err := client.SendRequest("keepalive@openssh.com", true, nil)
		if err == nil {
			b.feeds.Status.Publish(backend.StatusEvent{
				ConnectionID: c.id,
				Status:       model.Connected(c.profile.Host, c.profile.Username, time.Since(start)),
			})
			continue
		}
		if !b.redial(c, err) {
			return
		}
	}
}

func (b *Backend) redial(c *conn, cause error) bool {
	for attempt := 1; attempt <= redialAttempts; attempt++ {
		b.feeds.Status.Publish(backend.StatusEvent{
			ConnectionID: c.id,
			Status:       model.Reconnecting(cause.Error()),
		})
		select {
		case <-c.ctx.Done():
			return false
		case <-time.After(time.Duration(attempt) * time.Second):
		}
		client, err := b.dial(c.ctx, c.profile)
		if err != nil {
			cause = err
			continue
		}
		c.mu.Lock()
		if c.client != nil {
			_ = c.client.Close()
		}
		c.client = client
		c.term = nil // the shell channel died with the old transport
		c.mu.Unlock()
		b.feeds.Status.Publish(backend.StatusEvent{
			ConnectionID: c.id,
			Status:       model.Connected(c.profile.Host, c.profile.Username, 0),
		})
		return true
	}
	b.feeds.Status.Publish(backend.StatusEvent{
		ConnectionID: c.id,
		Status:       model.StatusFailed(cause.Error()),
	})
	return false
}

// Disconnect tears the connection down and stops its workers.
func (b *Backend) Disconnect(_ context.Context, connectionID string) error {
	b.mu.Lock()
	c, ok := b.conns[connectionID]
	delete(b.conns, connectionID)
	b.mu.Unlock()
	if !ok {
		return nil
	}
	c.cancel()
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.term != nil {
		c.term.close()
		c.term = nil
	}
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// PersistPath writes a working path through to the profile store.
func (b *Backend) PersistPath(_ context.Context, profileID string, kind model.PathKind, path string) error {
	return b.store.SavePath(profileID, kind, path)
}

// LoadPaths reads the persisted working paths for a profile.
func (b *Backend) LoadPaths(_ context.Context, profileID string) (backend.PathState, error) {
	entry := b.store.Paths(profileID)
	return backend.PathState{Local: entry.Local, Remote: entry.Remote}, nil
}

func (b *Backend) lookup(connectionID string) (*conn, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	c, ok := b.conns[connectionID]
	if !ok {
		return nil, fmt.Errorf("unknown connection %s", connectionID)
	}
	return c, nil
}

var _ backend.Backend = (*Backend)(nil)
