// Package session implements the top-level connection registry: lifecycle
// commands, status projection, and best-effort path persistence. The
// registry is a mutex-guarded state object with a closed command set; the
// backend is only ever called outside the lock, and every asynchronous
// result re-enters through one of the command methods below.
package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/sshdeck/sshdeck/internal/backend"
	"github.com/sshdeck/sshdeck/internal/logging"
	"github.com/sshdeck/sshdeck/internal/logging/events"
	"github.com/sshdeck/sshdeck/internal/model"
)

// Session is one live connection. It exists only between a successful
// connect and an explicit disconnect; transient failures keep it registered
// with a reconnecting or error status.
type Session struct {
	ID         string
	Profile    model.Profile
	Status     model.ConnectionStatus
	RemotePath string
	LocalPath  string
}

// Registry tracks every live session and the current focus.
type Registry struct {
	mu       sync.Mutex
	backend  backend.Backend
	sessions map[string]*Session
	order    []string // connection ids in creation order, drives focus fallback
	current  string
	pending  map[string]struct{} // profile ids with a connect in flight
}

// NewRegistry constructs an empty registry over the given backend.
func NewRegistry(b backend.Backend) *Registry {
	return &Registry{
		backend:  b,
		sessions: make(map[string]*Session),
		pending:  make(map[string]struct{}),
	}
}

// Connect establishes a session for the profile. If a session for the same
// profile already exists, focus switches to it and no second connection is
// made; if a connect for the profile is already in flight, the call returns
// without dialing again. A backend failure is the command's result, not a
// fault: no session is created and the transient flag clears.
func (r *Registry) Connect(ctx context.Context, p model.Profile) (*Session, error) {
	r.mu.Lock()
	if existing := r.findByProfileLocked(p.ID); existing != nil {
		r.current = existing.ID
		r.mu.Unlock()
		events.Session.ConnectDuplicate(p.ID, existing.ID)
		return r.Get(existing.ID)
	}
	if _, inFlight := r.pending[p.ID]; inFlight {
		r.mu.Unlock()
		events.Session.ConnectPending(p.ID)
		return nil, nil
	}
	r.pending[p.ID] = struct{}{}
	r.mu.Unlock()

	events.Session.Connect(p.ID, p.Host)
	res, err := r.backend.Connect(ctx, p)

	var paths backend.PathState
	if err == nil {
		loaded, perr := r.backend.LoadPaths(ctx, p.ID)
		if perr != nil {
			logging.Error(fmt.Errorf("load paths for %s: %w", p.ID, perr))
		} else {
			paths = loaded
		}
	}

	r.mu.Lock()
	delete(r.pending, p.ID)
	if err != nil {
		r.mu.Unlock()
		events.Session.ConnectFailed(p.ID, err)
		return nil, fmt.Errorf("connect %s: %w", p.Host, err)
	}
	// The backend may have raced us to the same profile via a concurrent
	// duplicate connect; keep the first registered session.
	if existing := r.findByProfileLocked(p.ID); existing != nil {
		r.current = existing.ID
		r.mu.Unlock()
		return r.Get(existing.ID)
	}
	sess := &Session{
		ID:         res.ConnectionID,
		Profile:    p,
		Status:     res.Status,
		RemotePath: "/",
	}
	if paths.Remote != "" {
		sess.RemotePath = paths.Remote
	}
	sess.LocalPath = paths.Local
	r.sessions[sess.ID] = sess
	r.order = append(r.order, sess.ID)
	r.current = sess.ID
	snapshot := *sess
	r.mu.Unlock()

	events.Session.Connected(p.ID, snapshot.ID)
	return &snapshot, nil
}

// Disconnect issues the backend disconnect and removes the session from the
// registry entirely. The removal is optimistic: a backend error is logged
// but never resurrects the session. Focus falls to the first remaining
// session in creation order, or to none.
func (r *Registry) Disconnect(ctx context.Context, connectionID string) {
	r.mu.Lock()
	if _, ok := r.sessions[connectionID]; !ok {
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()

	events.Session.Disconnect(connectionID)
	if err := r.backend.Disconnect(ctx, connectionID); err != nil {
		logging.Error(fmt.Errorf("disconnect %s: %w", connectionID, err))
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, connectionID)
	kept := r.order[:0]
	for _, sid := range r.order {
		if sid != connectionID {
			kept = append(kept, sid)
		}
	}
	r.order = kept
	if r.current == connectionID {
		r.current = ""
		if len(r.order) > 0 {
			r.current = r.order[0]
		}
	}
}

// SetCurrent switches focus. Unknown ids are a defensive no-op so the
// focused id can never dangle.
func (r *Registry) SetCurrent(connectionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[connectionID]; !ok {
		return
	}
	r.current = connectionID
	events.Session.Focus(connectionID)
}

// UpdateStatus applies a backend status event to the matching session. This
// is the only path by which pushed status reaches the model; events for
// unknown connections are dropped.
func (r *Registry) UpdateStatus(connectionID string, status model.ConnectionStatus) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[connectionID]
	if !ok {
		return
	}
	sess.Status = status
	events.Session.Status(connectionID, status.String())
}

// UpdatePath updates a working path in memory and requests persistence in
// the background. Persistence failure is logged and never rolled back into
// the in-memory state.
func (r *Registry) UpdatePath(ctx context.Context, connectionID string, kind model.PathKind, path string) {
	r.mu.Lock()
	sess, ok := r.sessions[connectionID]
	if !ok {
		r.mu.Unlock()
		return
	}
	switch kind {
	case model.PathRemote:
		sess.RemotePath = path
	case model.PathLocal:
		sess.LocalPath = path
	default:
		r.mu.Unlock()
		return
	}
	profileID := sess.Profile.ID
	r.mu.Unlock()

	events.Session.PathUpdate(connectionID, string(kind), path)
	go func() {
		if err := r.backend.PersistPath(ctx, profileID, kind, path); err != nil {
			events.Session.PersistFailed(profileID, err)
			logging.Error(fmt.Errorf("persist %s path for %s: %w", kind, profileID, err))
		}
	}()
}

// Get returns a copy of the session.
func (r *Registry) Get(connectionID string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[connectionID]
	if !ok {
		return nil, fmt.Errorf("unknown session %s", connectionID)
	}
	snapshot := *sess
	return &snapshot, nil
}

// Current returns the focused session, if any.
func (r *Registry) Current() (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[r.current]
	if !ok {
		return nil, false
	}
	snapshot := *sess
	return &snapshot, true
}

// CurrentID returns the focused connection id, empty when none.
func (r *Registry) CurrentID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Sessions returns copies of all sessions in creation order.
func (r *Registry) Sessions() []Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Session, 0, len(r.order))
	for _, sid := range r.order {
		if sess, ok := r.sessions[sid]; ok {
			out = append(out, *sess)
		}
	}
	return out
}

// Connecting reports whether a connect for the profile is in flight; the UI
// renders this as the transient loading flag.
func (r *Registry) Connecting(profileID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.pending[profileID]
	return ok
}

func (r *Registry) findByProfileLocked(profileID string) *Session {
	for _, sid := range r.order {
		if sess, ok := r.sessions[sid]; ok && sess.Profile.ID == profileID {
			return sess
		}
	}
	return nil
}
