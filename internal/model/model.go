// Package model defines the shared data types used across the application.
//
// These types are the common contracts between packages: internal/profile
// produces Profile values, internal/session projects ConnectionStatus,
// internal/transfer owns the TransferItem state machine, and the backend
// implementations under internal/backend consume and emit all of them.
// Keeping them in a dedicated package prevents circular dependencies between
// the registries and the backend capability surface.
package model

import "time"

// AuthType selects the credential kind used to authenticate a connection.
type AuthType string

const (
	AuthPassword AuthType = "password"
	AuthKey      AuthType = "key"
)

// Profile is a user-managed connection identity. Its ID is the immutable key
// for session lookup and for path persistence.
type Profile struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Host       string   `json:"host"`
	Port       int      `json:"port"`
	Username   string   `json:"username"`
	AuthType   AuthType `json:"auth_type"`
	KeyPath    string   `json:"key_path,omitempty"`
	PasswordID string   `json:"password_id,omitempty"`
}

// Address returns the host:port dial target, defaulting the port to 22.
func (p Profile) Address() (string, int) {
	port := p.Port
	if port <= 0 {
		port = 22
	}
	return p.Host, port
}

// Direction distinguishes uploads from downloads.
type Direction string

const (
	DirectionUpload   Direction = "upload"
	DirectionDownload Direction = "download"
)

// TransferStatus enumerates the per-item transfer state machine. Completed,
// failed and cancelled are terminal and never re-entered.
type TransferStatus string

const (
	TransferPending   TransferStatus = "pending"
	TransferActive    TransferStatus = "active"
	TransferPaused    TransferStatus = "paused"
	TransferCompleted TransferStatus = "completed"
	TransferFailed    TransferStatus = "failed"
	TransferCancelled TransferStatus = "cancelled"
)

// Terminal reports whether the status can never transition again.
func (s TransferStatus) Terminal() bool {
	switch s {
	case TransferCompleted, TransferFailed, TransferCancelled:
		return true
	}
	return false
}

// TransferItem is one queued upload or download. Priority and Size are
// opaque to this layer; only the backend scheduler interprets them.
type TransferItem struct {
	ID              string         `json:"id"`
	ConnectionID    string         `json:"connection_id"`
	SourcePath      string         `json:"source_path"`
	DestinationPath string         `json:"destination_path"`
	Direction       Direction      `json:"direction"`
	Status          TransferStatus `json:"status"`
	Progress        float64        `json:"progress"` // 0..100
	Speed           int64          `json:"speed,omitempty"` // bytes/s
	ETA             time.Duration  `json:"eta,omitempty"`
	Size            int64          `json:"size,omitempty"`
	Error           string         `json:"error,omitempty"`
	Priority        int            `json:"priority"`
	CompletedAt     *time.Time     `json:"completed_at,omitempty"`
}

// TransferRequest describes a transfer to enqueue before it has an ID or a
// status. Input order is preserved by the queue.
type TransferRequest struct {
	ConnectionID    string
	SourcePath      string
	DestinationPath string
	Direction       Direction
	Priority        int
	Size            int64
}

// PathKind selects which of a session's working paths is addressed.
type PathKind string

const (
	PathRemote PathKind = "remote"
	PathLocal  PathKind = "local"
)
