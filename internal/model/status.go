package model

import "time"

// StatusKind tags the ConnectionStatus variant. Exactly one variant holds at
// any time; the payload fields below are meaningful only for their own kind.
type StatusKind int

const (
	StatusDisconnected StatusKind = iota
	StatusConnecting
	StatusConnected
	StatusReconnecting
	StatusError
)

// ConnectionStatus is the tagged projection of a connection's health. It is
// constructed through the helpers below so impossible combinations (for
// example connecting and connected at once) cannot be represented.
type ConnectionStatus struct {
	Kind     StatusKind
	Host     string        // connected
	Username string        // connected
	Latency  time.Duration // connected, zero when unknown
	LastErr  string        // reconnecting, empty when unknown
	Message  string        // error
}

// Disconnected returns the zero status.
func Disconnected() ConnectionStatus {
	return ConnectionStatus{Kind: StatusDisconnected}
}

// Connecting marks a dial in flight.
func Connecting() ConnectionStatus {
	return ConnectionStatus{Kind: StatusConnecting}
}

// Connected marks an established connection.
func Connected(host, username string, latency time.Duration) ConnectionStatus {
	return ConnectionStatus{Kind: StatusConnected, Host: host, Username: username, Latency: latency}
}

// Reconnecting marks a dropped connection the backend is re-establishing.
func Reconnecting(lastErr string) ConnectionStatus {
	return ConnectionStatus{Kind: StatusReconnecting, LastErr: lastErr}
}

// StatusFailed marks a connection the backend has given up on.
func StatusFailed(message string) ConnectionStatus {
	return ConnectionStatus{Kind: StatusError, Message: message}
}

// Live reports whether the connection currently carries traffic.
func (s ConnectionStatus) Live() bool {
	return s.Kind == StatusConnected
}

func (s ConnectionStatus) String() string {
	switch s.Kind {
	case StatusConnecting:
		return "connecting"
	case StatusConnected:
		return "connected"
	case StatusReconnecting:
		return "reconnecting"
	case StatusError:
		return "error"
	default:
		return "disconnected"
	}
}
