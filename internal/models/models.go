package models

import (
	"time"
)

// SessionState represents where a server session is in its lifecycle
type SessionState int32

const (
	StateUnbound SessionState = iota
	StateListening
	StateConnected
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateUnbound:
		return "unbound"
	case StateListening:
		return "listening"
	case StateConnected:
		return "connected"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// ConnectionInfo represents the active TCP connection of a session
type ConnectionInfo struct {
	RemoteAddr       string
	ConnectedAt      time.Time
	LastActive       time.Time
	MessagesSent     int64
	MessagesReceived int64
}
