package server

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/okamoto/ackchat/internal/models"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// ConnectionManager exclusively owns the listening resource and the single
// accepted connection of a server session. Each is released at most once.
type ConnectionManager struct {
	listener net.Listener
	conn     net.Conn
	connInfo *models.ConnectionInfo
	mu       sync.Mutex
	logger   *zap.Logger
}

// NewConnectionManager creates a new connection manager
func NewConnectionManager(logger *zap.Logger) *ConnectionManager {
	return &ConnectionManager{
		logger: logger,
	}
}

// SetListener hands the listening resource to the manager
func (cm *ConnectionManager) SetListener(listener net.Listener) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.listener != nil {
		return fmt.Errorf("listener already registered")
	}

	cm.listener = listener
	return nil
}

// Listener returns the listening resource, or nil once it has been released
func (cm *ConnectionManager) Listener() net.Listener {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	return cm.listener
}

// Register adds the accepted connection to the manager
func (cm *ConnectionManager) Register(conn net.Conn) error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.conn != nil {
		return fmt.Errorf("connection from %s already registered", cm.conn.RemoteAddr())
	}

	now := time.Now()
	cm.conn = conn
	cm.connInfo = &models.ConnectionInfo{
		RemoteAddr:  conn.RemoteAddr().String(),
		ConnectedAt: now,
		LastActive:  now,
	}

	cm.logger.Info("connection registered",
		zap.String("remote_addr", conn.RemoteAddr().String()))

	return nil
}

// IncrementReceived increments the received message counter
func (cm *ConnectionManager) IncrementReceived() {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.connInfo != nil {
		cm.connInfo.MessagesReceived++
		cm.connInfo.LastActive = time.Now()
	}
}

// IncrementSent increments the sent message counter
func (cm *ConnectionManager) IncrementSent() {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.connInfo != nil {
		cm.connInfo.MessagesSent++
		cm.connInfo.LastActive = time.Now()
	}
}

// GetConnectionInfo returns a copy of the connection stats
func (cm *ConnectionManager) GetConnectionInfo() (models.ConnectionInfo, bool) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.connInfo == nil {
		return models.ConnectionInfo{}, false
	}
	return *cm.connInfo, true
}

// CloseListener releases the listening resource. Later calls are no-ops.
func (cm *ConnectionManager) CloseListener() error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	return cm.closeListenerLocked()
}

// CloseAll releases the connection and then the listener
func (cm *ConnectionManager) CloseAll() error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	return multierr.Append(cm.closeConnLocked(), cm.closeListenerLocked())
}

func (cm *ConnectionManager) closeConnLocked() error {
	if cm.conn == nil {
		return nil
	}

	conn := cm.conn
	cm.conn = nil

	cm.logger.Info("closing connection", zap.String("remote_addr", conn.RemoteAddr().String()))
	if err := conn.Close(); err != nil {
		return fmt.Errorf("failed to close connection: %w", err)
	}
	return nil
}

func (cm *ConnectionManager) closeListenerLocked() error {
	if cm.listener == nil {
		return nil
	}

	listener := cm.listener
	cm.listener = nil

	cm.logger.Info("closing listener", zap.String("address", listener.Addr().String()))
	if err := listener.Close(); err != nil {
		return fmt.Errorf("failed to close listener: %w", err)
	}
	return nil
}
