package server

import (
	"errors"
	"io"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestConnectionManagerCloseAllIsIdempotent(t *testing.T) {
	assert := assert.New(t)
	cm := NewConnectionManager(zaptest.NewLogger(t))

	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	require.NoError(t, err)
	require.NoError(t, cm.SetListener(listener))

	serverSide, clientSide := net.Pipe()
	defer clientSide.Close()
	require.NoError(t, cm.Register(serverSide))

	assert.NoError(cm.CloseAll())
	assert.NoError(cm.CloseAll())
	assert.NoError(cm.CloseListener())
	assert.Nil(cm.Listener())

	_, err = listener.Accept()
	assert.True(errors.Is(err, net.ErrClosed))

	_, err = serverSide.Write([]byte("x"))
	assert.ErrorIs(err, io.ErrClosedPipe)
}

func TestConnectionManagerCloseAllWithoutResources(t *testing.T) {
	cm := NewConnectionManager(zaptest.NewLogger(t))
	assert.NoError(t, cm.CloseAll())

	_, ok := cm.GetConnectionInfo()
	assert.False(t, ok)
}

func TestConnectionManagerSingleOwnership(t *testing.T) {
	assert := assert.New(t)
	cm := NewConnectionManager(zaptest.NewLogger(t))
	defer cm.CloseAll()

	first, peer1 := net.Pipe()
	second, peer2 := net.Pipe()
	defer peer1.Close()
	defer peer2.Close()
	defer second.Close()

	assert.NoError(cm.Register(first))
	assert.Error(cm.Register(second))

	listener, err := net.Listen("tcp4", "127.0.0.1:0")
	require.NoError(t, err)
	other, err := net.Listen("tcp4", "127.0.0.1:0")
	require.NoError(t, err)
	defer other.Close()

	assert.NoError(cm.SetListener(listener))
	assert.Error(cm.SetListener(other))
	assert.Equal(listener, cm.Listener())
}

func TestConnectionManagerStats(t *testing.T) {
	assert := assert.New(t)
	cm := NewConnectionManager(zaptest.NewLogger(t))

	conn, peer := net.Pipe()
	defer peer.Close()
	require.NoError(t, cm.Register(conn))

	cm.IncrementReceived()
	cm.IncrementReceived()
	cm.IncrementSent()

	info, ok := cm.GetConnectionInfo()
	require.True(t, ok)
	assert.Equal(int64(2), info.MessagesReceived)
	assert.Equal(int64(1), info.MessagesSent)
	assert.Equal("pipe", info.RemoteAddr)
	assert.False(info.LastActive.Before(info.ConnectedAt))

	require.NoError(t, cm.CloseAll())

	// stats outlive the connection so the session summary can be logged
	_, ok = cm.GetConnectionInfo()
	assert.True(ok)
}
