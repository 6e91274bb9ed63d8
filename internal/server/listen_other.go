//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly)

package server

import (
	"context"
	"net"

	"github.com/okamoto/ackchat/internal/config"
	"github.com/okamoto/ackchat/pkg/protocol"
)

// listenTCP falls back to the runtime listener. The backlog and reuse options
// are left to the platform defaults and every failure is reported as a bind error.
func listenTCP(addr *net.TCPAddr, _ *config.ServerConfig) (net.Listener, error) {
	lc := net.ListenConfig{}

	listener, err := lc.Listen(context.Background(), "tcp4", addr.String())
	if err != nil {
		return nil, protocol.NewError(protocol.KindBind, addr.String(), err)
	}

	return listener, nil
}
