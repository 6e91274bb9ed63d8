//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package server

import (
	"net"
	"os"

	"github.com/okamoto/ackchat/internal/config"
	"github.com/okamoto/ackchat/pkg/protocol"
	"golang.org/x/sys/unix"
)

// listenTCP walks socket, setsockopt, bind and listen by hand so the
// configured backlog is honoured and every step reports its own error kind.
func listenTCP(addr *net.TCPAddr, cfg *config.ServerConfig) (net.Listener, error) {
	address := addr.String()

	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, unix.IPPROTO_TCP)
	if err != nil {
		return nil, protocol.NewError(protocol.KindSocketCreate, address, os.NewSyscallError("socket", err))
	}
	unix.CloseOnExec(fd)

	fail := func(kind protocol.Kind, call string, err error) (net.Listener, error) {
		unix.Close(fd)
		return nil, protocol.NewError(kind, address, os.NewSyscallError(call, err))
	}

	if cfg.ReuseAddr {
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
			return fail(protocol.KindSocketCreate, "setsockopt", err)
		}
	}
	if cfg.ReusePort {
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEPORT, 1); err != nil {
			return fail(protocol.KindSocketCreate, "setsockopt", err)
		}
	}

	sa := &unix.SockaddrInet4{Port: addr.Port}
	copy(sa.Addr[:], addr.IP.To4())

	if err := unix.Bind(fd, sa); err != nil {
		return fail(protocol.KindBind, "bind", err)
	}

	if err := unix.Listen(fd, cfg.Backlog); err != nil {
		return fail(protocol.KindListen, "listen", err)
	}

	// FileListener dups the descriptor and hands it to the runtime poller.
	f := os.NewFile(uintptr(fd), "tcp:"+address)
	defer f.Close()

	listener, err := net.FileListener(f)
	if err != nil {
		return nil, protocol.NewError(protocol.KindListen, address, err)
	}

	return listener, nil
}
