package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync/atomic"
	"time"

	"github.com/okamoto/ackchat/internal/config"
	"github.com/okamoto/ackchat/internal/models"
	"github.com/okamoto/ackchat/pkg/protocol"
	"go.uber.org/zap"
)

// aLongTimeAgo is a deadline in the past, used to unblock pending I/O.
var aLongTimeAgo = time.Unix(1, 0)

// keepAliveConn is the part of *net.TCPConn used to tune keep-alive probes.
type keepAliveConn interface {
	SetKeepAlive(keepalive bool) error
	SetKeepAlivePeriod(d time.Duration) error
}

// Session is a single-client TCP server session: it accepts exactly one
// connection and acknowledges every chunk it receives until the peer leaves.
type Session struct {
	config  *config.ServerConfig
	connMgr *ConnectionManager
	logger  *zap.Logger
	out     io.Writer
	state   atomic.Int32
}

// NewSession creates a new server session. Operator-facing messages go to out.
func NewSession(cfg *config.ServerConfig, connMgr *ConnectionManager, logger *zap.Logger, out io.Writer) *Session {
	return &Session{
		config:  cfg,
		connMgr: connMgr,
		logger:  logger,
		out:     out,
	}
}

// State returns the current lifecycle state
func (s *Session) State() models.SessionState {
	return models.SessionState(s.state.Load())
}

func (s *Session) setState(state models.SessionState) {
	s.state.Store(int32(state))
}

// Addr returns the bound address, or nil when not listening.
func (s *Session) Addr() net.Addr {
	listener := s.connMgr.Listener()
	if listener == nil {
		return nil
	}
	return listener.Addr()
}

// BindAndListen creates the listening socket on the configured address
func (s *Session) BindAndListen() error {
	if state := s.State(); state != models.StateUnbound {
		return fmt.Errorf("cannot listen from state %s", state)
	}

	addr, err := protocol.ResolveEndpoint(s.config.Host, s.config.Port)
	if err != nil {
		return protocol.NewError(protocol.KindBind, fmt.Sprintf("%s:%d", s.config.Host, s.config.Port), err)
	}

	listener, err := listenTCP(addr, s.config)
	if err != nil {
		return err
	}

	if err := s.connMgr.SetListener(listener); err != nil {
		listener.Close()
		return protocol.NewError(protocol.KindListen, addr.String(), err)
	}
	s.setState(models.StateListening)

	port := listener.Addr().(*net.TCPAddr).Port
	s.logger.Info("TCP server started",
		zap.String("address", listener.Addr().String()),
		zap.Int("backlog", s.config.Backlog))

	fmt.Fprintf(s.out, "Server started on port %d\n", port)
	fmt.Fprintln(s.out, "Waiting for connections...")

	return nil
}

// AcceptOne blocks until one peer connects. Cancelling ctx releases the
// listener and makes AcceptOne return ctx.Err().
func (s *Session) AcceptOne(ctx context.Context) (net.Conn, net.Addr, error) {
	listener := s.connMgr.Listener()
	if listener == nil {
		return nil, nil, protocol.NewError(protocol.KindAccept, "", errors.New("not listening"))
	}
	address := listener.Addr().String()

	stop := context.AfterFunc(ctx, func() {
		if err := s.connMgr.CloseListener(); err != nil {
			s.logger.Warn("error closing listener", zap.Error(err))
		}
	})
	defer stop()

	conn, err := listener.Accept()
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil, ctx.Err()
		}
		return nil, nil, protocol.NewError(protocol.KindAccept, address, err)
	}

	if ka, ok := conn.(keepAliveConn); ok {
		s.configureKeepAlive(ka)
	}

	if err := s.connMgr.Register(conn); err != nil {
		conn.Close()
		return nil, nil, protocol.NewError(protocol.KindAccept, address, err)
	}
	s.setState(models.StateConnected)

	s.logger.Info("new connection accepted", zap.String("remote_addr", conn.RemoteAddr().String()))
	fmt.Fprintln(s.out, "Client connected. Ready to receive messages.")

	return conn, conn.RemoteAddr(), nil
}

// configureKeepAlive applies the keep-alive settings. Failures are logged and
// do not end the session.
func (s *Session) configureKeepAlive(conn keepAliveConn) {
	if err := conn.SetKeepAlive(s.config.KeepAlive); err != nil {
		s.logger.Warn("failed to configure keep-alive", zap.Bool("enabled", s.config.KeepAlive), zap.Error(err))
		return
	}
	if s.config.KeepAlive && s.config.KeepAlivePeriod > 0 {
		if err := conn.SetKeepAlivePeriod(s.config.KeepAlivePeriod); err != nil {
			s.logger.Warn("failed to configure keep-alive period",
				zap.Duration("period", s.config.KeepAlivePeriod), zap.Error(err))
		}
	}
}

// ServiceLoop receives chunks from conn and acknowledges each one. It returns
// nil when the peer disconnects or ctx is cancelled, and a ReceiveError or
// SendError otherwise. The connection is left open for Shutdown to release.
func (s *Session) ServiceLoop(ctx context.Context, conn net.Conn) error {
	remoteAddr := conn.RemoteAddr().String()

	stop := context.AfterFunc(ctx, func() {
		conn.SetDeadline(aLongTimeAgo)
	})
	defer stop()

	buf := protocol.NewBuffer(s.config.BufferSize)

	for {
		buf.Reset()

		n, err := buf.ReceiveFrom(conn)
		if n > 0 {
			s.connMgr.IncrementReceived()

			text := buf.Text()
			s.logger.Debug("received message",
				zap.String("remote_addr", remoteAddr),
				zap.Int("bytes", n))
			fmt.Fprintf(s.out, "Client: %s\n", text)

			ack := protocol.FormatAck(text, buf.Cap())
			written, werr := conn.Write(ack)
			if werr == nil && written < len(ack) {
				werr = io.ErrShortWrite
			}
			if werr != nil {
				if ctx.Err() != nil {
					return nil
				}
				return protocol.NewError(protocol.KindSend, remoteAddr, werr)
			}

			s.connMgr.IncrementSent()
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				s.logger.Info("client disconnected", zap.String("remote_addr", remoteAddr))
				fmt.Fprintln(s.out, "Client disconnected.")
				return nil
			}
			if ctx.Err() != nil {
				return nil
			}
			return protocol.NewError(protocol.KindReceive, remoteAddr, err)
		}
	}
}

// Shutdown releases the connection and the listener. It is safe to call more
// than once and before anything was accepted.
func (s *Session) Shutdown() error {
	if info, ok := s.connMgr.GetConnectionInfo(); ok && s.State() != models.StateClosed {
		s.logger.Info("session summary",
			zap.String("remote_addr", info.RemoteAddr),
			zap.Int64("messages_received", info.MessagesReceived),
			zap.Int64("messages_sent", info.MessagesSent),
			zap.Duration("duration", time.Since(info.ConnectedAt)))
	}

	err := s.connMgr.CloseAll()
	s.setState(models.StateClosed)
	return err
}

// Run drives the whole lifecycle: listen, accept one client, service it and
// release everything. Setup failures are returned; loop errors only end the
// session. Cancelling ctx shuts the session down and Run returns nil.
func (s *Session) Run(ctx context.Context) error {
	defer func() {
		if err := s.Shutdown(); err != nil {
			s.logger.Error("error releasing resources", zap.Error(err))
		}
	}()

	if s.State() == models.StateUnbound {
		if err := s.BindAndListen(); err != nil {
			return err
		}
	}

	conn, _, err := s.AcceptOne(ctx)
	if err != nil {
		if ctx.Err() != nil {
			s.announceShutdown()
			return nil
		}
		return err
	}

	if err := s.ServiceLoop(ctx, conn); err != nil {
		s.logger.Error("session ended", zap.Error(err))
	}

	if ctx.Err() != nil {
		s.announceShutdown()
	}

	return nil
}

func (s *Session) announceShutdown() {
	s.logger.Info("stopping TCP server")
	fmt.Fprintln(s.out, "\nShutting down server...")
}
