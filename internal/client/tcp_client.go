package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"syscall"
	"time"

	"github.com/okamoto/ackchat/internal/config"
	"github.com/okamoto/ackchat/pkg/protocol"
	"go.uber.org/zap"
)

// aLongTimeAgo is a deadline in the past, used to unblock pending I/O.
var aLongTimeAgo = time.Unix(1, 0)

// Client drives an interactive send/receive loop over one TCP connection
type Client struct {
	config *config.ClientConfig
	logger *zap.Logger
	input  *bufio.Scanner
	out    io.Writer
}

// NewClient creates a new client. Operator tokens are read from in and
// replies are printed to out.
func NewClient(cfg *config.ClientConfig, logger *zap.Logger, in io.Reader, out io.Writer) *Client {
	input := bufio.NewScanner(in)
	input.Split(bufio.ScanWords)

	return &Client{
		config: cfg,
		logger: logger,
		input:  input,
		out:    out,
	}
}

// ConnectTo validates address ("ip:port") and dials it.
func (c *Client) ConnectTo(ctx context.Context, address string) (net.Conn, error) {
	addr, err := protocol.ParseEndpoint(address)
	if err != nil {
		return nil, protocol.NewError(protocol.KindConnect, address, err)
	}

	dialer := net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp4", addr.String())
	if err != nil {
		return nil, classifyDialError(addr.String(), err)
	}

	c.logger.Info("connected to server",
		zap.String("remote_addr", conn.RemoteAddr().String()),
		zap.String("local_addr", conn.LocalAddr().String()))

	return conn, nil
}

// classifyDialError separates descriptor exhaustion from ordinary connect
// failures; the dialer reports both the same way.
func classifyDialError(address string, err error) error {
	for _, errno := range []syscall.Errno{syscall.EMFILE, syscall.ENFILE, syscall.ENOBUFS, syscall.ENOMEM} {
		if errors.Is(err, errno) {
			return protocol.NewError(protocol.KindSocketCreate, address, err)
		}
	}
	return protocol.NewError(protocol.KindConnect, address, err)
}

// InteractiveLoop sends one whitespace-delimited token of operator input per
// round and prints whatever the server sends back. It only returns on a send
// or receive error, when ctx is cancelled, or when operator input runs out.
func (c *Client) InteractiveLoop(ctx context.Context, conn net.Conn) error {
	remoteAddr := conn.RemoteAddr().String()

	stop := context.AfterFunc(ctx, func() {
		conn.SetDeadline(aLongTimeAgo)
	})
	defer stop()

	sendBuf := protocol.NewBuffer(c.config.BufferSize)
	recvBuf := protocol.NewBuffer(c.config.BufferSize)

	for {
		sendBuf.Reset()
		recvBuf.Reset()

		fmt.Fprintln(c.out, "Type a message to the server: ")
		if !c.input.Scan() {
			if err := c.input.Err(); err != nil {
				return fmt.Errorf("failed to read input: %w", err)
			}
			c.logger.Info("input closed, leaving session")
			return nil
		}

		payload := sendBuf.Fill(c.input.Text())
		if _, err := conn.Write(payload); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return protocol.NewError(protocol.KindSend, remoteAddr, err)
		}
		c.logger.Debug("message sent", zap.Int("bytes", len(payload)))
		fmt.Fprintln(c.out, "Message sent")

		// A closed peer yields an empty reply, same as a short valid one.
		n, err := recvBuf.ReceiveFrom(conn)
		if err != nil && !errors.Is(err, io.EOF) {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return protocol.NewError(protocol.KindReceive, remoteAddr, err)
		}
		c.logger.Debug("reply received", zap.Int("bytes", n))

		fmt.Fprintln(c.out, "Response from server: ")
		fmt.Fprintln(c.out, recvBuf.Text())
	}
}
