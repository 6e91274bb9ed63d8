package protocol

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatAck(t *testing.T) {
	assert := assert.New(t)

	assert.Equal("Message 'hello' received successfully", string(FormatAck("hello", DefaultBufferSize)))
	assert.Equal("Message '' received successfully", string(FormatAck("", DefaultBufferSize)))

	for _, m := range []string{"a", "with space", strings.Repeat("x", 900)} {
		assert.Equal("Message '"+m+"' received successfully", string(FormatAck(m, DefaultBufferSize)))
	}
}

func TestFormatAckTruncates(t *testing.T) {
	assert := assert.New(t)

	long := strings.Repeat("y", DefaultBufferSize-1)
	ack := FormatAck(long, DefaultBufferSize)
	assert.Len(ack, DefaultBufferSize-1)
	assert.True(bytes.HasPrefix(ack, []byte("Message 'yyy")))

	ack = FormatAck("hello", 10)
	assert.Equal("Message '", string(ack))
}

func TestBufferReceiveOversized(t *testing.T) {
	assert := assert.New(t)

	buf := NewBuffer(DefaultBufferSize)
	oversized := bytes.Repeat([]byte{'z'}, DefaultBufferSize*3)

	n, err := buf.ReceiveFrom(bytes.NewReader(oversized))
	assert.NoError(err)
	assert.Equal(DefaultBufferSize-1, n)
	assert.Equal(DefaultBufferSize-1, buf.Len())
	assert.Equal(DefaultBufferSize, buf.Cap())
	assert.Equal(byte(0), buf.raw()[DefaultBufferSize-1])
	assert.Equal(strings.Repeat("z", DefaultBufferSize-1), buf.Text())
}

func TestBufferResetClearsPreviousMessage(t *testing.T) {
	assert := assert.New(t)

	buf := NewBuffer(16)
	_, err := buf.ReceiveFrom(strings.NewReader("longer message"))
	assert.NoError(err)

	buf.Reset()
	assert.Equal(0, buf.Len())
	assert.Equal(make([]byte, 16), buf.raw())

	_, err = buf.ReceiveFrom(strings.NewReader("hi"))
	assert.NoError(err)
	assert.Equal("hi", buf.Text())
}

func TestBufferReceiveEOF(t *testing.T) {
	buf := NewBuffer(8)
	n, err := buf.ReceiveFrom(strings.NewReader(""))
	assert.Equal(t, 0, n)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "", buf.Text())
}

func TestBufferTextStopsAtNUL(t *testing.T) {
	buf := NewBuffer(16)
	_, err := buf.ReceiveFrom(bytes.NewReader([]byte("abc\x00def")))
	require.NoError(t, err)
	assert.Equal(t, 7, buf.Len())
	assert.Equal(t, "abc", buf.Text())
}

func TestBufferFill(t *testing.T) {
	assert := assert.New(t)

	buf := NewBuffer(6)
	assert.Equal([]byte("hello"), buf.Fill("hello world"))
	assert.Equal(byte(0), buf.raw()[5])

	buf.Reset()
	assert.Equal([]byte("hi"), buf.Fill("hi"))
	assert.Equal("hi", string(buf.Payload()))
}

func TestNewBufferMinimumCapacity(t *testing.T) {
	assert.Equal(t, MinBufferSize, NewBuffer(0).Cap())
}

func TestErrorKinds(t *testing.T) {
	assert := assert.New(t)

	err := NewError(KindBind, "0.0.0.0:8080", syscall.EADDRINUSE)
	wrapped := fmt.Errorf("failed to start: %w", err)

	assert.ErrorIs(wrapped, ErrBind)
	assert.NotErrorIs(wrapped, ErrListen)
	assert.ErrorIs(wrapped, syscall.EADDRINUSE)
	assert.Equal("bind error on 0.0.0.0:8080: address already in use", err.Error())

	var lifecycleErr *Error
	assert.True(errors.As(wrapped, &lifecycleErr))
	assert.Equal(KindBind, lifecycleErr.Kind)
	assert.True(lifecycleErr.Kind.Setup())

	assert.False(KindSend.Setup())
	assert.False(KindReceive.Setup())
	assert.Equal("receive error", ErrReceive.Error())
}

func TestResolveEndpoint(t *testing.T) {
	cases := []struct {
		host    string
		port    int
		want    string
		wantErr bool
	}{
		{host: "", port: 8080, want: "0.0.0.0:8080"},
		{host: "*", port: 0, want: "0.0.0.0:0"},
		{host: "127.0.0.1", port: 65535, want: "127.0.0.1:65535"},
		{host: "10.0.0.1", port: 8080, want: "10.0.0.1:8080"},
		{host: "127.0.0.1", port: 65536, wantErr: true},
		{host: "127.0.0.1", port: -1, wantErr: true},
		{host: "localhost", port: 8080, wantErr: true},
		{host: "::1", port: 8080, wantErr: true},
		{host: "::ffff:127.0.0.1", port: 8080, wantErr: true},
		{host: "256.0.0.1", port: 8080, wantErr: true},
	}

	for _, c := range cases {
		addr, err := ResolveEndpoint(c.host, c.port)
		if c.wantErr {
			assert.Error(t, err, "%s:%d", c.host, c.port)
			continue
		}
		if assert.NoError(t, err, "%s:%d", c.host, c.port) {
			assert.Equal(t, c.want, addr.String())
		}
	}
}

func TestParseEndpoint(t *testing.T) {
	addr, err := ParseEndpoint("127.0.0.1:8080")
	require.NoError(t, err)
	assert.Equal(t, 8080, addr.Port)

	_, err = ParseEndpoint("127.0.0.1")
	assert.Error(t, err)

	_, err = ParseEndpoint("127.0.0.1:http")
	assert.Error(t, err)
}
