package protocol

import (
	"bytes"
	"fmt"
	"io"
)

// Protocol constants
const (
	DefaultPort       = 8080
	DefaultBufferSize = 1024

	// AckFormat is the acknowledgement the server sends for every chunk it receives.
	AckFormat = "Message '%s' received successfully"

	// MinBufferSize leaves room for one byte of payload plus the terminator.
	MinBufferSize = 2
)

// There is no framing on the wire. One Read is treated as one complete
// message, which only holds for small, infrequent messages on loopback.
// Anything larger than the buffer is split across iterations and anything
// sent back-to-back may be merged.

// FormatAck builds the acknowledgement for text, truncated so that it fits in
// a buffer of the given capacity together with its terminator.
func FormatAck(text string, capacity int) []byte {
	ack := fmt.Sprintf(AckFormat, text)
	if capacity >= MinBufferSize && len(ack) > capacity-1 {
		ack = ack[:capacity-1]
	}
	return []byte(ack)
}

// Buffer is a fixed-capacity message buffer. It never grows; the last slot is
// reserved for a zero terminator so at most Cap()-1 bytes are ever stored.
type Buffer struct {
	data []byte
	n    int
}

// NewBuffer creates a buffer with the given capacity
func NewBuffer(capacity int) *Buffer {
	if capacity < MinBufferSize {
		capacity = MinBufferSize
	}
	return &Buffer{data: make([]byte, capacity)}
}

// Cap returns the buffer capacity, terminator included.
func (b *Buffer) Cap() int {
	return len(b.data)
}

// Len returns the number of payload bytes currently held.
func (b *Buffer) Len() int {
	return b.n
}

// Reset zeroes the buffer.
func (b *Buffer) Reset() {
	clear(b.data)
	b.n = 0
}

// ReceiveFrom performs a single Read of at most Cap()-1 bytes.
func (b *Buffer) ReceiveFrom(r io.Reader) (int, error) {
	n, err := r.Read(b.data[:len(b.data)-1])
	if n < 0 {
		n = 0
	}
	b.n = n
	return n, err
}

// Fill copies s into the buffer, truncating it to Cap()-1 bytes, and returns
// the stored payload.
func (b *Buffer) Fill(s string) []byte {
	b.n = copy(b.data[:len(b.data)-1], s)
	return b.data[:b.n]
}

// Payload returns the stored bytes.
func (b *Buffer) Payload() []byte {
	return b.data[:b.n]
}

// Text interprets the payload as text, stopping at the first NUL byte.
func (b *Buffer) Text() string {
	p := b.Payload()
	if i := bytes.IndexByte(p, 0); i >= 0 {
		p = p[:i]
	}
	return string(p)
}

// raw exposes the whole backing array, terminator slot included.
func (b *Buffer) raw() []byte {
	return b.data
}
