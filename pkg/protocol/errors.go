package protocol

import "fmt"

// Kind classifies where in the connection lifecycle an error happened.
type Kind int

const (
	KindSocketCreate Kind = iota + 1
	KindBind
	KindListen
	KindAccept
	KindConnect
	KindSend
	KindReceive
)

func (k Kind) String() string {
	switch k {
	case KindSocketCreate:
		return "socket create"
	case KindBind:
		return "bind"
	case KindListen:
		return "listen"
	case KindAccept:
		return "accept"
	case KindConnect:
		return "connect"
	case KindSend:
		return "send"
	case KindReceive:
		return "receive"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Setup reports whether errors of this kind happen before the exchange loop.
func (k Kind) Setup() bool {
	switch k {
	case KindSocketCreate, KindBind, KindListen, KindConnect:
		return true
	}
	return false
}

// Error is a connection lifecycle error
type Error struct {
	Kind Kind
	Addr string
	Err  error
}

// NewError creates a new lifecycle error
func NewError(kind Kind, addr string, err error) *Error {
	return &Error{Kind: kind, Addr: addr, Err: err}
}

func (e *Error) Error() string {
	msg := e.Kind.String() + " error"
	if e.Addr != "" {
		msg += " on " + e.Addr
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrBind) works
// regardless of address or cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Addr == "" && t.Err == nil
}

// Sentinel errors for errors.Is
var (
	ErrSocketCreate = &Error{Kind: KindSocketCreate}
	ErrBind         = &Error{Kind: KindBind}
	ErrListen       = &Error{Kind: KindListen}
	ErrAccept       = &Error{Kind: KindAccept}
	ErrConnect      = &Error{Kind: KindConnect}
	ErrSend         = &Error{Kind: KindSend}
	ErrReceive      = &Error{Kind: KindReceive}
)
