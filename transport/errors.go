package transport

import (
	"errors"
	"fmt"
)

// ErrConnectionClosed indicates the connection has been closed.
var ErrConnectionClosed = errors.New("connection closed")

// NetError represents a socket failure with the operation and address involved.
type NetError struct {
	Op   string // operation that caused the error
	Addr string // address if relevant
	Err  error  // underlying error
}

func (e *NetError) Error() string {
	if e.Addr != "" {
		return fmt.Sprintf("tftp %s %s: %v", e.Op, e.Addr, e.Err)
	}
	return fmt.Sprintf("tftp %s: %v", e.Op, e.Err)
}

func (e *NetError) Unwrap() error {
	return e.Err
}

func newNetError(op, addr string, err error) *NetError {
	return &NetError{
		Op:   op,
		Addr: addr,
		Err:  err,
	}
}
