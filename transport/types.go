package transport

import (
	"net"
	"time"
)

// Datagram is one received UDP payload together with its sender.
type Datagram struct {
	Payload []byte
	Addr    net.Addr
}

// Conn defines the socket operations the server needs. Implementations must
// report an elapsed receive timeout through the ok result, never as an error,
// so retransmission and socket failure cannot be confused.
type Conn interface {
	// Receive waits for the next datagram. A timeout of zero waits forever.
	// It returns ok == false with a nil error when the timeout elapses.
	Receive(timeout time.Duration) (dg Datagram, ok bool, err error)

	// Send writes payload as a single datagram to addr.
	Send(payload []byte, addr net.Addr) error

	// LocalAddr returns the local address the connection is bound to.
	LocalAddr() net.Addr

	// Close shuts down the connection and unblocks a pending Receive.
	Close() error
}
