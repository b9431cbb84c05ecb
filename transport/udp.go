package transport

import (
	"errors"
	"net"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/tftpd/limits"
)

// UDPConn implements Conn over a net.PacketConn. It is used by a single
// goroutine at a time; only Close may be called concurrently with Receive.
type UDPConn struct {
	conn         net.PacketConn
	buffer       []byte
	timeProvider TimeProvider
}

// Listen binds a UDP socket on listenAddr (for example ":69").
func Listen(listenAddr string) (*UDPConn, error) {
	conn, err := net.ListenPacket("udp", listenAddr)
	if err != nil {
		return nil, newNetError("listen", listenAddr, err)
	}

	logrus.WithFields(logrus.Fields{
		"function":   "Listen",
		"local_addr": conn.LocalAddr().String(),
	}).Info("UDP socket bound")

	return NewUDPConn(conn), nil
}

// NewUDPConn wraps an existing packet connection.
func NewUDPConn(conn net.PacketConn) *UDPConn {
	return &UDPConn{
		conn:   conn,
		buffer: make([]byte, limits.ReceiveBufferSize),
	}
}

// SetTimeProvider sets the clock used to compute read deadlines.
func (c *UDPConn) SetTimeProvider(tp TimeProvider) {
	c.timeProvider = tp
}

// Receive implements Conn. The returned payload is a copy and stays valid
// after the next call.
func (c *UDPConn) Receive(timeout time.Duration) (Datagram, bool, error) {
	var deadline time.Time
	if timeout > 0 {
		deadline = getTimeProvider(c.timeProvider).Now().Add(timeout)
	}
	if err := c.conn.SetReadDeadline(deadline); err != nil {
		return Datagram{}, false, c.handleReadError("set deadline", err)
	}

	n, addr, err := c.conn.ReadFrom(c.buffer)
	if err != nil {
		if isTimeout(err) {
			return Datagram{}, false, nil
		}
		return Datagram{}, false, c.handleReadError("read", err)
	}

	payload := make([]byte, n)
	copy(payload, c.buffer[:n])
	return Datagram{Payload: payload, Addr: addr}, true, nil
}

// handleReadError maps a closed socket to ErrConnectionClosed and wraps
// everything else with operation context.
func (c *UDPConn) handleReadError(op string, err error) error {
	if errors.Is(err, net.ErrClosed) {
		return newNetError(op, c.conn.LocalAddr().String(), ErrConnectionClosed)
	}

	logrus.WithFields(logrus.Fields{
		"function":   "Receive",
		"local_addr": c.conn.LocalAddr().String(),
		"error":      err.Error(),
	}).Error("UDP receive failed")

	return newNetError(op, c.conn.LocalAddr().String(), err)
}

// Send implements Conn.
func (c *UDPConn) Send(payload []byte, addr net.Addr) error {
	if _, err := c.conn.WriteTo(payload, addr); err != nil {
		if errors.Is(err, net.ErrClosed) {
			return newNetError("write", addr.String(), ErrConnectionClosed)
		}
		return newNetError("write", addr.String(), err)
	}
	return nil
}

// LocalAddr implements Conn.
func (c *UDPConn) LocalAddr() net.Addr {
	return c.conn.LocalAddr()
}

// Close implements Conn.
func (c *UDPConn) Close() error {
	return c.conn.Close()
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
