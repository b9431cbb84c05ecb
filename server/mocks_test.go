package server

//go:generate go run github.com/golang/mock/mockgen -package=server -destination=mock_opener_test.go github.com/opd-ai/tftpd/file Opener

import (
	"bytes"
	"io"
	"net"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/opd-ai/tftpd/file"
	"github.com/opd-ai/tftpd/transport"
)

var (
	testClient  = &net.UDPAddr{IP: net.ParseIP("192.0.2.10"), Port: 4000}
	otherClient = &net.UDPAddr{IP: net.ParseIP("192.0.2.20"), Port: 5000}
)

var errScriptExhausted = &transport.NetError{Op: "read", Err: transport.ErrConnectionClosed}

// recvEvent is one scripted result of Receive.
type recvEvent struct {
	dg      transport.Datagram
	timeout bool
	err     error
}

// sentDatagram records a Send along with how many events had been consumed.
type sentDatagram struct {
	payload    []byte
	addr       net.Addr
	afterEvent int
}

// scriptedConn implements transport.Conn by replaying a fixed list of
// receive results and recording every send.
type scriptedConn struct {
	events   []recvEvent
	next     int
	sent     []sentDatagram
	timeouts []time.Duration
	closed   atomic.Bool
	sendErr  error
	// failFor limits sendErr to one destination when set.
	failFor net.Addr
}

func newScriptedConn(events ...recvEvent) *scriptedConn {
	return &scriptedConn{events: events}
}

func (c *scriptedConn) Receive(timeout time.Duration) (transport.Datagram, bool, error) {
	c.timeouts = append(c.timeouts, timeout)
	if c.next >= len(c.events) {
		return transport.Datagram{}, false, errScriptExhausted
	}
	ev := c.events[c.next]
	c.next++
	if ev.err != nil {
		return transport.Datagram{}, false, ev.err
	}
	if ev.timeout {
		return transport.Datagram{}, false, nil
	}
	return ev.dg, true, nil
}

func (c *scriptedConn) Send(payload []byte, addr net.Addr) error {
	if c.sendErr != nil && (c.failFor == nil || transport.SameEndpoint(c.failFor, addr)) {
		return c.sendErr
	}
	c.sent = append(c.sent, sentDatagram{
		payload:    append([]byte(nil), payload...),
		addr:       addr,
		afterEvent: c.next,
	})
	return nil
}

func (c *scriptedConn) LocalAddr() net.Addr {
	return &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 69}
}

func (c *scriptedConn) Close() error {
	c.closed.Store(true)
	return nil
}

// sentBlocks decodes every recorded send as a DATA packet.
func (c *scriptedConn) sentBlocks(t *testing.T) []transport.DataPacket {
	t.Helper()
	blocks := make([]transport.DataPacket, 0, len(c.sent))
	for i, s := range c.sent {
		p, err := transport.DecodeData(s.payload)
		if err != nil {
			t.Fatalf("send %d is not a DATA packet: %v", i, err)
		}
		blocks = append(blocks, p)
	}
	return blocks
}

func from(addr net.Addr, payload []byte) recvEvent {
	return recvEvent{dg: transport.Datagram{Payload: payload, Addr: addr}}
}

func ackFrom(addr net.Addr, block uint16) recvEvent {
	return from(addr, transport.EncodeAck(block))
}

func timeoutEvent() recvEvent {
	return recvEvent{timeout: true}
}

// memOpener serves files from memory.
func memOpener(files map[string][]byte) file.Opener {
	return file.OpenerFunc(func(name string) (io.ReadCloser, error) {
		data, ok := files[name]
		if !ok {
			return nil, os.ErrNotExist
		}
		return io.NopCloser(bytes.NewReader(data)), nil
	})
}

func testPayload(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i % 251)
	}
	return data
}

func testRequest(name string) Request {
	return Request{Client: testClient, Filename: name, Mode: transport.ModeOctet}
}
