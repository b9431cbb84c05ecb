// Package transport implements the TFTP wire format and the UDP socket the
// server talks through.
//
// # Packet Codec
//
// The codec is a set of pure functions over byte slices. All integers are
// big-endian:
//
//	RRQ   0x0001 | filename | 0x00 | mode | 0x00
//	DATA  0x0003 | block(u16) | payload(0..512)
//	ACK   0x0004 | block(u16)
//
// Decoding failures wrap ErrMalformedPacket:
//
//	op, err := transport.DecodeOpcode(payload)
//	if errors.Is(err, transport.ErrMalformedPacket) {
//	    // too short to carry an opcode
//	}
//
// # Connections
//
// Conn abstracts the UDP endpoint. Receive takes a timeout and reports an
// elapsed timeout as ok == false with a nil error:
//
//	dg, ok, err := conn.Receive(2 * time.Second)
//	switch {
//	case err != nil:
//	    // socket failure
//	case !ok:
//	    // timeout, retransmit
//	default:
//	    // dg.Payload from dg.Addr
//	}
//
// UDPConn is the net.PacketConn backed implementation. Read deadlines are
// computed through a TimeProvider so tests can control the clock.
//
// # Endpoints
//
// SameEndpoint compares peers structurally (IP, port, zone), which is what
// the server uses to tell its active client apart from foreign traffic.
package transport
