// Package transport implements the network transport layer for the TFTP server.
//
// This package handles packet formatting and UDP communication.
//
// Example:
//
//	conn, err := transport.Listen(":69")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	dg, ok, err := conn.Receive(0)
//	if err == nil && ok {
//	    req, err := transport.DecodeRRQ(dg.Payload)
//	    ...
//	}
package transport

import (
	"bytes"
	"encoding/binary"
	"strings"

	"github.com/pkg/errors"

	"github.com/opd-ai/tftpd/limits"
)

// Opcode identifies the type of a TFTP packet.
type Opcode uint16

const (
	OpRRQ Opcode = iota + 1
	OpWRQ
	OpData
	OpAck
	OpError
)

// Transfer modes named in RFC 1350. The server parses the mode but treats all
// modes as a raw byte stream.
const (
	ModeNetascii = "netascii"
	ModeOctet    = "octet"
)

// ErrMalformedPacket indicates a datagram too short or missing a delimiter.
var ErrMalformedPacket = errors.New("malformed packet")

// String returns the RFC name of the opcode.
func (op Opcode) String() string {
	switch op {
	case OpRRQ:
		return "RRQ"
	case OpWRQ:
		return "WRQ"
	case OpData:
		return "DATA"
	case OpAck:
		return "ACK"
	case OpError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ReadRequest holds the fields of a decoded RRQ.
type ReadRequest struct {
	Filename string
	Mode     string
}

// DataPacket holds the fields of a decoded DATA packet.
type DataPacket struct {
	Block   uint16
	Payload []byte
}

// DecodeOpcode reads the big-endian opcode from the first two bytes.
func DecodeOpcode(datagram []byte) (Opcode, error) {
	if len(datagram) < limits.OpcodeSize {
		return 0, errors.Wrapf(ErrMalformedPacket, "opcode needs %d bytes, got %d", limits.OpcodeSize, len(datagram))
	}
	return Opcode(binary.BigEndian.Uint16(datagram)), nil
}

// DecodeRRQ parses opcode | filename | 0 | mode | 0. The mode is lower-cased.
// Fields after the mode (option extensions) are ignored.
func DecodeRRQ(datagram []byte) (ReadRequest, error) {
	op, err := DecodeOpcode(datagram)
	if err != nil {
		return ReadRequest{}, err
	}
	if op != OpRRQ {
		return ReadRequest{}, errors.Wrapf(ErrMalformedPacket, "expected %s, got %s", OpRRQ, op)
	}

	fields := bytes.Split(datagram[limits.OpcodeSize:], []byte{0})
	if len(fields) < 2 {
		return ReadRequest{}, errors.Wrap(ErrMalformedPacket, "request has fewer than two NUL-delimited fields")
	}
	if len(fields[0]) == 0 {
		return ReadRequest{}, errors.Wrap(ErrMalformedPacket, "request has an empty filename")
	}

	return ReadRequest{
		Filename: string(fields[0]),
		Mode:     strings.ToLower(string(fields[1])),
	}, nil
}

// DecodeAck returns the block number carried in bytes [2:4].
func DecodeAck(datagram []byte) (uint16, error) {
	if len(datagram) < limits.AckSize {
		return 0, errors.Wrapf(ErrMalformedPacket, "ACK needs %d bytes, got %d", limits.AckSize, len(datagram))
	}
	return binary.BigEndian.Uint16(datagram[limits.OpcodeSize:limits.AckSize]), nil
}

// EncodeData builds a DATA packet. The payload is copied; callers keep
// ownership of their slice. DecodeData rejects payloads longer than
// limits.BlockSize.
func EncodeData(block uint16, payload []byte) []byte {
	result := make([]byte, limits.DataHeaderSize+len(payload))
	binary.BigEndian.PutUint16(result[0:2], uint16(OpData))
	binary.BigEndian.PutUint16(result[2:4], block)
	copy(result[limits.DataHeaderSize:], payload)
	return result
}

// DecodeData parses a DATA packet. The returned payload aliases datagram.
// Packets longer than limits.MaxDataPacket are malformed.
func DecodeData(datagram []byte) (DataPacket, error) {
	op, err := DecodeOpcode(datagram)
	if err != nil {
		return DataPacket{}, err
	}
	if op != OpData {
		return DataPacket{}, errors.Wrapf(ErrMalformedPacket, "expected %s, got %s", OpData, op)
	}
	if len(datagram) < limits.DataHeaderSize {
		return DataPacket{}, errors.Wrapf(ErrMalformedPacket, "DATA needs %d header bytes, got %d", limits.DataHeaderSize, len(datagram))
	}
	payload := datagram[limits.DataHeaderSize:]
	if err := limits.ValidateBlockPayload(payload); err != nil {
		return DataPacket{}, errors.Wrapf(ErrMalformedPacket, "DATA exceeds %d bytes: %v", limits.MaxDataPacket, err)
	}
	return DataPacket{
		Block:   binary.BigEndian.Uint16(datagram[2:4]),
		Payload: payload,
	}, nil
}

// EncodeRRQ builds a read request. Used by clients and tests.
func EncodeRRQ(filename, mode string) []byte {
	result := make([]byte, 0, limits.OpcodeSize+len(filename)+len(mode)+2)
	result = binary.BigEndian.AppendUint16(result, uint16(OpRRQ))
	result = append(result, filename...)
	result = append(result, 0)
	result = append(result, mode...)
	result = append(result, 0)
	return result
}

// EncodeAck builds an acknowledgment for block.
func EncodeAck(block uint16) []byte {
	result := make([]byte, limits.AckSize)
	binary.BigEndian.PutUint16(result[0:2], uint16(OpAck))
	binary.BigEndian.PutUint16(result[2:4], block)
	return result
}
