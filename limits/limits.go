// Package limits provides centralized size limits for the TFTP protocol.
package limits

import (
	"errors"
	"fmt"
)

const (
	// BlockSize is the fixed DATA payload size defined by RFC 1350.
	BlockSize = 512

	// OpcodeSize is the width of the opcode field that starts every packet.
	OpcodeSize = 2

	// DataHeaderSize is the opcode plus the 16-bit block number.
	DataHeaderSize = OpcodeSize + 2

	// AckSize is the exact length of an ACK packet.
	AckSize = DataHeaderSize

	// MaxDataPacket is the largest DATA packet this server ever sends.
	MaxDataPacket = DataHeaderSize + BlockSize

	// ReceiveBufferSize is the buffer used for each UDP receive.
	ReceiveBufferSize = 65536
)

// ErrBlockTooLarge indicates a DATA payload longer than BlockSize.
var ErrBlockTooLarge = errors.New("block payload too large")

// ValidateBlockPayload checks that payload fits into a single DATA block.
// Empty payloads are valid terminal blocks.
func ValidateBlockPayload(payload []byte) error {
	if len(payload) > BlockSize {
		return fmt.Errorf("%w: size %d exceeds limit %d", ErrBlockTooLarge, len(payload), BlockSize)
	}
	return nil
}

// IsTerminalBlock reports whether a payload of length n ends a transfer.
func IsTerminalBlock(n int) bool {
	return n < BlockSize
}
