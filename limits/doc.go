// Package limits provides centralized size constants and validation functions
// for the TFTP wire protocol. Every component that builds or inspects a packet
// takes its sizes from here so the block-size rules stay in one place.
//
// # Size Hierarchy
//
//   - BlockSize (512 bytes): the fixed DATA payload size. A payload of exactly
//     BlockSize means more data follows; anything shorter ends the transfer.
//
//   - MaxDataPacket (516 bytes): a full DATA packet, header plus one block.
//
//   - ReceiveBufferSize (65536 bytes): the buffer used for every UDP receive,
//     large enough for any datagram the kernel can hand back.
//
// # Validation Functions
//
//	if err := limits.ValidateBlockPayload(chunk); err != nil {
//	    // err wraps ErrBlockTooLarge
//	}
//
// An empty payload is valid: it is how a transfer of a zero-length file, or of
// a file whose length is a multiple of BlockSize, is terminated.
package limits
