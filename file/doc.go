// Package file implements the read side of a TFTP transfer: the per-client
// Session state machine and the Opener that turns a requested name into a
// readable file.
//
// # Sessions
//
// A Session holds the block awaiting acknowledgment and its number, starting
// at 1:
//
//	session, err := file.NewSession(name, reader, clientAddr)
//	if err != nil {
//	    // *FileError: first block could not be read
//	}
//	defer session.Close()
//
//	conn.Send(session.CurrentDatagram(), clientAddr)
//
// CurrentDatagram is idempotent, which is what makes retransmission safe.
// Feeding an ACK advances the session:
//
//	switch outcome, err := session.AdvanceOnAck(block); {
//	case err != nil:
//	    // next block could not be read
//	case outcome == file.OutcomeComplete:
//	    // the terminal (short or empty) block was acknowledged
//	case outcome == file.OutcomeContinue:
//	    conn.Send(session.CurrentDatagram(), clientAddr)
//	case outcome == file.OutcomeStaleAck:
//	    // ACK for some other block; nothing changed
//	}
//
// # Block Rules
//
// A payload of exactly limits.BlockSize bytes means more data follows. A
// shorter payload, including an empty one, is the terminal block. An empty
// file is sent as a single empty block, and a file whose length is a multiple
// of the block size ends with an extra empty block.
//
// # Opening Files
//
// DirOpener joins requested names onto a root directory (DefaultRoot when
// unset) and rejects directories. OpenerFunc adapts a plain function, which
// is convenient for serving in-memory content.
//
// # Deterministic Testing
//
// SetTimeProvider injects a clock used for Stats.Elapsed.
//
// # Thread Safety
//
// Sessions are exclusively owned by one serve loop and carry no locks.
package file
