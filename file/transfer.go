// Package file implements the per-client transfer state machine and the
// file access collaborator of the TFTP server.
//
// Example:
//
//	r, err := file.NewDirOpener("/var/lib/tftpboot").Open("pxelinux.0")
//	if err != nil {
//	    return err
//	}
//	session, err := file.NewSession("pxelinux.0", r, client)
//	if err != nil {
//	    return err
//	}
//	defer session.Close()
//	conn.Send(session.CurrentDatagram(), client)
package file

import (
	"errors"
	"io"
	"net"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/tftpd/limits"
	"github.com/opd-ai/tftpd/transport"
)

// Outcome is the result of feeding an ACK into a Session.
type Outcome uint8

const (
	// OutcomeContinue means the acknowledged block was full and the next
	// block is now current.
	OutcomeContinue Outcome = iota
	// OutcomeComplete means the acknowledged block was the terminal block.
	OutcomeComplete
	// OutcomeStaleAck means the ACK named a block other than the current one;
	// the session is unchanged.
	OutcomeStaleAck
	// OutcomeFailed accompanies a read error. The acknowledged block stays
	// current and is not counted.
	OutcomeFailed
)

// String returns a readable name for the outcome.
func (o Outcome) String() string {
	switch o {
	case OutcomeContinue:
		return "continue"
	case OutcomeComplete:
		return "complete"
	case OutcomeStaleAck:
		return "stale-ack"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Stats summarizes the acknowledged part of a transfer.
type Stats struct {
	BlocksAcked uint64
	BytesAcked  uint64
	Elapsed     time.Duration
}

// Session is the state of one read transfer to one client. It holds the block
// awaiting acknowledgment, not the next one. A Session is owned by a single
// serve loop and is not safe for concurrent use.
type Session struct {
	name   string
	reader io.ReadCloser
	client net.Addr

	block uint16
	data  []byte

	blocksAcked uint64
	bytesAcked  uint64
	startTime   time.Time
	closed      bool

	timeProvider     transport.TimeProvider
	progressCallback func(block uint16, bytesAcked uint64)
}

// NewSession reads the first block from r and returns a session positioned at
// block 1. The session takes ownership of r; on error r is closed.
func NewSession(name string, r io.ReadCloser, client net.Addr) (*Session, error) {
	s := &Session{
		name:         name,
		reader:       r,
		client:       client,
		block:        1,
		timeProvider: transport.RealTimeProvider{},
	}
	s.startTime = s.timeProvider.Now()

	if err := s.readBlock(); err != nil {
		_ = s.Close()
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"function":   "NewSession",
		"file_name":  name,
		"client":     addrString(client),
		"first_size": len(s.data),
	}).Debug("Transfer session created")

	return s, nil
}

// SetTimeProvider sets a custom time provider for deterministic testing.
// The session start time is reset to the new provider's current time.
func (s *Session) SetTimeProvider(tp transport.TimeProvider) {
	s.timeProvider = tp
	s.startTime = tp.Now()
}

// OnProgress sets a callback invoked after every accepted ACK with the
// acknowledged block number and the total bytes acknowledged so far.
func (s *Session) OnProgress(callback func(block uint16, bytesAcked uint64)) {
	s.progressCallback = callback
}

// CurrentDatagram encodes the block awaiting acknowledgment. Calling it
// repeatedly without an intervening AdvanceOnAck yields identical bytes.
func (s *Session) CurrentDatagram() []byte {
	return transport.EncodeData(s.block, s.data)
}

// AdvanceOnAck feeds an acknowledged block number into the session.
func (s *Session) AdvanceOnAck(acked uint16) (Outcome, error) {
	if acked != s.block {
		logrus.WithFields(logrus.Fields{
			"function":  "AdvanceOnAck",
			"file_name": s.name,
			"acked":     acked,
			"expected":  s.block,
		}).Warn("Unknown ack block number")
		return OutcomeStaleAck, nil
	}

	ackedLen := len(s.data)
	if limits.IsTerminalBlock(ackedLen) {
		s.recordAck(acked, ackedLen)
		return OutcomeComplete, nil
	}

	if err := s.readBlock(); err != nil {
		return OutcomeFailed, err
	}
	s.recordAck(acked, ackedLen)
	s.block++

	return OutcomeContinue, nil
}

func (s *Session) recordAck(block uint16, n int) {
	s.blocksAcked++
	s.bytesAcked += uint64(n)
	if s.progressCallback != nil {
		s.progressCallback(block, s.bytesAcked)
	}
}

// MatchesClient reports whether addr is the endpoint this session serves.
func (s *Session) MatchesClient(addr net.Addr) bool {
	return transport.SameEndpoint(s.client, addr)
}

// Client returns the endpoint captured at construction.
func (s *Session) Client() net.Addr {
	return s.client
}

// BlockNumber returns the number of the block awaiting acknowledgment.
func (s *Session) BlockNumber() uint16 {
	return s.block
}

// CurrentData returns a copy of the payload awaiting acknowledgment.
func (s *Session) CurrentData() []byte {
	out := make([]byte, len(s.data))
	copy(out, s.data)
	return out
}

// Stats returns the acknowledged totals and the time since the session started.
func (s *Session) Stats() Stats {
	return Stats{
		BlocksAcked: s.blocksAcked,
		BytesAcked:  s.bytesAcked,
		Elapsed:     s.timeProvider.Since(s.startTime),
	}
}

// Close releases the underlying reader. It is safe to call more than once.
func (s *Session) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	if err := s.reader.Close(); err != nil {
		logrus.WithFields(logrus.Fields{
			"function":  "Close",
			"file_name": s.name,
			"error":     err.Error(),
		}).Warn("Failed to close file handle")
		return &FileError{Op: "close", Name: s.name, Err: err}
	}
	return nil
}

// readBlock replaces the current payload with the next up-to-BlockSize bytes.
// A short read at end of file is a terminal block, not an error.
func (s *Session) readBlock() error {
	buf := make([]byte, limits.BlockSize)
	n, err := io.ReadFull(s.reader, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		logrus.WithFields(logrus.Fields{
			"function":  "readBlock",
			"file_name": s.name,
			"block":     s.block,
			"error":     err.Error(),
		}).Error("Failed to read file block")
		return &FileError{Op: "read", Name: s.name, Err: err}
	}
	s.data = buf[:n]
	return nil
}

func addrString(addr net.Addr) string {
	if addr == nil {
		return "<nil>"
	}
	return addr.String()
}
