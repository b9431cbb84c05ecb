// Package server implements the sequential TFTP read server loop.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/sirupsen/logrus"

	"github.com/opd-ai/tftpd/file"
	"github.com/opd-ai/tftpd/transport"
)

// ErrRetransmitLimit indicates a transfer was abandoned after the configured
// number of consecutive retransmissions went unacknowledged.
var ErrRetransmitLimit = errors.New("retransmit limit reached")

// Request is an accepted read request.
type Request struct {
	Client   net.Addr
	Filename string
	Mode     string
}

// Server serves one read request at a time over a single connection.
type Server struct {
	conn         transport.Conn
	opener       file.Opener
	config       *Config
	timeProvider transport.TimeProvider
}

// transferStats counts what the serve loop put on the wire.
type transferStats struct {
	sent        int
	retransmits int
	consecutive int
}

// New creates a server. A nil config selects DefaultConfig.
func New(conn transport.Conn, opener file.Opener, config *Config) (*Server, error) {
	if conn == nil {
		return nil, errors.New("connection cannot be nil")
	}
	if opener == nil {
		return nil, errors.New("opener cannot be nil")
	}
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid server config: %w", err)
	}

	return &Server{
		conn:   conn,
		opener: opener,
		config: config,
	}, nil
}

// SetTimeProvider sets the clock handed to each transfer session.
func (s *Server) SetTimeProvider(tp transport.TimeProvider) {
	s.timeProvider = tp
}

// Run alternates AwaitRequest and Serve until ctx is cancelled or the socket
// fails. Failures confined to one transfer are logged and the loop goes on.
// Cancelling ctx closes the connection to unblock a pending receive.
func (s *Server) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		_ = s.conn.Close()
	})
	defer stop()

	logrus.WithFields(logrus.Fields{
		"function":        "Run",
		"local_addr":      s.conn.LocalAddr().String(),
		"timeout":         s.config.Timeout,
		"max_retransmits": s.config.MaxRetransmits,
	}).Info("TFTP server running")

	for {
		req, err := s.AwaitRequest(ctx)
		if err != nil {
			return err
		}

		if err := s.Serve(ctx, req); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			if !isTransferError(err) {
				return err
			}
			logrus.WithFields(logrus.Fields{
				"function":  "Run",
				"file_name": req.Filename,
				"client":    req.Client.String(),
				"error":     err.Error(),
			}).Warn("Failed to serve file")
		}
	}
}

// AwaitRequest blocks until a well-formed RRQ arrives. Anything else is
// logged and discarded.
func (s *Server) AwaitRequest(ctx context.Context) (Request, error) {
	for {
		if err := ctx.Err(); err != nil {
			return Request{}, err
		}

		dg, ok, err := s.conn.Receive(0)
		if err != nil {
			return Request{}, s.receiveError(ctx, err)
		}
		if !ok {
			continue
		}

		logrus.WithFields(logrus.Fields{
			"function": "AwaitRequest",
			"client":   dg.Addr.String(),
			"size":     len(dg.Payload),
		}).Debug("Received packet")

		op, err := transport.DecodeOpcode(dg.Payload)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "AwaitRequest",
				"client":   dg.Addr.String(),
				"error":    err.Error(),
			}).Warn("Discarding malformed packet")
			continue
		}
		if op != transport.OpRRQ {
			logrus.WithFields(logrus.Fields{
				"function": "AwaitRequest",
				"client":   dg.Addr.String(),
				"opcode":   op.String(),
			}).Warn("Discarding packet while waiting for RRQ")
			continue
		}

		rrq, err := transport.DecodeRRQ(dg.Payload)
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"function": "AwaitRequest",
				"client":   dg.Addr.String(),
				"error":    err.Error(),
			}).Warn("Discarding malformed RRQ")
			continue
		}

		return Request{
			Client:   dg.Addr,
			Filename: rrq.Filename,
			Mode:     rrq.Mode,
		}, nil
	}
}

// Serve transfers the requested file to req.Client. It returns nil once the
// terminal block is acknowledged, a *file.FileError when the file cannot be
// opened or read, ErrRetransmitLimit when a configured cap is hit, and a
// *TransferError when sending to or receiving from the client fails. Only a
// closed connection or a cancelled ctx is returned unwrapped. No ERROR packet
// is ever sent.
func (s *Server) Serve(ctx context.Context, req Request) error {
	logrus.WithFields(logrus.Fields{
		"function":  "Serve",
		"file_name": req.Filename,
		"mode":      req.Mode,
		"client":    req.Client.String(),
	}).Info("Transmitting file")

	session, err := s.openSession(req)
	if err != nil {
		return err
	}
	defer session.Close()

	stats := &transferStats{}
	if err := s.transmit(session, stats, false); err != nil {
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		dg, ok, err := s.conn.Receive(s.config.Timeout)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return transferFailure("receive", req.Client, err)
		}

		if !ok {
			if err := s.handleTimeout(session, stats); err != nil {
				return err
			}
			continue
		}

		done, err := s.handleDatagram(session, stats, dg)
		if err != nil {
			return err
		}
		if done {
			s.logCompletion(req, session, stats)
			return nil
		}
	}
}

// openSession opens the requested file and reads its first block.
func (s *Server) openSession(req Request) (*file.Session, error) {
	r, err := s.opener.Open(req.Filename)
	if err != nil {
		var fileErr *file.FileError
		if !errors.As(err, &fileErr) {
			err = &file.FileError{Op: "open", Name: req.Filename, Err: err}
		}
		return nil, err
	}

	session, err := file.NewSession(req.Filename, r, req.Client)
	if err != nil {
		return nil, err
	}

	if s.timeProvider != nil {
		session.SetTimeProvider(s.timeProvider)
	}
	session.OnProgress(func(block uint16, bytesAcked uint64) {
		logrus.WithFields(logrus.Fields{
			"function":    "Serve",
			"file_name":   req.Filename,
			"block":       block,
			"bytes_acked": bytesAcked,
		}).Debug("Block acknowledged")
	})

	return session, nil
}

// handleTimeout resends the current block, or gives up when a cap is set and
// exhausted.
func (s *Server) handleTimeout(session *file.Session, stats *transferStats) error {
	if s.config.MaxRetransmits > 0 && stats.consecutive >= s.config.MaxRetransmits {
		logrus.WithFields(logrus.Fields{
			"function":        "Serve",
			"client":          session.Client().String(),
			"block":           session.BlockNumber(),
			"max_retransmits": s.config.MaxRetransmits,
		}).Warn("Giving up on unacknowledged block")
		return fmt.Errorf("block %d: %w", session.BlockNumber(), ErrRetransmitLimit)
	}

	logrus.WithFields(logrus.Fields{
		"function": "Serve",
		"block":    session.BlockNumber(),
	}).Debug("ACK timeout")

	return s.transmit(session, stats, true)
}

// handleDatagram applies one received datagram to the session. It reports
// done once the terminal block is acknowledged.
func (s *Server) handleDatagram(session *file.Session, stats *transferStats, dg transport.Datagram) (bool, error) {
	if !session.MatchesClient(dg.Addr) {
		logrus.WithFields(logrus.Fields{
			"function": "Serve",
			"from":     dg.Addr.String(),
			"client":   session.Client().String(),
		}).Warn("Packet received from foreign endpoint while transmitting elsewhere")
		return false, nil
	}

	logrus.WithFields(logrus.Fields{
		"function": "Serve",
		"size":     len(dg.Payload),
	}).Debug("Received possible ack")

	op, err := transport.DecodeOpcode(dg.Payload)
	if err == nil && op != transport.OpAck {
		logrus.WithFields(logrus.Fields{
			"function": "Serve",
			"opcode":   op.String(),
		}).Warn("Unknown opcode, expected ACK")
		return false, nil
	}

	var block uint16
	if err == nil {
		block, err = transport.DecodeAck(dg.Payload)
	}
	if err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "Serve",
			"error":    err.Error(),
		}).Warn("Discarding malformed ACK")
		return false, nil
	}

	outcome, err := session.AdvanceOnAck(block)
	if err != nil {
		return false, err
	}

	switch outcome {
	case file.OutcomeComplete:
		return true, nil
	case file.OutcomeContinue:
		stats.consecutive = 0
		return false, s.transmit(session, stats, false)
	default:
		return false, nil
	}
}

// transmit sends the session's current datagram to its client.
func (s *Server) transmit(session *file.Session, stats *transferStats, retransmit bool) error {
	logrus.WithFields(logrus.Fields{
		"function":   "transmit",
		"block":      session.BlockNumber(),
		"retransmit": retransmit,
	}).Debug("Transmitting block")

	if err := s.conn.Send(session.CurrentDatagram(), session.Client()); err != nil {
		logrus.WithFields(logrus.Fields{
			"function": "transmit",
			"client":   session.Client().String(),
			"block":    session.BlockNumber(),
			"error":    err.Error(),
		}).Error("Failed to send DATA packet")
		return transferFailure("send", session.Client(), err)
	}

	stats.sent++
	if retransmit {
		stats.retransmits++
		stats.consecutive++
	}
	return nil
}

func (s *Server) logCompletion(req Request, session *file.Session, stats *transferStats) {
	sessionStats := session.Stats()
	logrus.WithFields(logrus.Fields{
		"function":    "Serve",
		"file_name":   req.Filename,
		"client":      req.Client.String(),
		"blocks":      sessionStats.BlocksAcked,
		"bytes":       sessionStats.BytesAcked,
		"sent":        stats.sent,
		"retransmits": stats.retransmits,
		"elapsed":     sessionStats.Elapsed,
	}).Info("Transmission complete")
}

// receiveError prefers the context error when the receive failed because Run
// closed the connection on cancellation.
func (s *Server) receiveError(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

// isTransferError reports whether err ends only the current transfer.
func isTransferError(err error) bool {
	var fileErr *file.FileError
	var transferErr *TransferError
	return errors.As(err, &fileErr) || errors.As(err, &transferErr) || errors.Is(err, ErrRetransmitLimit)
}
