// Package server implements a minimal read-only TFTP server.
//
// # Overview
//
// A Server owns one transport.Conn and serves one transfer at a time:
//
//	conn, err := transport.Listen(":69")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	srv, err := server.New(conn, file.NewDirOpener("/var/lib/tftpboot"), server.DefaultConfig())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	err = srv.Run(ctx)
//
// Run loops over AwaitRequest, which blocks without a timeout until a
// well-formed RRQ arrives, and Serve, which drives the transfer.
//
// # Transfer Loop
//
// Serve sends the first DATA block, then waits up to Config.Timeout
// (DefaultTimeout, 2 s) for each reply:
//
//   - timeout: the identical DATA packet is sent again
//   - packet from another endpoint: logged and ignored
//   - non-ACK from the client: logged and ignored
//   - ACK for the current block: the session advances and the next block
//     is sent, or the transfer completes after the terminal block
//   - ACK for any other block: ignored without sending
//
// Block N+1 is never sent before block N is acknowledged.
//
// # Retransmission
//
// By default retransmission never gives up. A stuck transfer only ends when
// the context is cancelled. Set Config.MaxRetransmits to abandon a transfer
// after that many consecutive unanswered retransmissions. Either
// way the client is never sent an ERROR packet.
//
// # Error Handling
//
// Serve returns *file.FileError when the file cannot be opened or read and
// ErrRetransmitLimit when a cap is hit. Run logs those and moves on to the
// next request. Socket errors and context cancellation end Run.
//
// # Concurrency
//
// The server is strictly sequential. A second client's RRQ arriving during
// a transfer is foreign traffic and is dropped.
package server
