// Command tftpd serves files from a directory over TFTP, read requests only.
//
// Usage:
//
//	tftpd [options]
//
// Options:
//
//	-port             UDP port to listen on (default 69)
//	-address          Address to bind (default: all interfaces)
//	-root             Directory files are served from (default /var/lib/tftpboot)
//	-timeout          Wait for an ACK before retransmitting (default 2s)
//	-max-retransmits  Consecutive retransmissions before abandoning a
//	                  transfer, 0 to retransmit until stopped (default 0)
//	-log-level        debug, info, warn or error (default info)
//	-log-format       text or json (default text)
//	-help             Show help message
//
// The server handles one transfer at a time and stops cleanly on SIGINT or
// SIGTERM.
package main
