package server

import (
	"errors"
	"fmt"
	"net"

	"github.com/opd-ai/tftpd/transport"
)

// TransferError is a socket failure that ends one transfer but leaves the
// server running, such as a send the kernel refuses for the client address.
type TransferError struct {
	Op     string   // "send" or "receive"
	Client net.Addr // client of the abandoned transfer
	Err    error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("transfer to %s: %s: %v", e.Client, e.Op, e.Err)
}

func (e *TransferError) Unwrap() error {
	return e.Err
}

// transferFailure scopes a socket error to the current transfer. A closed
// connection stays fatal.
func transferFailure(op string, client net.Addr, err error) error {
	if errors.Is(err, transport.ErrConnectionClosed) {
		return err
	}
	return &TransferError{Op: op, Client: client, Err: err}
}
