package file

import (
	"errors"
	"fmt"
)

// ErrIsDirectory indicates the requested name resolves to a directory.
var ErrIsDirectory = errors.New("is a directory")

// FileError reports a failure to open, read or close a served file. It aborts
// the current transfer only.
type FileError struct {
	Op   string // "open", "read" or "close"
	Name string // requested file name
	Err  error  // underlying error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("tftp %s %s: %v", e.Op, e.Name, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}
