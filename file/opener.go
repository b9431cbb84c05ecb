package file

import (
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
)

// DefaultRoot is the directory files are served from when none is configured.
const DefaultRoot = "/var/lib/tftpboot"

// Opener opens a requested file for sequential reading.
type Opener interface {
	Open(name string) (io.ReadCloser, error)
}

// OpenerFunc is a function type that implements Opener.
type OpenerFunc func(name string) (io.ReadCloser, error)

// Open implements Opener for OpenerFunc.
func (f OpenerFunc) Open(name string) (io.ReadCloser, error) {
	return f(name)
}

// DirOpener serves files relative to a root directory. Names are joined onto
// the root as given; no traversal checks are applied.
type DirOpener struct {
	Root string
}

// NewDirOpener returns an opener rooted at root, or DefaultRoot when empty.
func NewDirOpener(root string) *DirOpener {
	if root == "" {
		root = DefaultRoot
	}
	return &DirOpener{Root: root}
}

// Open implements Opener. Errors are returned as *FileError.
func (d *DirOpener) Open(name string) (io.ReadCloser, error) {
	path := filepath.Join(d.Root, name)

	f, err := os.Open(path)
	if err != nil {
		return nil, &FileError{Op: "open", Name: name, Err: err}
	}

	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, &FileError{Op: "open", Name: name, Err: err}
	}
	if info.IsDir() {
		_ = f.Close()
		return nil, &FileError{Op: "open", Name: name, Err: ErrIsDirectory}
	}

	logrus.WithFields(logrus.Fields{
		"function":  "Open",
		"file_name": name,
		"path":      path,
		"file_size": info.Size(),
	}).Debug("Opened file for reading")

	return f, nil
}
