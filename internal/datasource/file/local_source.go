// Package file implements a local filesystem-backed data source.
//
// Files are opened with a sequential read-ahead hint where the platform
// supports one.
package file

import (
	"context"
	"fmt"
	"io"
	"os"
)

// Local is a filesystem data source that opens files from the local disk.
type Local struct{ path string }

// Path returns the bound path.
func (l *Local) Path() string { return l.path }

// NewLocal returns a Local bound to path. Each Open returns an independent
// handle.
func NewLocal(path string) *Local { return &Local{path: path} }

// Open opens the file for reading. A canceled ctx short-circuits before the
// filesystem is touched. Errors carry the path and unwrap to the os error.
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	if fi, err := f.Stat(); err == nil && fi.IsDir() {
		_ = f.Close()
		return nil, fmt.Errorf("open %s: is a directory", l.path)
	}
	adviseSequential(f)
	return f, nil
}
