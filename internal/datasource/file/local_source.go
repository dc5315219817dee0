// Package file implements datasource.Source for local files and stdin.
package file

import (
	"context"
	"fmt"
	"io"
	"os"

	"jsonload/internal/datasource"
)

// Stdin is the path that selects standard input.
const Stdin = "-"

// Local reads one file from the local disk.
type Local struct{ path string }

// stdin reads the process's standard input. It is not closed by Open's caller.
type stdin struct{ r io.Reader }

// New returns the Source for path: standard input for "-", otherwise the
// file at path.
func New(path string) datasource.Source {
	if path == Stdin {
		return stdin{r: os.Stdin}
	}
	return NewLocal(path)
}

// NewLocal returns a Source bound to the file at path.
func NewLocal(path string) *Local { return &Local{path: path} }

// Name returns the file path.
func (l *Local) Name() string { return l.path }

// Open opens the file. A context that is already done returns its error
// without touching the filesystem. Directories are rejected. Errors keep the
// underlying cause for errors.Is (e.g. os.ErrNotExist).
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat input: %w", err)
	}
	if st.IsDir() {
		f.Close()
		return nil, fmt.Errorf("open input: %s is a directory", l.path)
	}
	return f, nil
}

func (stdin) Name() string { return "stdin" }

func (s stdin) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return io.NopCloser(s.r), nil
}
