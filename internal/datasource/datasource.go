// Package datasource abstracts where the input bytes of a run come from.
package datasource

import (
	"context"
	"io"
)

// Source opens the input for reading. Name identifies it in logs and errors.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	Name() string
}
