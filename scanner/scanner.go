// Package scanner checks attachment bytes for malware.
package scanner

//go:generate mockgen -source=scanner.go -destination=mock_scanner.go -package=scanner

import (
	"context"
	"errors"
	"io"

	"civic311-be/models"
)

// ErrUnavailable means no verdict could be obtained; the attachment stays
// pending.
var ErrUnavailable = errors.New("scanner unavailable")

type Verdict struct {
	State  models.ScanState
	Detail string
}

type Scanner interface {
	Scan(ctx context.Context, r io.Reader) (Verdict, error)
}
