// Package store provides the positional record store interface with Google
// Sheets and SQLite implementations.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/rcliao/charabot/internal/model"
)

var (
	// ErrRowNotFound is returned when an ordinal points past the last row.
	ErrRowNotFound = errors.New("row not found")
	// ErrInvalidRange is returned for malformed A1 column ranges or ordinals.
	ErrInvalidRange = errors.New("invalid range")
)

// RemoteError wraps a failed call to the backing service.
type RemoteError struct {
	Op  string
	Err error
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RemoteError) Unwrap() error {
	return e.Err
}

// Store defines the tabular record store. Ordinals are 1-based row
// positions and include header rows.
type Store interface {
	// FetchRows returns every row, trimmed to the given A1 column range
	// (for example "A:K" or "A:A").
	FetchRows(ctx context.Context, columns string) ([]model.Row, error)

	// AppendRow adds a row after the last one.
	AppendRow(ctx context.Context, values []string) error

	// UpdateRow overwrites the row at ordinal starting from column A.
	UpdateRow(ctx context.Context, ordinal int, values []string) error

	// DeleteRow removes the row at ordinal; later rows shift up by one.
	DeleteRow(ctx context.Context, ordinal int) error

	// Close releases the store.
	Close() error
}
