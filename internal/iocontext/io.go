// Package iocontext carries command I/O streams through the context.
// The root command installs the streams once, swapping in io.Discard for
// --quiet and --silent, and every subcommand writes through them so the
// flags work uniformly.
package iocontext

import (
	"context"
	"io"
	"os"
)

// IO holds the streams a command reads from and writes to.
type IO struct {
	Out    io.Writer
	ErrOut io.Writer
	In     io.Reader
}

// DefaultIO returns the process streams. Resolved at call time so tests
// that swap os.Stdout see the replacement.
func DefaultIO() *IO {
	return &IO{
		Out:    os.Stdout,
		ErrOut: os.Stderr,
		In:     os.Stdin,
	}
}

type ioKey struct{}

// WithIO installs streams into the context.
func WithIO(ctx context.Context, streams *IO) context.Context {
	return context.WithValue(ctx, ioKey{}, streams)
}

// GetIO returns the installed streams, or the process streams when none
// were installed.
func GetIO(ctx context.Context) *IO {
	if streams, ok := ctx.Value(ioKey{}).(*IO); ok && streams != nil {
		return streams
	}
	return DefaultIO()
}
