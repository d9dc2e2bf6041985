// Package source provides the spectrum backends. Every backend is adapted to
// the single Source interface so the polling and UI layers stay
// backend-agnostic.
package source

import (
	"context"
	"errors"

	"spectui/internal/spectra"
)

// Source returns one autospectrum snapshot per antenna per call. Fetch must
// honor ctx cancellation and must be safe to call concurrently for different
// antennas.
type Source interface {
	Fetch(ctx context.Context, antenna string) (*spectra.Spectrum, error)
	Close() error
}

// Fetch failures are antenna-scoped and non-fatal; the UI shows them in place
// of a plot and the next poll tick retries.
var (
	// ErrAntennaNotFound marks a name with no match in the backend layout.
	ErrAntennaNotFound = errors.New("antenna not found")
	// ErrUnavailable marks a transport failure to the backend.
	ErrUnavailable = errors.New("source unavailable")
	// ErrDecode marks a malformed spectrum payload.
	ErrDecode = errors.New("malformed spectrum payload")
	// ErrTimeout marks a fetch that exceeded its deadline.
	ErrTimeout = errors.New("fetch timed out")
)

// Reason maps a fetch error onto the short label shown inside a panel.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAntennaNotFound):
		return "unmatched antenna name"
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return "timed out"
	case errors.Is(err, ErrDecode):
		return "bad payload"
	case errors.Is(err, ErrUnavailable):
		return "source unavailable"
	default:
		return err.Error()
	}
}
