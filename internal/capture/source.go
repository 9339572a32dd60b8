// Package capture provides camera frame sources for the live session.
package capture

import (
	"context"

	"yoga-guide/internal/models"
)

// Source is a camera. Open acquires it, Close releases it.
//
// Current returns the most recent fully decoded frame. Callers must check
// Ready first; acting on an undecoded frame is skipped, not an error.
type Source interface {
	Open(ctx context.Context) error
	Ready() bool
	Current() (models.Frame, bool)
	Close() error
}
