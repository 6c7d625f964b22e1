package sim

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig is wrapped by every pre-run validation failure.
	ErrInvalidConfig = errors.New("invalid MCRF configuration")

	// ErrDegeneratePosterior means the combined distribution had no usable mass.
	ErrDegeneratePosterior = errors.New("degenerate posterior distribution")

	// ErrSamplingFailed means no category could be drawn from a distribution.
	ErrSamplingFailed = errors.New("category sampling failed")
)

// RealizationError aborts one realization; the other realizations keep running.
type RealizationError struct {
	Index int // realization index
	Cell  int // linear index of the cell being simulated, -1 when not cell-specific
	Err   error
}

func (e *RealizationError) Error() string {
	if e.Cell < 0 {
		return fmt.Sprintf("realization %d: %v", e.Index, e.Err)
	}
	return fmt.Sprintf("realization %d, cell %d: %v", e.Index, e.Cell, e.Err)
}

func (e *RealizationError) Unwrap() error { return e.Err }
