package topface

import "github.com/pkg/errors"

var (
	// ErrNotPlanarQuad is returned when fewer than four distinct top corners can be resolved.
	ErrNotPlanarQuad = errors.New("could not determine a four-cornered top face")
	// ErrDegenerateQuad is returned when the corners do not span a plane, so no normal exists.
	ErrDegenerateQuad = errors.New("degenerate top face: cannot compute normal")
	// ErrInvalidGridSize is returned for a non-positive sample count.
	ErrInvalidGridSize = errors.New("grid size must be at least 1 along each axis")
	// ErrInvalidMargin is returned for a margin outside [0, 0.5).
	ErrInvalidMargin = errors.New("margin must be in [0, 0.5)")
)
