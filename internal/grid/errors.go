package grid

import "errors"

// Failure kinds surfaced by header readers, the window resolver and the
// extension dispatch. All of them are deterministic for a given input, callers
// should never retry.
var (
	// a header line is missing, out of order or fails numeric parse
	ErrMalformedHeader = errors.New("malformed header")

	// the raster carries a sheared or rotated geotransform
	ErrUnsupportedTransform = errors.New("unsupported geotransform")

	// no corner of the requested window lies inside the dataset extent
	ErrOutOfBounds = errors.New("window out of dataset bounds")

	// the input file extension maps to no known format
	ErrUnrecognizedExtension = errors.New("unrecognized file extension")

	// the requested window has inverted bounds
	ErrInvalidRequest = errors.New("invalid window request")
)
