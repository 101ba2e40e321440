package relaytrace

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidGeometry = errors.New("invalid optical geometry")
	ErrZeroFocalLength = fmt.Errorf("%w: zero focal length", ErrInvalidGeometry)
	ErrInvalidBins     = errors.New("invalid bin specification")
	ErrInvalidConfig   = errors.New("invalid config")
)
