package regression

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrFeatureMismatch = errors.New("feature count mismatch")
	ErrInvalidTree     = errors.New("invalid tree")
	ErrInvalidModel    = errors.New("invalid model")
)
