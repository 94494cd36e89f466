package preprocess

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrInvalidStep     = errors.New("invalid transformer step")
	ErrEmptyBatch      = errors.New("empty batch")
	ErrMissingColumn   = errors.New("columns are missing")
	ErrUnknownCategory = errors.New("found unknown categories")
	ErrInvalidValue    = errors.New("invalid value")
)
