package attribution

import "errors"

// Sentinel error kinds for this package. These allow errors.Is/As from callers.
var (
	ErrUnsupportedModel   = errors.New("no explainer for model")
	ErrShapeMismatch      = errors.New("attribution shape mismatch")
	ErrBackgroundMismatch = errors.New("background does not match model width")
)
