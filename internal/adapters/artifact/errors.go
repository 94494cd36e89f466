package artifact

import "errors"

// Sentinel errors for artifact loading.
var (
	ErrRead            = errors.New("artifact read failed")
	ErrDecode          = errors.New("artifact decode failed")
	ErrUnsupportedKind = errors.New("unsupported model kind")
)
