package insight

import "errors"

// ErrLengthMismatch is returned when encoded names and attribution values
// are not aligned.
var ErrLengthMismatch = errors.New("feature names and attributions differ in length")
