package probe

import (
	"errors"
	"fmt"
)

// Sentinel errors for probe runs.
var (
	ErrUnhealthy = errors.New("service unhealthy")
	ErrInvariant = errors.New("response invariant violated")
	ErrFailures  = errors.New("probe finished with failures")
)

// StatusError reports a non-200 API response.
type StatusError struct {
	Path string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned %d: %s", e.Path, e.Code, e.Body)
}
