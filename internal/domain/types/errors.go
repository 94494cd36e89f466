package types

import "errors"

// ErrNotReady is returned by the service before its pipeline is loaded.
var ErrNotReady = errors.New("service not started")
