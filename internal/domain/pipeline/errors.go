package pipeline

import (
	"errors"
	"fmt"
)

// Error kinds. Every failure returned by Pipeline matches exactly one of
// them with errors.Is.
var (
	ErrMapping        = errors.New("mapping failed")
	ErrTransformation = errors.New("transformation failed")
	ErrAttribution    = errors.New("attribution failed")
)

// Other sentinels.
var (
	ErrInvalidPipeline = errors.New("invalid pipeline")
	ErrBatchTooLarge   = errors.New("batch exceeds the maximum size")
)

// Kind tags used in responses, logs and metrics.
const (
	KindMapping        = "mapping"
	KindTransformation = "transformation"
	KindAttribution    = "attribution"
	KindUnknown        = "unknown"
)

// Error is a pipeline failure: the stage that failed, its kind and the cause.
// The message is the cause's message so callers can surface it unchanged.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

// Unwrap exposes both the kind and the cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

func wrap(op string, kind, err error) error {
	return &Error{Op: op, Kind: kind, Err: err}
}

func wrapf(op string, kind error, format string, args ...any) error {
	return wrap(op, kind, fmt.Errorf(format, args...))
}

// KindOf returns the kind tag of err.
func KindOf(err error) string {
	switch {
	case errors.Is(err, ErrMapping):
		return KindMapping
	case errors.Is(err, ErrTransformation):
		return KindTransformation
	case errors.Is(err, ErrAttribution):
		return KindAttribution
	default:
		return KindUnknown
	}
}
