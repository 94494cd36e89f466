package preprocess

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// numeric converts a decoded JSON value into a float64. Numeric strings are
// accepted the same way a dataframe column of objects would coerce them.
func numeric(v any) (float64, error) {
	var (
		f   float64
		err error
	)
	switch x := v.(type) {
	case nil:
		return 0, fmt.Errorf("%w: missing value", ErrInvalidValue)
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int32:
		f = float64(x)
	case int64:
		f = float64(x)
	case json.Number:
		f, err = x.Float64()
	case string:
		f, err = strconv.ParseFloat(strings.TrimSpace(x), 64)
	case bool:
		if x {
			f = 1
		}
	default:
		return 0, fmt.Errorf("%w: unsupported type %T", ErrInvalidValue, v)
	}
	if err != nil {
		return 0, fmt.Errorf("%w: could not convert %q to float", ErrInvalidValue, fmt.Sprint(v))
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("%w: non-finite value %v", ErrInvalidValue, f)
	}
	return f, nil
}

// category converts a decoded JSON value into the string form used to match
// fitted categories.
func category(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", fmt.Errorf("%w: missing value", ErrInvalidValue)
	case string:
		return x, nil
	case json.Number:
		return x.String(), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case bool:
		return strconv.FormatBool(x), nil
	default:
		return "", fmt.Errorf("%w: unsupported type %T", ErrInvalidValue, v)
	}
}
