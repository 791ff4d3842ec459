package core

import "errors"

// Input errors abort a conversion before anything is written. Callers
// check them with errors.Is to tell bad input from internal failures.
var (
	ErrEmptyInput       = errors.New("input is empty")
	ErrMalformedInput   = errors.New("input is malformed")
	ErrMissingColumns   = errors.New("missing required columns")
	ErrUnsupportedInput = errors.New("unsupported input type")
)

// IsInputError reports whether err was caused by the submitted input
// rather than by the converter itself.
func IsInputError(err error) bool {
	return errors.Is(err, ErrEmptyInput) ||
		errors.Is(err, ErrMalformedInput) ||
		errors.Is(err, ErrMissingColumns) ||
		errors.Is(err, ErrUnsupportedInput)
}
