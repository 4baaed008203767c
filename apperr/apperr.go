// Package apperr defines the error kinds reported by bgswap.
//
// Call sites wrap one of the sentinels below with context, for example
//
//	fmt.Errorf("%w: %q", apperr.ErrInvalidColorFormat, s)
//
// and callers match them with errors.Is.
package apperr

import "errors"

// Per-file conditions. The batch driver logs these and moves on.
var (
	ErrInputNotFound           = errors.New("input not found")
	ErrUnsupportedInputFormat  = errors.New("unsupported input format")
	ErrInputDecode             = errors.New("input decode error")
	ErrRawDecode               = errors.New("raw decode error")
	ErrSegmentation            = errors.New("segmentation failure")
	ErrBackgroundImageNotFound = errors.New("background image not found")
	ErrBackgroundImageDecode   = errors.New("background image decode error")
	ErrEncode                  = errors.New("encode error")
	ErrOutputWrite             = errors.New("output write error")
)

// Invocation errors. These are fatal before any file is processed.
var (
	ErrInvalidArguments   = errors.New("invalid arguments")
	ErrInvalidColorFormat = errors.New("invalid color format")
	ErrInvalidScale       = errors.New("invalid scale")
	ErrInvalidDimensions  = errors.New("invalid dimensions")
	ErrInvalidBreakpoints = errors.New("invalid breakpoints")
)

// ErrIncompatibleFormatOption marks an option that does not apply to the
// chosen output format. It is only ever logged as a warning.
var ErrIncompatibleFormatOption = errors.New("incompatible format option")

var validation = []error{
	ErrInvalidArguments,
	ErrInvalidColorFormat,
	ErrInvalidScale,
	ErrInvalidDimensions,
	ErrInvalidBreakpoints,
}

// IsValidation reports whether err describes a malformed invocation.
func IsValidation(err error) bool {
	for _, target := range validation {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
