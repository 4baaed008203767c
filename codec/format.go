package codec

import (
	"fmt"
	"strings"

	"github.com/chaos-io/bgswap/apperr"
)

// Format is an output format name as given by the user. JPG and JPEG are
// the same encoder but keep their own file extension.
type Format string

const (
	PNG  Format = "PNG"
	JPG  Format = "JPG"
	JPEG Format = "JPEG"
	WebP Format = "WEBP"
	AVIF Format = "AVIF"
)

// Formats lists the accepted output formats.
var Formats = []Format{PNG, JPG, JPEG, WebP, AVIF}

// ParseFormat resolves s case-insensitively.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToUpper(strings.TrimSpace(s)))
	for _, known := range Formats {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: unknown format %q", apperr.ErrInvalidArguments, s)
}

// Ext is the file extension without the dot.
func (f Format) Ext() string {
	return strings.ToLower(string(f))
}

func (f Format) IsJPEG() bool {
	return f == JPG || f == JPEG
}

// SupportsAlpha reports whether the format can store transparency.
func (f Format) SupportsAlpha() bool {
	return !f.IsJPEG()
}
