package compose

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"

	"github.com/chaos-io/bgswap/apperr"
)

// RGB is an opaque colour.
type RGB struct {
	R, G, B uint8
}

// NRGBA returns the colour with full opacity.
func (c RGB) NRGBA() color.NRGBA {
	return color.NRGBA{R: c.R, G: c.G, B: c.B, A: 255}
}

func (c RGB) String() string {
	return fmt.Sprintf("#%02X%02X%02X", c.R, c.G, c.B)
}

// White is the background used when transparency cannot be encoded.
var White = RGB{255, 255, 255}

var namedColors = map[string]RGB{
	"white":   {255, 255, 255},
	"black":   {0, 0, 0},
	"red":     {255, 0, 0},
	"green":   {0, 255, 0},
	"blue":    {0, 0, 255},
	"yellow":  {255, 255, 0},
	"cyan":    {0, 255, 255},
	"magenta": {255, 0, 255},
}

// NamedColor looks up one of the built-in colour names.
func NamedColor(name string) (RGB, bool) {
	c, ok := namedColors[strings.ToLower(name)]
	return c, ok
}

// ParseColor accepts a colour name, a "#RRGGBB" / "RRGGBB" hex string or an
// "R,G,B" decimal triple.
func ParseColor(s string) (RGB, error) {
	s = strings.TrimSpace(s)
	if c, ok := NamedColor(s); ok {
		return c, nil
	}
	if strings.Contains(s, ",") {
		return parseTriple(s)
	}
	return parseHex(s)
}

func parseTriple(s string) (RGB, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 3 {
		return RGB{}, fmt.Errorf("%w: %q: want R,G,B", apperr.ErrInvalidColorFormat, s)
	}
	var v [3]uint8
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || n < 0 || n > 255 {
			return RGB{}, fmt.Errorf("%w: %q: component %q not in [0,255]", apperr.ErrInvalidColorFormat, s, p)
		}
		v[i] = uint8(n)
	}
	return RGB{v[0], v[1], v[2]}, nil
}

func parseHex(s string) (RGB, error) {
	hex := strings.TrimPrefix(s, "#")
	if len(hex) != 6 {
		return RGB{}, fmt.Errorf("%w: %q", apperr.ErrInvalidColorFormat, s)
	}
	n, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return RGB{}, fmt.Errorf("%w: %q", apperr.ErrInvalidColorFormat, s)
	}
	return RGB{uint8(n >> 16), uint8(n >> 8), uint8(n)}, nil
}
