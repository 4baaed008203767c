package compose

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chaos-io/bgswap/apperr"
)

var defaultBreakpoints = [...]int{640, 768, 1024, 1280, 1920, 2560}

// DefaultBreakpoints returns the standard responsive widths, mobile to 4K.
func DefaultBreakpoints() []int {
	out := make([]int, len(defaultBreakpoints))
	copy(out, defaultBreakpoints[:])
	return out
}

// ParseBreakpoints reads a comma separated list of positive widths.
// Duplicates are dropped; the first occurrence keeps its position.
func ParseBreakpoints(s string) ([]int, error) {
	if strings.TrimSpace(s) == "" {
		return nil, fmt.Errorf("%w: empty list", apperr.ErrInvalidBreakpoints)
	}
	seen := make(map[int]bool)
	var out []int
	for _, part := range strings.Split(s, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("%w: %q is not a positive integer", apperr.ErrInvalidBreakpoints, part)
		}
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out, nil
}

// PlanBreakpoints splits bps into widths to render for a source of the
// given width and widths skipped because they would upscale.
func PlanBreakpoints(width int, bps []int) (emit, skip []int) {
	for _, bp := range bps {
		if bp <= width {
			emit = append(emit, bp)
		} else {
			skip = append(skip, bp)
		}
	}
	return emit, skip
}
