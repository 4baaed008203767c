package compose

import (
	"fmt"
	"sort"
	"strings"

	"github.com/chaos-io/bgswap/apperr"
)

// Filter names a colour preset.
type Filter string

const (
	FilterNone    Filter = ""
	FilterWarm    Filter = "warm"
	FilterCool    Filter = "cool"
	FilterSepia   Filter = "sepia"
	FilterVintage Filter = "vintage"
	FilterVibrant Filter = "vibrant"
	FilterMuted   Filter = "muted"
)

// colorMatrix maps (r,g,b) to m*(r,g,b) + offset.
type colorMatrix struct {
	m      [3][3]float32
	offset [3]float32
}

func diag(r, g, b float32) [3][3]float32 {
	return [3][3]float32{{r, 0, 0}, {0, g, 0}, {0, 0, b}}
}

var filterMatrices = map[Filter]colorMatrix{
	FilterWarm: {m: diag(1.15, 1.08, 0.85)},
	FilterCool: {m: diag(0.85, 0.95, 1.15)},
	FilterSepia: {m: [3][3]float32{
		{0.393, 0.769, 0.189},
		{0.349, 0.686, 0.168},
		{0.272, 0.534, 0.131},
	}},
	FilterVintage: {m: diag(0.9, 0.85, 0.7), offset: [3]float32{30, 20, 10}},
	FilterVibrant: {m: diag(1.12, 1.12, 1.12)},
	// 0.7*c + 0.3*mean(r,g,b)
	FilterMuted: {m: [3][3]float32{
		{0.8, 0.1, 0.1},
		{0.1, 0.8, 0.1},
		{0.1, 0.1, 0.8},
	}},
}

var filterAliases = map[string]Filter{
	"cold": FilterCool,
}

// ParseFilter resolves a preset name, case-insensitively. The empty string
// and "none" mean no filter.
func ParseFilter(name string) (Filter, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" || n == "none" {
		return FilterNone, nil
	}
	if f, ok := filterAliases[n]; ok {
		return f, nil
	}
	if _, ok := filterMatrices[Filter(n)]; ok {
		return Filter(n), nil
	}
	return FilterNone, fmt.Errorf("%w: unknown filter %q (want one of %s)", apperr.ErrInvalidArguments, name, strings.Join(FilterNames(), ", "))
}

// FilterNames lists the accepted preset names, aliases included.
func FilterNames() []string {
	names := make([]string, 0, len(filterMatrices)+len(filterAliases))
	for f := range filterMatrices {
		names = append(names, string(f))
	}
	for a := range filterAliases {
		names = append(names, a)
	}
	sort.Strings(names)
	return names
}

// ApplyFilter recombines the colour channels with the preset's matrix.
func ApplyFilter(b *Buffer, f Filter) *Buffer {
	cm, ok := filterMatrices[f]
	if !ok {
		return b
	}
	return b.mapRGB(func(r, g, bl float32) (float32, float32, float32) {
		var out [3]float32
		for i := 0; i < 3; i++ {
			out[i] = cm.m[i][0]*r + cm.m[i][1]*g + cm.m[i][2]*bl + cm.offset[i]
		}
		return out[0], out[1], out[2]
	})
}
