package compose

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chaos-io/bgswap/apperr"
)

func TestApplyFilter(t *testing.T) {
	t.Parallel()

	src := BufferFromImage(uniformImage(1, 1, color.NRGBA{100, 100, 100, 255}))

	tests := []struct {
		filter Filter
		want   []uint8
	}{
		{filter: FilterNone, want: []uint8{100, 100, 100, 255}},
		{filter: FilterWarm, want: []uint8{115, 108, 85, 255}},
		{filter: FilterCool, want: []uint8{85, 95, 115, 255}},
		{filter: FilterSepia, want: []uint8{135, 120, 94, 255}},
		{filter: FilterVintage, want: []uint8{120, 105, 80, 255}},
		{filter: FilterVibrant, want: []uint8{112, 112, 112, 255}},
		{filter: FilterMuted, want: []uint8{100, 100, 100, 255}},
	}

	for _, tt := range tests {
		t.Run(string(tt.filter), func(t *testing.T) {
			t.Parallel()
			got := ApplyFilter(src, tt.filter).Quantize()
			assert.Equal(t, tt.want, got.Pix)
		})
	}
}

func TestApplyFilter_Muted(t *testing.T) {
	t.Parallel()

	src := BufferFromImage(uniformImage(1, 1, color.NRGBA{200, 50, 50, 255}))
	got := ApplyFilter(src, FilterMuted).Quantize()
	// 0.7*c + 0.3*100
	assert.Equal(t, []uint8{170, 65, 65, 255}, got.Pix)
}

func TestParseFilter(t *testing.T) {
	t.Parallel()

	for in, want := range map[string]Filter{
		"":        FilterNone,
		"none":    FilterNone,
		"warm":    FilterWarm,
		"COOL":    FilterCool,
		"cold":    FilterCool,
		"sepia":   FilterSepia,
		"vintage": FilterVintage,
		"vibrant": FilterVibrant,
		"muted":   FilterMuted,
	} {
		got, err := ParseFilter(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseFilter("lomo")
	assert.ErrorIs(t, err, apperr.ErrInvalidArguments)
}

func TestFilterNames(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"cold", "cool", "muted", "sepia", "vibrant", "vintage", "warm"}, FilterNames())
}
