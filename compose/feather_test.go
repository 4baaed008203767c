package compose

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeather_ZeroRadiusIsCopy(t *testing.T) {
	t.Parallel()

	m := MaskFromGray(uniformMask(4, 3, 200))
	out := Feather(m, 0)
	assert.Equal(t, m.Pix, out.Pix)

	out.Pix[0] = 1
	assert.Equal(t, float32(200), m.Pix[0], "input must not be shared")
}

func TestFeather_UniformMaskUnchanged(t *testing.T) {
	t.Parallel()

	m := MaskFromGray(uniformMask(9, 9, 180))
	assert.Equal(t, uniformMask(9, 9, 180).Pix, Feather(m, 2).Gray().Pix)
}

func TestFeather_SoftensStepEdge(t *testing.T) {
	t.Parallel()

	g := image.NewGray(image.Rect(0, 0, 20, 1))
	for x := 10; x < 20; x++ {
		g.Pix[x] = 255
	}

	out := Feather(MaskFromGray(g), 2).Gray()
	assert.Equal(t, uint8(0), out.Pix[0])
	assert.Equal(t, uint8(255), out.Pix[19])
	assert.Greater(t, out.Pix[9], uint8(0))
	assert.Less(t, out.Pix[10], uint8(255))
	for x := 1; x < 20; x++ {
		require.GreaterOrEqual(t, out.Pix[x], out.Pix[x-1])
	}
}

func TestFeather_RoundsToBytes(t *testing.T) {
	t.Parallel()

	m := &Mask{Width: 5, Height: 5, Pix: make([]float32, 25)}
	for i := range m.Pix {
		m.Pix[i] = 99.6
	}
	out := Feather(m, 1)
	require.Len(t, out.Pix, 25)
	for _, v := range out.Pix {
		assert.Equal(t, float32(100), v)
	}
}

func TestFeather_SymmetricAroundSpot(t *testing.T) {
	t.Parallel()

	g := image.NewGray(image.Rect(0, 0, 11, 11))
	g.Pix[5*11+5] = 255

	out := Feather(MaskFromGray(g), 1.5).Gray()
	centre := out.Pix[5*11+5]
	assert.Less(t, centre, uint8(255))
	assert.Greater(t, centre, out.Pix[5*11+6])
	assert.Equal(t, out.Pix[5*11+4], out.Pix[5*11+6])
	assert.Equal(t, out.Pix[4*11+5], out.Pix[6*11+5])
	assert.Equal(t, uint8(0), out.Pix[0])
}
