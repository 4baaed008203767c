package segment

import (
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToTensor(t *testing.T) {
	t.Parallel()

	img := image.NewNRGBA(image.Rect(0, 0, 30, 10))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = 200, 100, 0, 255
	}
	p := Preset{Size: 8, Mean: imagenetMean, Std: imagenetStd}

	out := toTensor(img, p)
	require.Len(t, out, 3*8*8)

	// Samples are divided by the brightest value, 200.
	plane := 64
	assert.InDelta(t, (1-0.485)/0.229, out[0], 0.05)
	assert.InDelta(t, (0.5-0.456)/0.224, out[plane], 0.05)
	assert.InDelta(t, (0-0.406)/0.225, out[2*plane+63], 0.05)
}

func TestMaskFromOutput(t *testing.T) {
	t.Parallel()

	out := []float32{-2, 0, 2, 6}
	mask, err := maskFromOutput(out, 2, false)
	require.NoError(t, err)
	assert.Equal(t, []uint8{0, 64, 128, 255}, mask.Pix)

	sig, err := maskFromOutput([]float32{-20, 20, 0, 0}, 2, true)
	require.NoError(t, err)
	assert.Equal(t, uint8(0), sig.Pix[0])
	assert.Equal(t, uint8(255), sig.Pix[1])
	assert.InDelta(t, 127.5, float64(sig.Pix[2]), 1)

	flat, err := maskFromOutput([]float32{3, 3, 3, 3}, 2, false)
	require.NoError(t, err)
	assert.Equal(t, []uint8{0, 0, 0, 0}, flat.Pix)

	_, err = maskFromOutput([]float32{1, 2}, 2, false)
	assert.Error(t, err)
}

func TestFitMask(t *testing.T) {
	t.Parallel()

	m := image.NewGray(image.Rect(0, 0, 4, 4))
	assert.Same(t, m, fitMask(m, 4, 4))

	for i := range m.Pix {
		m.Pix[i] = 200
	}
	big := fitMask(m, 9, 3)
	assert.Equal(t, image.Rect(0, 0, 9, 3), big.Bounds())
	assert.InDelta(t, 200, float64(big.GrayAt(4, 1).Y), 1)
}
