package compose

import (
	"image"

	"github.com/disintegration/imaging"
)

// Feather softens mask edges with a Gaussian blur of standard deviation
// radius. The mask is rounded to 8 bits first, like any grayscale picture.
func Feather(m *Mask, radius float64) *Mask {
	if radius <= 0 || m.Width == 0 || m.Height == 0 {
		return &Mask{Width: m.Width, Height: m.Height, Pix: append([]float32(nil), m.Pix...)}
	}
	return maskFromNRGBA(imaging.Blur(m.Gray(), radius))
}

// maskFromNRGBA reads the red channel of a grayscale rendering.
func maskFromNRGBA(img *image.NRGBA) *Mask {
	b := img.Bounds()
	m := &Mask{Width: b.Dx(), Height: b.Dy(), Pix: make([]float32, b.Dx()*b.Dy())}
	for y := 0; y < m.Height; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < m.Width; x++ {
			m.Pix[y*m.Width+x] = float32(row[x*4])
		}
	}
	return m
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
