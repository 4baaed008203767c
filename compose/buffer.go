// Package compose turns a foreground photograph and its segmentation mask
// into a finished picture: background compositing, tone enhancement,
// colour filters, saturation and the final resize.
//
// All colour work is done on Buffer, a float32 RGBA grid on a 0..255 scale.
// Values are allowed to leave that range between stages; they are rounded
// and clamped only once, by Buffer.Quantize.
package compose

import (
	"image"
	"image/color"
	"image/draw"
	"math"
)

// Buffer is a straight (non-premultiplied) RGBA image with float32 samples.
type Buffer struct {
	Width  int
	Height int
	Pix    []float32
}

// NewBuffer returns a zeroed (fully transparent) buffer.
func NewBuffer(width, height int) *Buffer {
	return &Buffer{
		Width:  width,
		Height: height,
		Pix:    make([]float32, width*height*4),
	}
}

// NewUniformBuffer returns a buffer filled with c.
func NewUniformBuffer(width, height int, c color.NRGBA) *Buffer {
	b := NewBuffer(width, height)
	for i := 0; i < len(b.Pix); i += 4 {
		b.Pix[i] = float32(c.R)
		b.Pix[i+1] = float32(c.G)
		b.Pix[i+2] = float32(c.B)
		b.Pix[i+3] = float32(c.A)
	}
	return b
}

// BufferFromImage copies img into a new Buffer whose origin is (0,0).
func BufferFromImage(img image.Image) *Buffer {
	src := toNRGBA(img)
	w, h := src.Rect.Dx(), src.Rect.Dy()
	b := NewBuffer(w, h)
	for y := 0; y < h; y++ {
		row := src.Pix[y*src.Stride : y*src.Stride+w*4]
		dst := b.Pix[y*w*4 : (y+1)*w*4]
		for i, v := range row {
			dst[i] = float32(v)
		}
	}
	return b
}

// Clone returns a deep copy.
func (b *Buffer) Clone() *Buffer {
	c := &Buffer{Width: b.Width, Height: b.Height, Pix: make([]float32, len(b.Pix))}
	copy(c.Pix, b.Pix)
	return c
}

// Bounds reports the buffer size as a rectangle anchored at (0,0).
func (b *Buffer) Bounds() image.Rectangle {
	return image.Rect(0, 0, b.Width, b.Height)
}

// Quantize rounds every sample to the nearest integer and clamps it to
// [0,255].
func (b *Buffer) Quantize() *image.NRGBA {
	out := image.NewNRGBA(b.Bounds())
	for i, v := range b.Pix {
		out.Pix[i] = clamp8(v)
	}
	return out
}

// mapRGB builds a new buffer by applying fn to every pixel's colour
// channels. Alpha is carried over unchanged.
func (b *Buffer) mapRGB(fn func(r, g, b float32) (float32, float32, float32)) *Buffer {
	out := &Buffer{Width: b.Width, Height: b.Height, Pix: make([]float32, len(b.Pix))}
	for i := 0; i < len(b.Pix); i += 4 {
		out.Pix[i], out.Pix[i+1], out.Pix[i+2] = fn(b.Pix[i], b.Pix[i+1], b.Pix[i+2])
		out.Pix[i+3] = b.Pix[i+3]
	}
	return out
}

// Mask is a single channel opacity map on a 0..255 scale.
type Mask struct {
	Width  int
	Height int
	Pix    []float32
}

// MaskFromGray copies a segmentation mask into float form.
func MaskFromGray(g *image.Gray) *Mask {
	w, h := g.Rect.Dx(), g.Rect.Dy()
	m := &Mask{Width: w, Height: h, Pix: make([]float32, w*h)}
	for y := 0; y < h; y++ {
		row := g.Pix[y*g.Stride : y*g.Stride+w]
		for x, v := range row {
			m.Pix[y*w+x] = float32(v)
		}
	}
	return m
}

// Gray quantizes the mask back to 8 bits.
func (m *Mask) Gray() *image.Gray {
	g := image.NewGray(image.Rect(0, 0, m.Width, m.Height))
	for i, v := range m.Pix {
		g.Pix[i] = clamp8(v)
	}
	return g
}

func clamp8(v float32) uint8 {
	r := math.Round(float64(v))
	switch {
	case r <= 0 || math.IsNaN(r):
		return 0
	case r >= 255:
		return 255
	default:
		return uint8(r)
	}
}

func toNRGBA(img image.Image) *image.NRGBA {
	if nrgba, ok := img.(*image.NRGBA); ok && nrgba.Rect.Min == (image.Point{}) {
		return nrgba
	}
	b := img.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Src)
	return dst
}
