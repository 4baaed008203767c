package compose

import "math"

// Luminance weights used for contrast means and grayscale conversion.
const (
	lumR = 0.299
	lumG = 0.587
	lumB = 0.114
)

func luminance(r, g, b float32) float32 {
	return lumR*r + lumG*g + lumB*b
}

// Enhancement holds the tone multipliers. 1.0 leaves an axis untouched.
type Enhancement struct {
	Brightness float64
	Contrast   float64
	Sharpness  float64
}

// NoEnhancement is the identity setting.
var NoEnhancement = Enhancement{Brightness: 1, Contrast: 1, Sharpness: 1}

// Brightness scales colour towards black: 0 gives black.
func Brightness(b *Buffer, factor float64) *Buffer {
	if factor == 1 {
		return b
	}
	f := float32(factor)
	return b.mapRGB(func(r, g, bl float32) (float32, float32, float32) {
		return r * f, g * f, bl * f
	})
}

// Contrast interpolates between a flat gray at the image's mean luminance
// (factor 0) and the image itself (factor 1).
func Contrast(b *Buffer, factor float64) *Buffer {
	if factor == 1 {
		return b
	}
	mean := meanLuminance(b)
	f := float32(factor)
	return b.mapRGB(func(r, g, bl float32) (float32, float32, float32) {
		return mean + f*(r-mean), mean + f*(g-mean), mean + f*(bl-mean)
	})
}

func meanLuminance(b *Buffer) float32 {
	n := len(b.Pix) / 4
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < len(b.Pix); i += 4 {
		sum += float64(luminance(b.Pix[i], b.Pix[i+1], b.Pix[i+2]))
	}
	return float32(math.Round(sum / float64(n)))
}

// smoothKernel is a 3x3 low-pass filter with a heavy centre tap.
var smoothKernel = [3][3]float32{
	{1, 1, 1},
	{1, 5, 1},
	{1, 1, 1},
}

const smoothScale = 13

// Sharpness interpolates between a smoothed copy (factor 0) and the image
// (factor 1); factors above 1 push away from the smoothed copy.
func Sharpness(b *Buffer, factor float64) *Buffer {
	if factor == 1 {
		return b
	}
	smooth := smoothRGB(b)
	f := float32(factor)
	out := &Buffer{Width: b.Width, Height: b.Height, Pix: make([]float32, len(b.Pix))}
	for i := 0; i < len(b.Pix); i += 4 {
		for c := 0; c < 3; c++ {
			s := smooth.Pix[i+c]
			out.Pix[i+c] = s + f*(b.Pix[i+c]-s)
		}
		out.Pix[i+3] = b.Pix[i+3]
	}
	return out
}

func smoothRGB(b *Buffer) *Buffer {
	out := &Buffer{Width: b.Width, Height: b.Height, Pix: make([]float32, len(b.Pix))}
	w, h := b.Width, b.Height
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var acc [3]float32
			for ky := -1; ky <= 1; ky++ {
				sy := clampInt(y+ky, 0, h-1)
				for kx := -1; kx <= 1; kx++ {
					sx := clampInt(x+kx, 0, w-1)
					k := smoothKernel[ky+1][kx+1]
					p := (sy*w + sx) * 4
					acc[0] += b.Pix[p] * k
					acc[1] += b.Pix[p+1] * k
					acc[2] += b.Pix[p+2] * k
				}
			}
			p := (y*w + x) * 4
			out.Pix[p] = acc[0] / smoothScale
			out.Pix[p+1] = acc[1] / smoothScale
			out.Pix[p+2] = acc[2] / smoothScale
			out.Pix[p+3] = b.Pix[p+3]
		}
	}
	return out
}

// Saturation interpolates between the luminance gray of each pixel
// (factor 0) and its colour (factor 1). Larger factors extrapolate.
func Saturation(b *Buffer, factor float64) *Buffer {
	if factor == 1 {
		return b
	}
	f := float32(factor)
	return b.mapRGB(func(r, g, bl float32) (float32, float32, float32) {
		gray := luminance(r, g, bl)
		return gray + f*(r-gray), gray + f*(g-gray), gray + f*(bl-gray)
	})
}
