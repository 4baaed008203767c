package segment

import (
	"fmt"
	"image"
	"math"

	"golang.org/x/image/draw"
)

// toTensor scales img to the preset's square input and returns the
// normalised planes in NCHW order.
func toTensor(img image.Image, p Preset) []float32 {
	size := p.Size
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)

	// Scale by the brightest sample rather than 255.
	var peak uint8
	for i := 0; i < len(dst.Pix); i += 4 {
		peak = max(peak, dst.Pix[i], dst.Pix[i+1], dst.Pix[i+2])
	}
	scale := float32(math.Max(float64(peak), 1e-6))

	plane := size * size
	out := make([]float32, 3*plane)
	for i := 0; i < plane; i++ {
		for c := 0; c < 3; c++ {
			v := float32(dst.Pix[i*4+c]) / scale
			out[c*plane+i] = (v - p.Mean[c]) / p.Std[c]
		}
	}
	return out
}

// maskFromOutput turns the first output plane into a size x size mask,
// stretched so its minimum maps to 0 and its maximum to 255.
func maskFromOutput(out []float32, size int, sigmoid bool) (*image.Gray, error) {
	plane := size * size
	if len(out) < plane {
		return nil, fmt.Errorf("model output has %d values, want at least %d", len(out), plane)
	}

	vals := make([]float64, plane)
	lo, hi := math.Inf(1), math.Inf(-1)
	for i := range vals {
		v := float64(out[i])
		if sigmoid {
			v = 1 / (1 + math.Exp(-v))
		}
		vals[i] = v
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	mask := image.NewGray(image.Rect(0, 0, size, size))
	span := hi - lo
	if span <= 1e-12 {
		return mask, nil
	}
	for i, v := range vals {
		mask.Pix[i] = uint8(math.Round((v - lo) / span * 255))
	}
	return mask, nil
}
