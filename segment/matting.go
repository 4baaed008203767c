package segment

import (
	"image"
	"math"
)

// MattingParams tunes RefineAlpha.
type MattingParams struct {
	// Mask values above ForegroundThreshold are certain foreground, values
	// below BackgroundThreshold certain background.
	ForegroundThreshold uint8
	BackgroundThreshold uint8
	// ErodeSize shrinks both certain regions so the unknown band covers
	// the whole edge.
	ErodeSize int
	// Radius and Epsilon are the guided filter window and regulariser.
	Radius  int
	Epsilon float64
}

var DefaultMatting = MattingParams{
	ForegroundThreshold: 240,
	BackgroundThreshold: 10,
	ErodeSize:           10,
	Radius:              8,
	Epsilon:             1e-3,
}

// RefineAlpha rebuilds the edge band of mask from the picture itself.
//
// A trimap is derived from mask. Certain foreground and background keep
// 255 and 0; the unknown band between them is replaced by a guided filter
// of the mask steered by the picture's luminance, which snaps soft edges
// such as hair to the intensity edges of img.
func RefineAlpha(img image.Image, mask *image.Gray, p MattingParams) *image.Gray {
	b := mask.Bounds()
	w, h := b.Dx(), b.Dy()
	n := w * h

	fg := make([]bool, n)
	bg := make([]bool, n)
	for y := 0; y < h; y++ {
		row := mask.Pix[y*mask.Stride : y*mask.Stride+w]
		for x, v := range row {
			fg[y*w+x] = v > p.ForegroundThreshold
			bg[y*w+x] = v < p.BackgroundThreshold
		}
	}
	r := p.ErodeSize / 2
	fg = erode(fg, w, h, r)
	bg = erode(bg, w, h, r)

	guide := luminancePlane(img, w, h)
	alpha := make([]float64, n)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			alpha[y*w+x] = float64(mask.Pix[y*mask.Stride+x]) / 255
		}
	}
	q := guidedFilter(guide, alpha, w, h, p.Radius, p.Epsilon)

	out := image.NewGray(image.Rect(0, 0, w, h))
	for i := range out.Pix {
		switch {
		case fg[i]:
			out.Pix[i] = 255
		case bg[i]:
			out.Pix[i] = 0
		default:
			out.Pix[i] = uint8(math.Round(math.Min(math.Max(q[i], 0), 1) * 255))
		}
	}
	return out
}

// luminancePlane samples img on a w x h grid anchored at its origin.
func luminancePlane(img image.Image, w, h int) []float64 {
	b := img.Bounds()
	out := make([]float64, w*h)
	for y := 0; y < h && y < b.Dy(); y++ {
		for x := 0; x < w && x < b.Dx(); x++ {
			r, g, bl, _ := img.At(b.Min.X+x, b.Min.Y+y).RGBA()
			out[y*w+x] = (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(bl)) / 0xffff
		}
	}
	return out
}

// erode keeps a pixel only if every pixel within the (2r+1) square around
// it, clipped to the image, is set.
func erode(src []bool, w, h, r int) []bool {
	if r <= 0 {
		return src
	}
	tmp := make([]bool, len(src))
	for y := 0; y < h; y++ {
		erodeLine(src[y*w:(y+1)*w], tmp[y*w:(y+1)*w], r)
	}
	out := make([]bool, len(src))
	col := make([]bool, h)
	res := make([]bool, h)
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			col[y] = tmp[y*w+x]
		}
		erodeLine(col, res, r)
		for y := 0; y < h; y++ {
			out[y*w+x] = res[y]
		}
	}
	return out
}

func erodeLine(src, dst []bool, r int) {
	n := len(src)
	prefix := make([]int, n+1)
	for i, v := range src {
		prefix[i+1] = prefix[i]
		if v {
			prefix[i+1]++
		}
	}
	for i := range src {
		lo, hi := max(i-r, 0), min(i+r, n-1)
		dst[i] = prefix[hi+1]-prefix[lo] == hi-lo+1
	}
}

// guidedFilter is the grayscale guided filter of He et al.
func guidedFilter(guide, src []float64, w, h, r int, eps float64) []float64 {
	n := w * h
	ip := make([]float64, n)
	ii := make([]float64, n)
	for i := 0; i < n; i++ {
		ip[i] = guide[i] * src[i]
		ii[i] = guide[i] * guide[i]
	}
	meanI := boxMean(guide, w, h, r)
	meanP := boxMean(src, w, h, r)
	corrIP := boxMean(ip, w, h, r)
	corrII := boxMean(ii, w, h, r)

	a := make([]float64, n)
	bb := make([]float64, n)
	for i := 0; i < n; i++ {
		varI := corrII[i] - meanI[i]*meanI[i]
		cov := corrIP[i] - meanI[i]*meanP[i]
		a[i] = cov / (varI + eps)
		bb[i] = meanP[i] - a[i]*meanI[i]
	}
	meanA := boxMean(a, w, h, r)
	meanB := boxMean(bb, w, h, r)

	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = meanA[i]*guide[i] + meanB[i]
	}
	return out
}

// boxMean averages src over the (2r+1) square around each pixel, clipped
// to the image, using a summed-area table.
func boxMean(src []float64, w, h, r int) []float64 {
	sat := make([]float64, (w+1)*(h+1))
	for y := 0; y < h; y++ {
		var row float64
		for x := 0; x < w; x++ {
			row += src[y*w+x]
			sat[(y+1)*(w+1)+x+1] = sat[y*(w+1)+x+1] + row
		}
	}
	out := make([]float64, w*h)
	for y := 0; y < h; y++ {
		y0, y1 := max(y-r, 0), min(y+r, h-1)+1
		for x := 0; x < w; x++ {
			x0, x1 := max(x-r, 0), min(x+r, w-1)+1
			sum := sat[y1*(w+1)+x1] - sat[y0*(w+1)+x1] - sat[y1*(w+1)+x0] + sat[y0*(w+1)+x0]
			out[y*w+x] = sum / float64((y1-y0)*(x1-x0))
		}
	}
	return out
}
