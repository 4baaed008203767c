package compose

import (
	"fmt"
	"image"
	"math"

	"github.com/nfnt/resize"

	"github.com/chaos-io/bgswap/apperr"
)

// ResizeKind selects how a ResizeSpec derives the target size.
type ResizeKind int

const (
	ResizeNone ResizeKind = iota
	ResizeWidth
	ResizeHeight
	ResizeScale
	ResizeBox
)

// ResizeSpec describes the final geometric transform.
type ResizeSpec struct {
	Kind       ResizeKind
	Width      int
	Height     int
	Scale      float64
	KeepAspect bool
}

// NewResizeSpec picks a spec from the command line values. Zero means
// unset. A scale wins over explicit dimensions; two dimensions form a box.
func NewResizeSpec(width, height int, scale float64, keepAspect bool) (ResizeSpec, error) {
	var rs ResizeSpec
	switch {
	case scale != 0:
		rs = ResizeSpec{Kind: ResizeScale, Scale: scale}
	case width != 0 && height != 0:
		rs = ResizeSpec{Kind: ResizeBox, Width: width, Height: height, KeepAspect: keepAspect}
	case width != 0:
		rs = ResizeSpec{Kind: ResizeWidth, Width: width}
	case height != 0:
		rs = ResizeSpec{Kind: ResizeHeight, Height: height}
	}
	return rs, rs.Validate()
}

// Validate checks the parameters independently of any image.
func (r ResizeSpec) Validate() error {
	switch r.Kind {
	case ResizeScale:
		if r.Scale <= 0 || math.IsNaN(r.Scale) || math.IsInf(r.Scale, 0) {
			return fmt.Errorf("%w: %v", apperr.ErrInvalidScale, r.Scale)
		}
	case ResizeWidth:
		if r.Width <= 0 {
			return fmt.Errorf("%w: width %d", apperr.ErrInvalidDimensions, r.Width)
		}
	case ResizeHeight:
		if r.Height <= 0 {
			return fmt.Errorf("%w: height %d", apperr.ErrInvalidDimensions, r.Height)
		}
	case ResizeBox:
		if r.Width <= 0 || r.Height <= 0 {
			return fmt.Errorf("%w: %dx%d", apperr.ErrInvalidDimensions, r.Width, r.Height)
		}
	}
	return nil
}

func (r ResizeSpec) String() string {
	switch r.Kind {
	case ResizeWidth:
		return fmt.Sprintf("width %d", r.Width)
	case ResizeHeight:
		return fmt.Sprintf("height %d", r.Height)
	case ResizeScale:
		return fmt.Sprintf("scale %g", r.Scale)
	case ResizeBox:
		if r.KeepAspect {
			return fmt.Sprintf("fit %dx%d", r.Width, r.Height)
		}
		return fmt.Sprintf("exact %dx%d", r.Width, r.Height)
	default:
		return "none"
	}
}

// Resolve computes the target size for a w x h source.
func (r ResizeSpec) Resolve(w, h int) (int, int, error) {
	if err := r.Validate(); err != nil {
		return 0, 0, err
	}
	if w <= 0 || h <= 0 {
		return 0, 0, fmt.Errorf("%w: source %dx%d", apperr.ErrInvalidDimensions, w, h)
	}
	W, H := float64(w), float64(h)
	switch r.Kind {
	case ResizeWidth:
		return r.Width, roundDim(float64(r.Width) * H / W), nil
	case ResizeHeight:
		return roundDim(float64(r.Height) * W / H), r.Height, nil
	case ResizeScale:
		return roundDim(W * r.Scale), roundDim(H * r.Scale), nil
	case ResizeBox:
		if !r.KeepAspect {
			return r.Width, r.Height, nil
		}
		ratio := math.Min(float64(r.Width)/W, float64(r.Height)/H)
		return roundDim(W * ratio), roundDim(H * ratio), nil
	default:
		return w, h, nil
	}
}

func roundDim(v float64) int {
	return max(1, int(math.Round(v)))
}

// Resize scales img to exactly width x height with a Lanczos3 filter.
func Resize(img image.Image, width, height int) *image.NRGBA {
	b := img.Bounds()
	if b.Dx() == width && b.Dy() == height {
		return toNRGBA(img)
	}
	return toNRGBA(resize.Resize(uint(width), uint(height), img, resize.Lanczos3))
}

// ApplyResize resolves spec against img and resizes it.
func ApplyResize(img image.Image, spec ResizeSpec) (*image.NRGBA, error) {
	b := img.Bounds()
	w, h, err := spec.Resolve(b.Dx(), b.Dy())
	if err != nil {
		return nil, err
	}
	return Resize(img, w, h), nil
}
