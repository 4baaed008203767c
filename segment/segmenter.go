// Package segment computes foreground masks.
//
// A Segmenter wraps one inference backend: a rembg HTTP server or a local
// ONNX Runtime session. Both return a mask with the dimensions of the
// input picture, 255 meaning foreground.
package segment

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/nfnt/resize"
	"go.uber.org/zap"

	"github.com/chaos-io/bgswap/apperr"
)

type Segmenter interface {
	Segment(ctx context.Context, img image.Image, opts Options) (*image.Gray, error)
	Close() error
}

// Options are passed through to the backend on every call.
type Options struct {
	Model        string
	AlphaMatting bool
}

type Backend string

const (
	BackendRemote Backend = "remote"
	BackendONNX   Backend = "onnx"
)

// Config selects and configures a backend.
type Config struct {
	Backend Backend

	// remote
	RemoteURL string
	Timeout   time.Duration

	// onnx
	ModelDir    string
	ONNXLibrary string
}

// New returns the Segmenter for cfg.Backend.
func New(cfg Config, log *zap.Logger) (Segmenter, error) {
	switch cfg.Backend {
	case BackendRemote:
		return NewRemote(cfg.RemoteURL, log, WithTimeout(cfg.Timeout)), nil
	case BackendONNX:
		return NewONNX(cfg.ModelDir, cfg.ONNXLibrary, log)
	default:
		return nil, fmt.Errorf("%w: unknown backend %q", apperr.ErrSegmentation, cfg.Backend)
	}
}

// fitMask resizes mask to w x h unless it already matches.
func fitMask(mask *image.Gray, w, h int) *image.Gray {
	b := mask.Bounds()
	if b.Dx() == w && b.Dy() == h && b.Min == (image.Point{}) {
		return mask
	}
	resized := resize.Resize(uint(w), uint(h), mask, resize.Lanczos3)
	if g, ok := resized.(*image.Gray); ok {
		return g
	}
	return toGray(resized)
}

// toGray converts img to an origin-anchored *image.Gray by luminance.
func toGray(img image.Image) *image.Gray {
	b := img.Bounds()
	g := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			g.Set(x, y, img.At(b.Min.X+x, b.Min.Y+y))
		}
	}
	return g
}
