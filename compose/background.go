package compose

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/nfnt/resize"

	"github.com/chaos-io/bgswap/apperr"
)

// BackgroundSpec is one of Transparent, SolidColor or ImageFile.
type BackgroundSpec interface {
	isBackground()
	String() string
}

// Transparent leaves pixels outside the mask fully transparent.
type Transparent struct{}

// SolidColor fills the background with one opaque colour.
type SolidColor struct {
	Color RGB
}

// ImageFile stretches a picture over the whole frame.
type ImageFile struct {
	Path string
}

func (Transparent) isBackground() {}
func (SolidColor) isBackground()  {}
func (ImageFile) isBackground()   {}

func (Transparent) String() string  { return "transparent" }
func (s SolidColor) String() string { return "color " + s.Color.String() }
func (s ImageFile) String() string  { return "image " + s.Path }

// ImageLoader is the part of the codec loader a background needs.
type ImageLoader interface {
	Load(ctx context.Context, path string) (image.Image, error)
}

// Background is a BackgroundSpec whose image, if any, has been decoded.
// It is resolved once per run and then sized per foreground.
type Background struct {
	spec  BackgroundSpec
	image image.Image
}

// NewBackground decodes the background picture of an ImageFile spec.
func NewBackground(ctx context.Context, spec BackgroundSpec, loader ImageLoader) (*Background, error) {
	if spec == nil {
		spec = Transparent{}
	}
	bg := &Background{spec: spec}

	file, ok := spec.(ImageFile)
	if !ok {
		return bg, nil
	}
	img, err := loader.Load(ctx, file.Path)
	if err != nil {
		if errors.Is(err, apperr.ErrInputNotFound) {
			return nil, fmt.Errorf("%w: %s", apperr.ErrBackgroundImageNotFound, file.Path)
		}
		return nil, fmt.Errorf("%w: %s: %v", apperr.ErrBackgroundImageDecode, file.Path, err)
	}
	bg.image = img
	return bg, nil
}

// Spec returns the underlying spec.
func (b *Background) Spec() BackgroundSpec {
	return b.spec
}

// Substitutes reports whether Buffer replaces a transparent background with
// white for an output format that cannot carry alpha.
func (b *Background) Substitutes(opaque bool) bool {
	_, transparent := b.spec.(Transparent)
	return transparent && opaque
}

// Buffer renders the background at width x height. When opaque is set a
// transparent background is replaced by white.
func (b *Background) Buffer(width, height int, opaque bool) *Buffer {
	switch spec := b.spec.(type) {
	case SolidColor:
		return NewUniformBuffer(width, height, spec.Color.NRGBA())
	case ImageFile:
		stretched := resize.Resize(uint(width), uint(height), b.image, resize.Lanczos3)
		return BufferFromImage(stretched)
	default:
		if opaque {
			return NewUniformBuffer(width, height, White.NRGBA())
		}
		return NewBuffer(width, height)
	}
}
