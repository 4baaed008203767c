package compose

import (
	"errors"
	"fmt"
	"image"
)

// Settings configures the colour pipeline for one run.
type Settings struct {
	Feather     float64
	Enhancement Enhancement
	Filter      Filter
	Saturation  float64
	MaskOnly    bool
}

// DefaultSettings leaves every stage as a no-op.
func DefaultSettings() Settings {
	return Settings{Enhancement: NoEnhancement, Saturation: 1}
}

// Frame is the value handed from stage to stage. Stages return a new Frame
// and never write into the buffers they receive.
type Frame struct {
	Foreground *Buffer
	Mask       *Mask
	Background *Buffer
	// Image is the composited picture, nil until the blend (or mask) stage.
	Image *Buffer
}

// Stage is one named step of the pipeline.
type Stage struct {
	Name  string
	Apply func(Frame) (Frame, error)
}

var errNoImage = errors.New("no composited image")

// imageStage lifts a colour transform on the composited image into a Stage.
func imageStage(name string, fn func(*Buffer) *Buffer) Stage {
	return Stage{Name: name, Apply: func(f Frame) (Frame, error) {
		if f.Image == nil {
			return f, fmt.Errorf("%s: %w", name, errNoImage)
		}
		f.Image = fn(f.Image)
		return f, nil
	}}
}

// Pipeline applies the fixed stage order
//
//	feather -> blend -> brightness -> contrast -> sharpness -> filter -> saturation
//
// or, in mask-only mode, feather -> mask. Resizing is applied afterwards on
// the quantized result.
type Pipeline struct {
	stages []Stage
}

// NewPipeline builds the stage list for s.
func NewPipeline(s Settings) *Pipeline {
	feather := Stage{Name: "feather", Apply: func(f Frame) (Frame, error) {
		f.Mask = Feather(f.Mask, s.Feather)
		return f, nil
	}}

	if s.MaskOnly {
		return &Pipeline{stages: []Stage{
			feather,
			{Name: "mask", Apply: func(f Frame) (Frame, error) {
				f.Image = MaskImage(f.Mask)
				return f, nil
			}},
		}}
	}

	e := s.Enhancement
	return &Pipeline{stages: []Stage{
		feather,
		{Name: "blend", Apply: func(f Frame) (Frame, error) {
			if f.Background == nil {
				return f, errors.New("blend: no background")
			}
			img, err := Blend(f.Foreground, f.Mask, f.Background)
			if err != nil {
				return f, fmt.Errorf("blend: %w", err)
			}
			f.Image = img
			return f, nil
		}},
		imageStage("brightness", func(b *Buffer) *Buffer { return Brightness(b, e.Brightness) }),
		imageStage("contrast", func(b *Buffer) *Buffer { return Contrast(b, e.Contrast) }),
		imageStage("sharpness", func(b *Buffer) *Buffer { return Sharpness(b, e.Sharpness) }),
		imageStage("filter", func(b *Buffer) *Buffer { return ApplyFilter(b, s.Filter) }),
		imageStage("saturation", func(b *Buffer) *Buffer { return Saturation(b, s.Saturation) }),
	}}
}

// Stages lists the stage names in execution order.
func (p *Pipeline) Stages() []string {
	names := make([]string, len(p.stages))
	for i, s := range p.stages {
		names[i] = s.Name
	}
	return names
}

// Run composites fg, its mask and bg and returns the 8-bit result at the
// foreground's size. bg may be nil in mask-only mode.
func (p *Pipeline) Run(fg image.Image, mask *image.Gray, bg *Buffer) (*image.NRGBA, error) {
	frame := Frame{
		Foreground: BufferFromImage(fg),
		Mask:       MaskFromGray(mask),
		Background: bg,
	}
	if frame.Mask.Width != frame.Foreground.Width || frame.Mask.Height != frame.Foreground.Height {
		return nil, fmt.Errorf("mask %dx%d does not match image %dx%d",
			frame.Mask.Width, frame.Mask.Height, frame.Foreground.Width, frame.Foreground.Height)
	}

	var err error
	for _, stage := range p.stages {
		if frame, err = stage.Apply(frame); err != nil {
			return nil, err
		}
	}
	return frame.Image.Quantize(), nil
}
