package compose

import (
	"fmt"
)

// Blend places fg over bg using mask as the foreground opacity.
//
// Colours are composited with the straight-alpha "over" operator. Against an
// opaque background this reduces to fg*m + bg*(1-m) per channel; against a
// transparent one the colour is the foreground and the alpha is the mask.
// The foreground's own alpha channel is ignored.
func Blend(fg *Buffer, mask *Mask, bg *Buffer) (*Buffer, error) {
	if fg.Width != mask.Width || fg.Height != mask.Height {
		return nil, fmt.Errorf("mask %dx%d does not match image %dx%d", mask.Width, mask.Height, fg.Width, fg.Height)
	}
	if bg.Width != fg.Width || bg.Height != fg.Height {
		return nil, fmt.Errorf("background %dx%d does not match image %dx%d", bg.Width, bg.Height, fg.Width, fg.Height)
	}

	out := NewBuffer(fg.Width, fg.Height)
	for i, m := range mask.Pix {
		p := i * 4
		fa := m / 255
		ba := bg.Pix[p+3] / 255
		outA := fa + ba*(1-fa)
		if outA <= 0 {
			continue
		}
		for c := 0; c < 3; c++ {
			out.Pix[p+c] = (fg.Pix[p+c]*fa + bg.Pix[p+c]*ba*(1-fa)) / outA
		}
		out.Pix[p+3] = outA * 255
	}
	return out, nil
}

// MaskImage renders a mask as an opaque grayscale picture.
func MaskImage(mask *Mask) *Buffer {
	out := NewBuffer(mask.Width, mask.Height)
	for i, m := range mask.Pix {
		p := i * 4
		out.Pix[p], out.Pix[p+1], out.Pix[p+2], out.Pix[p+3] = m, m, m, 255
	}
	return out
}
