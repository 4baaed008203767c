package codec

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/chai2010/webp"
	"github.com/segmentio/ksuid"
	"go.uber.org/zap"

	"github.com/chaos-io/bgswap/apperr"
)

// EncodeOptions are the per-run output settings.
type EncodeOptions struct {
	Format        Format
	Quality       int
	Progressive   bool
	StripMetadata bool
}

// Warnings returns options that do not apply to the format. They are
// ignored by the encoder.
func (o EncodeOptions) Warnings() []error {
	var warns []error
	if o.Progressive && !o.Format.IsJPEG() {
		warns = append(warns, fmt.Errorf("%w: progressive encoding only applies to JPEG, not %s",
			apperr.ErrIncompatibleFormatOption, o.Format))
	}
	return warns
}

// avifSpeed trades encode time for size, 0 slowest to 10 fastest.
const avifSpeed = 6

type Encoder struct {
	runner Runner
	log    *zap.Logger

	jpegtranOnce sync.Once
	jpegtranErr  error
}

type EncoderOption func(*Encoder)

func WithEncoderRunner(r Runner) EncoderOption {
	return func(e *Encoder) { e.runner = r }
}

func NewEncoder(log *zap.Logger, opts ...EncoderOption) *Encoder {
	e := &Encoder{runner: ExecRunner{}, log: log.Named("codec.encoder")}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Encode writes img to w. None of the encoders copy source metadata, so
// StripMetadata only changes what jpegtran is told to keep.
func (e *Encoder) Encode(ctx context.Context, w io.Writer, img image.Image, opts EncodeOptions) error {
	var err error
	switch {
	case opts.Format == PNG:
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		err = enc.Encode(w, img)
	case opts.Format.IsJPEG():
		err = e.encodeJPEG(ctx, w, img, opts)
	case opts.Format == WebP:
		err = webp.Encode(w, img, &webp.Options{Quality: float32(opts.Quality)})
	case opts.Format == AVIF:
		err = e.encodeAVIF(ctx, w, img, opts.Quality)
	default:
		return fmt.Errorf("%w: unknown format %q", apperr.ErrEncode, opts.Format)
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %v", apperr.ErrEncode, opts.Format, err)
	}
	return nil
}

func (e *Encoder) encodeJPEG(ctx context.Context, w io.Writer, img image.Image, opts EncodeOptions) error {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, flatten(img), &jpeg.Options{Quality: opts.Quality}); err != nil {
		return err
	}
	if !opts.Progressive || !e.jpegtranAvailable() {
		_, err := w.Write(buf.Bytes())
		return err
	}

	args := []string{"-progressive", "-optimize"}
	if opts.StripMetadata {
		args = append(args, "-copy", "none")
	}
	out, err := e.runner.Run(ctx, "jpegtran", args, buf.Bytes())
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}

func (e *Encoder) jpegtranAvailable() bool {
	e.jpegtranOnce.Do(func() {
		e.jpegtranErr = e.runner.LookPath("jpegtran")
		if e.jpegtranErr != nil {
			e.log.Warn("jpegtran not found, writing baseline JPEG", zap.Error(e.jpegtranErr))
		}
	})
	return e.jpegtranErr == nil
}

// encodeAVIF goes through avifenc, which only works on files.
func (e *Encoder) encodeAVIF(ctx context.Context, w io.Writer, img image.Image, quality int) error {
	if err := e.runner.LookPath("avifenc"); err != nil {
		return fmt.Errorf("avifenc not available: %w", err)
	}

	id := ksuid.New().String()
	in := filepath.Join(os.TempDir(), "bgswap-"+id+".png")
	out := filepath.Join(os.TempDir(), "bgswap-"+id+".avif")
	defer func() {
		_ = os.Remove(in)
		_ = os.Remove(out)
	}()

	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := enc.Encode(&buf, img); err != nil {
		return err
	}
	if err := os.WriteFile(in, buf.Bytes(), 0o600); err != nil {
		return err
	}

	args := []string{"-q", strconv.Itoa(quality), "-s", strconv.Itoa(avifSpeed), in, out}
	if _, err := e.runner.Run(ctx, "avifenc", args, nil); err != nil {
		return err
	}
	data, err := os.ReadFile(out)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// flatten composites img over white for formats without alpha.
func flatten(img image.Image) image.Image {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, dst.Bounds(), img, b.Min, draw.Over)
	return dst
}
