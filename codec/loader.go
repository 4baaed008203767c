// Package codec reads input pictures and writes finished ones.
//
// Decoding covers the formats registered with the image package (PNG,
// JPEG, GIF, BMP, TIFF, WebP), camera RAW files through dcraw, and http(s)
// URLs. Encoding covers PNG, JPEG, WebP and AVIF.
package codec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	_ "golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/chaos-io/bgswap/apperr"
	"github.com/chaos-io/bgswap/util"
	nhttp "github.com/chaos-io/bgswap/util/http"
)

var rawExtensions = map[string]bool{
	".cr3": true,
	".cr2": true,
	".nef": true,
	".arw": true,
	".dng": true,
}

// IsRaw reports whether path has a camera RAW extension.
func IsRaw(path string) bool {
	return rawExtensions[strings.ToLower(filepath.Ext(path))]
}

type Loader struct {
	runner Runner
	client nhttp.IClient
	log    *zap.Logger
}

type LoaderOption func(*Loader)

func WithLoaderRunner(r Runner) LoaderOption {
	return func(l *Loader) { l.runner = r }
}

func WithHTTPClient(c nhttp.IClient) LoaderOption {
	return func(l *Loader) { l.client = c }
}

func NewLoader(log *zap.Logger, opts ...LoaderOption) *Loader {
	l := &Loader{
		runner: ExecRunner{},
		client: nhttp.NewHTTPClient(),
		log:    log.Named("codec.loader"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load decodes the picture at path, which may be a local file or an
// http(s) URL.
func (l *Loader) Load(ctx context.Context, path string) (image.Image, error) {
	if util.IsURL(path) {
		return l.loadURL(ctx, path)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %s", apperr.ErrInputNotFound, path)
	}
	if IsRaw(path) {
		return l.loadRaw(ctx, path)
	}

	img, format, err := util.OpenImage(path)
	if err != nil {
		return nil, decodeError(path, err)
	}
	l.log.Debug("decoded", zap.String("file", path), zap.String("format", format),
		zap.Int("width", img.Bounds().Dx()), zap.Int("height", img.Bounds().Dy()))
	return img, nil
}

func (l *Loader) loadURL(ctx context.Context, url string) (image.Image, error) {
	data, err := util.Download(ctx, l.client, url)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", apperr.ErrInputNotFound, url, err)
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, decodeError(url, err)
	}
	l.log.Debug("downloaded", zap.String("file", url), zap.String("format", format), zap.Int("bytes", len(data)))
	return img, nil
}

func (l *Loader) loadRaw(ctx context.Context, path string) (image.Image, error) {
	if err := l.runner.LookPath("dcraw"); err != nil {
		return nil, fmt.Errorf("%w: %s: dcraw not available: %v", apperr.ErrRawDecode, path, err)
	}
	// 8-bit TIFF on stdout, camera white balance.
	out, err := l.runner.Run(ctx, "dcraw", []string{"-c", "-w", "-T", path}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", apperr.ErrRawDecode, path, err)
	}
	img, err := tiff.Decode(bytes.NewReader(out))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", apperr.ErrRawDecode, path, err)
	}
	l.log.Debug("developed raw", zap.String("file", path),
		zap.Int("width", img.Bounds().Dx()), zap.Int("height", img.Bounds().Dy()))
	return img, nil
}

func decodeError(path string, err error) error {
	switch {
	case errors.Is(err, image.ErrFormat):
		return fmt.Errorf("%w: %s", apperr.ErrUnsupportedInputFormat, path)
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %s", apperr.ErrInputNotFound, path)
	default:
		return fmt.Errorf("%w: %s: %v", apperr.ErrInputDecode, path, err)
	}
}
