package codec

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type call struct {
	name  string
	args  []string
	stdin []byte
}

// fakeRunner pretends a fixed set of tools is installed.
type fakeRunner struct {
	installed map[string]bool
	run       func(name string, args []string, stdin []byte) ([]byte, error)

	mu    sync.Mutex
	calls []call
}

func (f *fakeRunner) LookPath(name string) error {
	if f.installed[name] {
		return nil
	}
	return errors.New("executable file not found in $PATH")
}

func (f *fakeRunner) Run(_ context.Context, name string, args []string, stdin []byte) ([]byte, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call{name: name, args: args, stdin: stdin})
	f.mu.Unlock()
	return f.run(name, args, stdin)
}

func solid(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}
